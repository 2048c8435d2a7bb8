package models

// Payment statuses
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
)

// Payment documents keep whatever the client sent; these fields are read by
// the server.
const (
	PaymentRequestEmailField = "requestEmail"
	PaymentBiodataIDField    = "biodataId"
	PaymentIDField           = "paymentId"
	PaymentStatusField       = "status"
)
