package dto

import "github.com/shopspring/decimal"

// PaymentIntentRequest is the body of POST /create-payment-intent
type PaymentIntentRequest struct {
	Price decimal.Decimal `json:"price"`
}

// PaymentIntentResponse carries the processor's client secret
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// PaymentRecord lists the fields POST /payments requires; the rest of the
// body is stored as sent.
type PaymentRecord struct {
	PaymentID    string `json:"paymentId" validate:"required"`
	BiodataID    *int64 `json:"biodataId" validate:"required"`
	RequestEmail string `json:"requestEmail,omitempty"`
	Status       string `json:"status,omitempty" validate:"omitempty,oneof=pending approved"`
}

// PaymentStatusUpdate is the body of PATCH /payments/{id}
type PaymentStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending approved"`
}

// PaymentStatusResponse answers GET /check-payment-status
type PaymentStatusResponse struct {
	Paid bool `json:"paid"`
}
