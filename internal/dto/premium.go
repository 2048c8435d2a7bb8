package dto

// PremiumRequestCreate is the body of POST /premium/request
type PremiumRequestCreate struct {
	BiodataID *int64 `json:"biodataId" validate:"required"`
	Name      string `json:"name,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// PremiumStatusUpdate is the body of PUT /premium/request/{id}
type PremiumStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending approved"`
}

// ApprovalResponse answers PUT /admin/approve-premium/{id}
type ApprovalResponse struct {
	Message   string         `json:"message"`
	User      UpdateResponse `json:"user"`
	Biodata   UpdateResponse `json:"biodata"`
	Request   UpdateResponse `json:"request"`
	BiodataID int64          `json:"biodataId"`
	UserEmail string         `json:"userEmail"`
}
