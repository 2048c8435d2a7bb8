package models

import "SOULKNOT_BACK-END/internal/store"

// Premium request statuses
const (
	PremiumPending  = "pending"
	PremiumApproved = "approved"
)

// PremiumRequest is a user's application to be upgraded to premium
type PremiumRequest struct {
	UserEmail string `json:"userEmail"`
	BiodataID int64  `json:"biodataId"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Document converts p into its stored form
func (p PremiumRequest) Document() store.Document {
	doc := store.Document{
		"userEmail": p.UserEmail,
		"biodataId": p.BiodataID,
		"status":    p.Status,
		"createdAt": p.CreatedAt,
	}
	if p.Name != "" {
		doc["name"] = p.Name
	}
	return doc
}
