package models

import "SOULKNOT_BACK-END/internal/store"

// Favorite links a user to a biodata they bookmarked
type Favorite struct {
	BiodataID int64  `json:"biodataId"`
	UserEmail string `json:"userEmail"`
	CreatedAt string `json:"createdAt"`
}

// Key is the filter that identifies the (biodataId, userEmail) pair
func (f Favorite) Key() store.Document {
	return store.Document{"biodataId": f.BiodataID, "userEmail": f.UserEmail}
}

// Document converts f into its stored form
func (f Favorite) Document() store.Document {
	doc := f.Key()
	doc["createdAt"] = f.CreatedAt
	return doc
}
