package dto

// FavoriteRequest is the body of POST /favorites
type FavoriteRequest struct {
	BiodataID *int64 `json:"biodataId" validate:"required"`
	UserEmail string `json:"userEmail" validate:"required"`
}
