package dto

import "SOULKNOT_BACK-END/internal/store"

// InsertResponse mirrors a store insert acknowledgement. InsertedID is null
// when nothing was inserted.
type InsertResponse struct {
	Acknowledged bool    `json:"acknowledged,omitempty"`
	InsertedID   *string `json:"insertedId"`
	Message      string  `json:"message,omitempty"`
}

// UpdateResponse mirrors a store update acknowledgement
type UpdateResponse struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResponse mirrors a store delete acknowledgement
type DeleteResponse struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Inserted wraps a successful insert
func Inserted(res store.InsertResult) InsertResponse {
	id := res.InsertedID
	return InsertResponse{Acknowledged: true, InsertedID: &id}
}

// NotInserted reports a soft rejection with a null insertedId
func NotInserted(message string) InsertResponse {
	return InsertResponse{Message: message}
}

// Updated wraps an update result
func Updated(res store.UpdateResult) UpdateResponse {
	return UpdateResponse{Acknowledged: true, MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}
}

// Deleted wraps a delete result
func Deleted(res store.DeleteResult) DeleteResponse {
	return DeleteResponse{Acknowledged: true, DeletedCount: res.DeletedCount}
}
