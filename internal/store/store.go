// Package store defines the document-store contract shared by every backend.
//
// Documents are schemaless maps. Filters use equality semantics on top-level
// fields, the same way the handlers address records: {"email": "a@x.com"},
// {"_id": "..."}, {"biodataId": 7}.
package store

import (
	"context"
	"errors"
)

// Collection names used by the API.
const (
	CollectionUsers           = "users"
	CollectionBiodata         = "biodata"
	CollectionFavorites       = "favorites"
	CollectionPayments        = "payments"
	CollectionStories         = "stories"
	CollectionPremiumRequests = "premium_requests"
)

// Collections lists every collection a backend has to provide.
var Collections = []string{
	CollectionUsers,
	CollectionBiodata,
	CollectionFavorites,
	CollectionPayments,
	CollectionStories,
	CollectionPremiumRequests,
}

// IDField is the key every stored document is addressed by.
const IDField = "_id"

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("store: document not found")

// ErrDuplicate is returned when a backend-level unique constraint rejects
// an insert.
var ErrDuplicate = errors.New("store: duplicate document")

// ErrUnknownCollection is returned for names outside Collections.
var ErrUnknownCollection = errors.New("store: unknown collection")

// Document is a single stored record.
type Document map[string]any

// ID returns the document's _id, or "" when unset.
func (d Document) ID() string {
	if v, ok := d[IDField].(string); ok {
		return v
	}
	return ""
}

// String returns the field as a string when it holds one.
func (d Document) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the field as an integer when it holds a number.
func (d Document) Int(key string) (int64, bool) {
	return ToInt64(d[key])
}

// FindOptions controls ordering and size of Find results.
type FindOptions struct {
	SortField string
	SortDesc  bool
	Limit     int64
}

// InsertResult mirrors the acknowledgement document the API returns.
type InsertResult struct {
	InsertedID string
}

// UpdateResult reports how many documents matched and changed.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// DeleteResult reports how many documents were removed.
type DeleteResult struct {
	DeletedCount int64
}

// Collection is a single named set of documents.
type Collection interface {
	Find(ctx context.Context, filter Document, opts *FindOptions) ([]Document, error)
	FindOne(ctx context.Context, filter Document) (Document, error)
	Count(ctx context.Context, filter Document) (int64, error)
	InsertOne(ctx context.Context, doc Document) (InsertResult, error)
	// InsertSequenced sets doc[field] to the current maximum of field plus
	// one (1 for an empty collection) and inserts it. Concurrent callers never
	// receive the same value.
	InsertSequenced(ctx context.Context, field string, doc Document) (InsertResult, int64, error)
	// UpdateOne merges set into the first matching document.
	UpdateOne(ctx context.Context, filter, set Document) (UpdateResult, error)
	DeleteOne(ctx context.Context, filter Document) (DeleteResult, error)
}

// Store is a connected backend.
type Store interface {
	Collection(name string) Collection
	// RunInTransaction runs fn so that all collection calls made with the
	// context it receives commit together or not at all.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// IsKnownCollection reports whether name is one of Collections.
func IsKnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
