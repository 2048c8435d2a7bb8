// Package memstore is an in-process store.Store used for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"SOULKNOT_BACK-END/internal/store"
)

// Store keeps every collection in memory behind one lock.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data map[string][]store.Document
}

var _ store.Store = (*Store)(nil)

// New creates an empty store with all known collections.
func New() *Store {
	s := &Store{data: make(map[string][]store.Document, len(store.Collections))}
	for _, name := range store.Collections {
		s.data[name] = nil
	}
	return s
}

// Collection returns a handle to name. Unknown names yield a collection
// whose every call fails with store.ErrUnknownCollection.
func (s *Store) Collection(name string) store.Collection {
	return &collection{s: s, name: name}
}

// RunInTransaction serializes transactions. Writes made with the context fn
// receives are journaled and undone in reverse order when fn fails; writes
// from outside the transaction are left alone. Nested calls join the outer
// transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		s.undo(j)
		s.mu.Unlock()
		return err
	}
	return nil
}

type txKey struct{}

// undoEntry restores one document. A nil prev removes the document the
// transaction inserted.
type undoEntry struct {
	collection string
	id         string
	prev       store.Document
}

type journal struct {
	mu      sync.Mutex
	entries []undoEntry
}

func record(ctx context.Context, collection, id string, prev store.Document) {
	j, ok := ctx.Value(txKey{}).(*journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.entries = append(j.entries, undoEntry{collection: collection, id: id, prev: prev})
	j.mu.Unlock()
}

// undo must be called with s.mu held.
func (s *Store) undo(j *journal) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		docs := s.data[e.collection]
		idx := -1
		for k, doc := range docs {
			if doc.ID() == e.id {
				idx = k
				break
			}
		}
		switch {
		case e.prev == nil && idx >= 0:
			s.data[e.collection] = append(docs[:idx:idx], docs[idx+1:]...)
		case e.prev != nil && idx >= 0:
			docs[idx] = e.prev
		case e.prev != nil:
			s.data[e.collection] = append(docs, e.prev)
		}
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

type collection struct {
	s    *Store
	name string
}

func (c *collection) check() error {
	if !store.IsKnownCollection(c.name) {
		return store.ErrUnknownCollection
	}
	return nil
}

func (c *collection) Find(ctx context.Context, filter store.Document, opts *store.FindOptions) ([]store.Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	c.s.mu.RLock()
	matched := make([]store.Document, 0)
	for _, doc := range c.s.data[c.name] {
		if store.Matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	c.s.mu.RUnlock()

	if opts != nil && opts.SortField != "" {
		field, desc := opts.SortField, opts.SortDesc
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := store.Compare(matched[i][field], matched[j][field])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts != nil && opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]store.Document, 0, len(matched))
	for _, doc := range matched {
		cp, err := store.Clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (c *collection) FindOne(ctx context.Context, filter store.Document) (store.Document, error) {
	docs, err := c.Find(ctx, filter, &store.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

func (c *collection) Count(ctx context.Context, filter store.Document) (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	var n int64
	for _, doc := range c.s.data[c.name] {
		if store.Matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (c *collection) InsertOne(ctx context.Context, doc store.Document) (store.InsertResult, error) {
	if err := c.check(); err != nil {
		return store.InsertResult{}, err
	}
	cp, err := store.Clone(doc)
	if err != nil {
		return store.InsertResult{}, err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.insertLocked(ctx, cp), nil
}

func (c *collection) insertLocked(ctx context.Context, doc store.Document) store.InsertResult {
	if doc.ID() == "" {
		doc[store.IDField] = uuid.NewString()
	}
	c.s.data[c.name] = append(c.s.data[c.name], doc)
	record(ctx, c.name, doc.ID(), nil)
	return store.InsertResult{InsertedID: doc.ID()}
}

func (c *collection) InsertSequenced(ctx context.Context, field string, doc store.Document) (store.InsertResult, int64, error) {
	if err := c.check(); err != nil {
		return store.InsertResult{}, 0, err
	}
	cp, err := store.Clone(doc)
	if err != nil {
		return store.InsertResult{}, 0, err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var max int64
	for _, existing := range c.s.data[c.name] {
		if n, ok := existing.Int(field); ok && n > max {
			max = n
		}
	}
	next := max + 1
	cp[field] = float64(next)
	return c.insertLocked(ctx, cp), next, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, set store.Document) (store.UpdateResult, error) {
	if err := c.check(); err != nil {
		return store.UpdateResult{}, err
	}
	patch, err := store.Clone(set)
	if err != nil {
		return store.UpdateResult{}, err
	}
	delete(patch, store.IDField)

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	docs := c.s.data[c.name]
	for i, doc := range docs {
		if !store.Matches(doc, filter) {
			continue
		}
		res := store.UpdateResult{MatchedCount: 1}
		updated := make(store.Document, len(doc)+len(patch))
		for k, v := range doc {
			updated[k] = v
		}
		for k, v := range patch {
			if old, ok := doc[k]; !ok || !store.Equal(old, v) {
				res.ModifiedCount = 1
			}
			updated[k] = v
		}
		docs[i] = updated
		record(ctx, c.name, doc.ID(), doc)
		return res, nil
	}
	return store.UpdateResult{}, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter store.Document) (store.DeleteResult, error) {
	if err := c.check(); err != nil {
		return store.DeleteResult{}, err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	docs := c.s.data[c.name]
	for i, doc := range docs {
		if store.Matches(doc, filter) {
			c.s.data[c.name] = append(docs[:i:i], docs[i+1:]...)
			record(ctx, c.name, doc.ID(), doc)
			return store.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return store.DeleteResult{}, nil
}
