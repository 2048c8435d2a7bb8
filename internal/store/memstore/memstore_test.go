package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SOULKNOT_BACK-END/internal/store"
)

func TestFindMatchesSortsAndLimits(t *testing.T) {
	ctx := context.Background()
	s := New()
	col := s.Collection(store.CollectionBiodata)

	for _, doc := range []store.Document{
		{"biodataId": 2, "biodataType": "Male"},
		{"biodataId": 7, "biodataType": "Female"},
		{"biodataId": 4, "biodataType": "Male"},
	} {
		_, err := col.InsertOne(ctx, doc)
		require.NoError(t, err)
	}

	males, err := col.Find(ctx, store.Document{"biodataType": "Male"}, nil)
	require.NoError(t, err)
	assert.Len(t, males, 2)

	top, err := col.Find(ctx, nil, &store.FindOptions{SortField: "biodataId", SortDesc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	id, ok := top[0].Int("biodataId")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestFindOneNotFound(t *testing.T) {
	s := New()
	_, err := s.Collection(store.CollectionUsers).FindOne(context.Background(), store.Document{"email": "nobody@x.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnknownCollection(t *testing.T) {
	s := New()
	_, err := s.Collection("nope").InsertOne(context.Background(), store.Document{"a": 1})
	assert.ErrorIs(t, err, store.ErrUnknownCollection)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	col := s.Collection(store.CollectionUsers)
	res, err := col.InsertOne(ctx, store.Document{"email": "a@x.com"})
	require.NoError(t, err)

	doc, err := col.FindOne(ctx, store.Document{store.IDField: res.InsertedID})
	require.NoError(t, err)
	doc["email"] = "changed@x.com"

	again, err := col.FindOne(ctx, store.Document{store.IDField: res.InsertedID})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", again.String("email"))
}

func TestUpdateOneReportsModification(t *testing.T) {
	ctx := context.Background()
	s := New()
	col := s.Collection(store.CollectionUsers)
	_, err := col.InsertOne(ctx, store.Document{"email": "a@x.com", "memberType": "standard"})
	require.NoError(t, err)

	res, err := col.UpdateOne(ctx, store.Document{"email": "a@x.com"}, store.Document{"memberType": "premium"})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, res)

	res, err = col.UpdateOne(ctx, store.Document{"email": "a@x.com"}, store.Document{"memberType": "premium"})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateResult{MatchedCount: 1, ModifiedCount: 0}, res)

	res, err = col.UpdateOne(ctx, store.Document{"email": "b@x.com"}, store.Document{"memberType": "premium"})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateResult{}, res)
}

func TestUpdateOneKeepsID(t *testing.T) {
	ctx := context.Background()
	s := New()
	col := s.Collection(store.CollectionBiodata)
	ins, err := col.InsertOne(ctx, store.Document{"name": "x"})
	require.NoError(t, err)

	_, err = col.UpdateOne(ctx, store.Document{store.IDField: ins.InsertedID}, store.Document{store.IDField: "other", "name": "y"})
	require.NoError(t, err)

	doc, err := col.FindOne(ctx, store.Document{store.IDField: ins.InsertedID})
	require.NoError(t, err)
	assert.Equal(t, "y", doc.String("name"))
}

func TestDeleteOneMissingIsZero(t *testing.T) {
	s := New()
	res, err := s.Collection(store.CollectionFavorites).DeleteOne(context.Background(), store.Document{store.IDField: "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.DeletedCount)
}

func TestInsertSequencedStartsAtOne(t *testing.T) {
	s := New()
	_, id, err := s.Collection(store.CollectionBiodata).InsertSequenced(context.Background(), "biodataId", store.Document{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestInsertSequencedConcurrentIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	col := s.Collection(store.CollectionBiodata)

	const n = 50
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, id, err := col.InsertSequenced(ctx, "biodataId", store.Document{"name": "p"})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "biodataId %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing biodataId %d", i)
	}
}

func TestRunInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := s.Collection(store.CollectionUsers)
	_, err := users.InsertOne(ctx, store.Document{"email": "a@x.com", "memberType": "standard"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := users.UpdateOne(ctx, store.Document{"email": "a@x.com"}, store.Document{"memberType": "premium"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := users.FindOne(ctx, store.Document{"email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "standard", doc.String("memberType"))
}

func TestRunInTransactionRollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := s.Collection(store.CollectionUsers)
	favorites := s.Collection(store.CollectionFavorites)
	_, err := favorites.InsertOne(ctx, store.Document{"userEmail": "a@x.com", "biodataId": 1})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.RunInTransaction(ctx, func(txCtx context.Context) error {
		if _, err := users.InsertOne(txCtx, store.Document{"email": "tx@x.com"}); err != nil {
			return err
		}
		if _, err := favorites.DeleteOne(txCtx, store.Document{"userEmail": "a@x.com"}); err != nil {
			return err
		}

		done := make(chan error)
		go func() {
			_, err := users.InsertOne(ctx, store.Document{"email": "outside@x.com"})
			done <- err
		}()
		require.NoError(t, <-done)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = users.FindOne(ctx, store.Document{"email": "outside@x.com"})
	assert.NoError(t, err)
	_, err = users.FindOne(ctx, store.Document{"email": "tx@x.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err = favorites.Count(ctx, store.Document{"userEmail": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunInTransactionCommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := s.Collection(store.CollectionUsers)

	err := s.RunInTransaction(ctx, func(txCtx context.Context) error {
		return s.RunInTransaction(txCtx, func(inner context.Context) error {
			_, err := users.InsertOne(inner, store.Document{"email": "a@x.com"})
			return err
		})
	})
	require.NoError(t, err)

	n, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
