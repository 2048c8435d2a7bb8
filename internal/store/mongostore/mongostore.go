// Package mongostore is the MongoDB store.Store backend.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"SOULKNOT_BACK-END/internal/config"
	"SOULKNOT_BACK-END/internal/store"
)

const countersCollection = "counters"

// Store is a store.Store over one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Connect dials the server with the stable v1 API and pings the primary.
func Connect(ctx context.Context, cfg *config.MongoConfig) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)).
		SetConnectTimeout(cfg.ConnTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{client: client, db: client.Database(cfg.Database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// uniqueIndexes mirrors the unique constraints of the postgres schema.
func uniqueIndexes() map[string][]mongo.IndexModel {
	unique := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
	}
	return map[string][]mongo.IndexModel{
		store.CollectionUsers: {
			unique("users_email_key", bson.D{{Key: "email", Value: 1}}),
		},
		store.CollectionBiodata: {
			unique("biodata_biodata_id_key", bson.D{{Key: "biodataId", Value: 1}}),
		},
		store.CollectionFavorites: {
			unique("favorites_pair_key", bson.D{{Key: "biodataId", Value: 1}, {Key: "userEmail", Value: 1}}),
		},
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for name, models := range uniqueIndexes() {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{s: s, name: name, coll: s.db.Collection(name)}
}

// RunInTransaction needs a replica set or sharded cluster; nested calls
// join the outer session.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type collection struct {
	s    *Store
	name string
	coll *mongo.Collection
}

func (c *collection) check() error {
	if !store.IsKnownCollection(c.name) {
		return store.ErrUnknownCollection
	}
	return nil
}

// toBSON copies a document, turning a hex _id into an ObjectID.
func toBSON(doc store.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if k == store.IDField {
			if s, ok := v.(string); ok {
				if oid, err := primitive.ObjectIDFromHex(s); err == nil {
					out[k] = oid
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

// normalize converts driver types into the plain shapes handlers expect.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Decimal128:
		return t.String()
	case int32:
		return int64(t)
	case bson.M:
		return fromBSON(t)
	case bson.D:
		return fromBSON(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}

func fromBSON(m bson.M) store.Document {
	out := make(store.Document, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func wrapErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *collection) Find(ctx context.Context, filter store.Document, opts *store.FindOptions) ([]store.Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	fo := options.Find()
	if opts != nil && opts.SortField != "" {
		dir := 1
		if opts.SortDesc {
			dir = -1
		}
		fo.SetSort(bson.D{{Key: opts.SortField, Value: dir}})
	}
	if opts != nil && opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	cur, err := c.coll.Find(ctx, toBSON(filter), fo)
	if err != nil {
		return nil, wrapErr("find "+c.name, err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, wrapErr("find "+c.name, err)
	}
	docs := make([]store.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (c *collection) FindOne(ctx context.Context, filter store.Document) (store.Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	var m bson.M
	err := c.coll.FindOne(ctx, toBSON(filter)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("find one "+c.name, err)
	}
	return fromBSON(m), nil
}

func (c *collection) Count(ctx context.Context, filter store.Document) (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	n, err := c.coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, wrapErr("count "+c.name, err)
	}
	return n, nil
}

func (c *collection) InsertOne(ctx context.Context, doc store.Document) (store.InsertResult, error) {
	if err := c.check(); err != nil {
		return store.InsertResult{}, err
	}
	res, err := c.coll.InsertOne(ctx, toBSON(doc))
	if err != nil {
		return store.InsertResult{}, wrapErr("insert "+c.name, err)
	}
	return store.InsertResult{InsertedID: fmt.Sprint(normalize(res.InsertedID))}, nil
}

// InsertSequenced draws the value from a counter document seeded with the
// collection's current maximum. $inc on a single document is atomic, so two
// callers never share a value.
func (c *collection) InsertSequenced(ctx context.Context, field string, doc store.Document) (store.InsertResult, int64, error) {
	if err := c.check(); err != nil {
		return store.InsertResult{}, 0, err
	}
	key := c.name + "." + field
	counters := c.s.db.Collection(countersCollection)

	var max int64
	var last bson.M
	err := c.coll.FindOne(ctx, bson.M{}, options.FindOne().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetProjection(bson.M{field: 1})).Decode(&last)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
	case err != nil:
		return store.InsertResult{}, 0, wrapErr("max "+c.name, err)
	default:
		max, _ = store.ToInt64(normalize(last[field]))
	}

	seed := func() error {
		_, err := counters.UpdateOne(ctx, bson.M{"_id": key},
			bson.M{"$max": bson.M{"seq": max}}, options.Update().SetUpsert(true))
		return err
	}
	if err := seed(); err != nil {
		// two first-time upserts can collide on _id; the loser retries as an update
		if !mongo.IsDuplicateKeyError(err) {
			return store.InsertResult{}, 0, wrapErr("seed counter", err)
		}
		if err := seed(); err != nil {
			return store.InsertResult{}, 0, wrapErr("seed counter", err)
		}
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = counters.FindOneAndUpdate(ctx, bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&counter)
	if err != nil {
		return store.InsertResult{}, 0, wrapErr("next counter", err)
	}

	body := make(store.Document, len(doc)+1)
	for k, v := range doc {
		body[k] = v
	}
	body[field] = counter.Seq
	res, err := c.InsertOne(ctx, body)
	if err != nil {
		return store.InsertResult{}, 0, err
	}
	return res, counter.Seq, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, set store.Document) (store.UpdateResult, error) {
	if err := c.check(); err != nil {
		return store.UpdateResult{}, err
	}
	patch := bson.M{}
	for k, v := range set {
		if k != store.IDField {
			patch[k] = v
		}
	}
	if len(patch) == 0 {
		n, err := c.coll.CountDocuments(ctx, toBSON(filter), options.Count().SetLimit(1))
		if err != nil {
			return store.UpdateResult{}, wrapErr("update "+c.name, err)
		}
		return store.UpdateResult{MatchedCount: n}, nil
	}
	res, err := c.coll.UpdateOne(ctx, toBSON(filter), bson.M{"$set": patch})
	if err != nil {
		return store.UpdateResult{}, wrapErr("update "+c.name, err)
	}
	return store.UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter store.Document) (store.DeleteResult, error) {
	if err := c.check(); err != nil {
		return store.DeleteResult{}, err
	}
	res, err := c.coll.DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return store.DeleteResult{}, wrapErr("delete "+c.name, err)
	}
	return store.DeleteResult{DeletedCount: res.DeletedCount}, nil
}
