// Package postgres stores documents as jsonb rows, one table per collection.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"SOULKNOT_BACK-END/internal/config"
	"SOULKNOT_BACK-END/internal/store"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// Store is a store.Store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Connect opens and pings a pool configured from cfg.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// simple protocol is required behind PgBouncer
	pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pcfg.ConnConfig.RuntimeParams["application_name"] = "soulknot-backend"
	pcfg.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.Database.QueryTimeout.Milliseconds())
	pcfg.MaxConns = cfg.Database.MaxConns
	pcfg.MinConns = cfg.Database.MinConns
	pcfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewFromPool wraps an existing pool.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *Store) Collection(name string) store.Collection {
	return &collection{s: s, name: name, table: pgx.Identifier{name}.Sanitize()}
}

// RunInTransaction runs fn inside a transaction, or a savepoint when ctx
// already carries one.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgx.BeginFunc(ctx, s.querier(ctx), func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

type collection struct {
	s     *Store
	name  string
	table string
}

func (c *collection) check() error {
	if !store.IsKnownCollection(c.name) {
		return store.ErrUnknownCollection
	}
	return nil
}

// buildWhere turns an equality filter into a SQL predicate. _id maps to the
// id column, null values match absent fields and the rest become one jsonb
// containment test.
func buildWhere(filter store.Document, args []any) (string, []any, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	rest := store.Document{}
	for _, k := range keys {
		v := filter[k]
		switch {
		case k == store.IDField:
			args = append(args, fmt.Sprint(v))
			clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
		case v == nil:
			args = append(args, k)
			n := len(args)
			clauses = append(clauses, fmt.Sprintf("(doc -> $%d::text IS NULL OR doc -> $%d::text = 'null'::jsonb)", n, n))
		default:
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		raw, err := json.Marshal(rest)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, string(raw))
		clauses = append(clauses, fmt.Sprintf("doc @> $%d::jsonb", len(args)))
	}
	if len(clauses) == 0 {
		return "TRUE", args, nil
	}
	return strings.Join(clauses, " AND "), args, nil
}

func scanDocs(rows pgx.Rows) ([]store.Document, error) {
	defer rows.Close()
	docs := make([]store.Document, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		doc := store.Document{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		doc[store.IDField] = id
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func encodeDoc(doc store.Document) (string, string, error) {
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	body := make(store.Document, len(doc))
	for k, v := range doc {
		if k != store.IDField {
			body[k] = v
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", "", fmt.Errorf("encode document: %w", err)
	}
	return id, string(raw), nil
}

func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w (%s)", op, store.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *collection) Find(ctx context.Context, filter store.Document, opts *store.FindOptions) ([]store.Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT id, doc FROM %s WHERE %s", c.table, where)
	if opts != nil && opts.SortField != "" {
		args = append(args, opts.SortField)
		dir := "ASC"
		if opts.SortDesc {
			dir = "DESC"
		}
		q += fmt.Sprintf(" ORDER BY doc -> $%d::text %s NULLS LAST, created_at %s", len(args), dir, dir)
	} else {
		q += " ORDER BY created_at"
	}
	if opts != nil && opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := c.s.querier(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, wrapErr("find "+c.name, err)
	}
	docs, err := scanDocs(rows)
	if err != nil {
		return nil, wrapErr("find "+c.name, err)
	}
	return docs, nil
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
	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", c.table, where)
	if err := c.s.querier(ctx).QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, wrapErr("count "+c.name, err)
	}
	return n, nil
}

func (c *collection) insert(ctx context.Context, q querier, doc store.Document) (store.InsertResult, error) {
	id, raw, err := encodeDoc(doc)
	if err != nil {
		return store.InsertResult{}, err
	}
	sql := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)", c.table)
	if _, err := q.Exec(ctx, sql, id, raw); err != nil {
		return store.InsertResult{}, wrapErr("insert "+c.name, err)
	}
	return store.InsertResult{InsertedID: id}, nil
}

func (c *collection) InsertOne(ctx context.Context, doc store.Document) (store.InsertResult, error) {
	if err := c.check(); err != nil {
		return store.InsertResult{}, err
	}
	return c.insert(ctx, c.s.querier(ctx), doc)
}

// InsertSequenced holds a transaction-scoped advisory lock keyed on the
// collection and field while it reads the maximum and inserts.
func (c *collection) InsertSequenced(ctx context.Context, field string, doc store.Document) (store.InsertResult, int64, error) {
	if err := c.check(); err != nil {
		return store.InsertResult{}, 0, err
	}
	var (
		res  store.InsertResult
		next int64
	)
	err := pgx.BeginFunc(ctx, c.s.querier(ctx), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", c.name+"."+field); err != nil {
			return wrapErr("lock "+c.name, err)
		}
		var max int64
		q := fmt.Sprintf("SELECT COALESCE(MAX((doc ->> $1::text)::numeric)::bigint, 0) FROM %s", c.table)
		if err := tx.QueryRow(ctx, q, field).Scan(&max); err != nil {
			return wrapErr("max "+c.name, err)
		}
		next = max + 1

		body := make(store.Document, len(doc)+1)
		for k, v := range doc {
			body[k] = v
		}
		body[field] = next
		var err error
		res, err = c.insert(ctx, tx, body)
		return err
	})
	if err != nil {
		return store.InsertResult{}, 0, err
	}
	return res, next, nil
}

func (c *collection) UpdateOne(ctx context.Context, filter, set store.Document) (store.UpdateResult, error) {
	if err := c.check(); err != nil {
		return store.UpdateResult{}, err
	}
	patch := make(store.Document, len(set))
	for k, v := range set {
		if k != store.IDField {
			patch[k] = v
		}
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return store.UpdateResult{}, fmt.Errorf("encode update: %w", err)
	}

	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return store.UpdateResult{}, err
	}
	args = append(args, string(raw))
	p := len(args)
	q := fmt.Sprintf(`
WITH target AS (
	SELECT id, doc FROM %[1]s WHERE %[2]s LIMIT 1 FOR UPDATE
), changed AS (
	UPDATE %[1]s AS d
	   SET doc = target.doc || $%[3]d::jsonb, updated_at = now()
	  FROM target
	 WHERE d.id = target.id AND (target.doc || $%[3]d::jsonb) IS DISTINCT FROM target.doc
	RETURNING d.id
)
SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM changed)`, c.table, where, p)

	var res store.UpdateResult
	if err := c.s.querier(ctx).QueryRow(ctx, q, args...).Scan(&res.MatchedCount, &res.ModifiedCount); err != nil {
		return store.UpdateResult{}, wrapErr("update "+c.name, err)
	}
	return res, nil
}

func (c *collection) DeleteOne(ctx context.Context, filter store.Document) (store.DeleteResult, error) {
	if err := c.check(); err != nil {
		return store.DeleteResult{}, err
	}
	where, args, err := buildWhere(filter, nil)
	if err != nil {
		return store.DeleteResult{}, err
	}
	q := fmt.Sprintf("DELETE FROM %[1]s WHERE id IN (SELECT id FROM %[1]s WHERE %[2]s LIMIT 1)", c.table, where)
	tag, err := c.s.querier(ctx).Exec(ctx, q, args...)
	if err != nil {
		return store.DeleteResult{}, wrapErr("delete "+c.name, err)
	}
	return store.DeleteResult{DeletedCount: tag.RowsAffected()}, nil
}
