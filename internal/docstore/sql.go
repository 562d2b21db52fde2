package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore implements Client over the documents table.  Used directly it
// is the service (elevated) tier; AsUser wraps it in the rule-checked tier.
type SQLStore struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// NewSQLStore wraps an open, migrated database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now, newID: uuid.NewString}
}

// SetClock replaces the time source.  Tests use it to force identical
// wall-clock readings.
func (s *SQLStore) SetClock(now func() time.Time) { s.now = now }

// AsUser returns the user-scoped tier for principalID.  An empty
// principalID is an anonymous visitor.
func (s *SQLStore) AsUser(principalID string) Client {
	return &userClient{base: s, principal: principalID, rules: DefaultRules}
}

// stamp returns a timestamp strictly later than prev, so every write
// advances updated_at even when the clock has not.
func (s *SQLStore) stamp(prev int64) int64 {
	now := s.now().UnixMicro()
	if now <= prev {
		now = prev + 1
	}
	return now
}

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

func (s *SQLStore) Get(ctx context.Context, p Path) (Document, error) {
	if !p.valid() {
		return Document{}, newError(CodeInvalidArgument, "get", p, errors.New("invalid path"))
	}
	var (
		body             string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT body, created_at, updated_at FROM documents WHERE collection=? AND id=? LIMIT 1",
		p.Collection, p.ID).Scan(&body, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, notFound("get", p)
	}
	if err != nil {
		return Document{}, internal("get", p, err)
	}
	return Document{Path: p, Body: json.RawMessage(body), CreatedAt: fromMicros(created), UpdatedAt: fromMicros(updated)}, nil
}

func (s *SQLStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	p := Doc(collection, s.newID())
	body, err := encode(fields)
	if err != nil {
		return "", newError(CodeInvalidArgument, "create", p, err)
	}
	ts := s.stamp(0)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, body, created_at, updated_at) VALUES (?,?,?,?,?)",
		p.Collection, p.ID, body, ts, ts); err != nil {
		return "", internal("create", p, err)
	}
	return p.ID, nil
}

func (s *SQLStore) Set(ctx context.Context, p Path, fields Fields) error {
	if !p.valid() {
		return newError(CodeInvalidArgument, "set", p, errors.New("invalid path"))
	}
	body, err := encode(fields)
	if err != nil {
		return newError(CodeInvalidArgument, "set", p, err)
	}
	return s.inTx(ctx, "set", p, func(tx *sql.Tx) error {
		var prev int64
		err := tx.QueryRowContext(ctx,
			"SELECT updated_at FROM documents WHERE collection=? AND id=?", p.Collection, p.ID).Scan(&prev)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			ts := s.stamp(0)
			_, err = tx.ExecContext(ctx,
				"INSERT INTO documents (collection, id, body, created_at, updated_at) VALUES (?,?,?,?,?)",
				p.Collection, p.ID, body, ts, ts)
			return err
		case err != nil:
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE documents SET body=?, updated_at=? WHERE collection=? AND id=?",
			body, s.stamp(prev), p.Collection, p.ID)
		return err
	})
}

func (s *SQLStore) Update(ctx context.Context, p Path, fields Fields) error {
	if !p.valid() {
		return newError(CodeInvalidArgument, "update", p, errors.New("invalid path"))
	}
	patch, err := encodeFields(fields)
	if err != nil {
		return newError(CodeInvalidArgument, "update", p, err)
	}
	return s.inTx(ctx, "update", p, func(tx *sql.Tx) error {
		var (
			body string
			prev int64
		)
		err := tx.QueryRowContext(ctx,
			"SELECT body, updated_at FROM documents WHERE collection=? AND id=?", p.Collection, p.ID).Scan(&body, &prev)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("update", p)
		}
		if err != nil {
			return err
		}
		merged := map[string]json.RawMessage{}
		if err := json.Unmarshal([]byte(body), &merged); err != nil {
			return fmt.Errorf("decode stored body: %w", err)
		}
		for k, v := range patch {
			merged[k] = v
		}
		out, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE documents SET body=?, updated_at=? WHERE collection=? AND id=?",
			string(out), s.stamp(prev), p.Collection, p.ID)
		return err
	})
}

func (s *SQLStore) Delete(ctx context.Context, p Path) error {
	if !p.valid() {
		return newError(CodeInvalidArgument, "delete", p, errors.New("invalid path"))
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection=? AND id=?", p.Collection, p.ID)
	if err != nil {
		return internal("delete", p, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("delete", p)
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, q Query) ([]Document, error) {
	p := Path{Collection: q.Collection}
	if q.Collection == "" {
		return nil, newError(CodeInvalidArgument, "query", p, errors.New("collection required"))
	}
	order := OrderByID
	switch q.OrderBy {
	case "", OrderByID:
	case OrderByCreatedAt, OrderByUpdatedAt:
		order = q.OrderBy
	default:
		return nil, newError(CodeInvalidArgument, "query", p, fmt.Errorf("cannot order by %q", q.OrderBy))
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	// order is one of three fixed column names, never user input
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, body, created_at, updated_at FROM documents WHERE collection=? ORDER BY "+order+" "+dir+", id "+dir,
		q.Collection)
	if err != nil {
		return nil, internal("query", p, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			id, body         string
			created, updated int64
		)
		if err := rows.Scan(&id, &body, &created, &updated); err != nil {
			return nil, internal("query", p, err)
		}
		d := Document{Path: Doc(q.Collection, id), Body: json.RawMessage(body), CreatedAt: fromMicros(created), UpdatedAt: fromMicros(updated)}
		if !matchesAll(d, q.Where) {
			continue
		}
		out = append(out, d)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, internal("query", p, err)
	}
	return out, nil
}

// inTx runs fn in a transaction.  Errors already typed by the store pass
// through; anything else is reported as internal.
func (s *SQLStore) inTx(ctx context.Context, op string, p Path, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internal(op, p, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		var se *Error
		if errors.As(err, &se) {
			return err
		}
		return internal(op, p, err)
	}
	if err := tx.Commit(); err != nil {
		return internal(op, p, err)
	}
	committed = true
	return nil
}

func matchesAll(d Document, where []Filter) bool {
	for _, f := range where {
		if !f.matches(d) {
			return false
		}
	}
	return true
}

func encode(fields Fields) (string, error) {
	if fields == nil {
		fields = Fields{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeFields(fields Fields) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}
