// Package docstore is a small document store over a single SQL table.
// Documents are JSON objects addressed by collection and id.  The store
// stamps created_at and updated_at on every write and exposes two
// credential tiers: the service tier (the *SQLStore itself) and a
// user-scoped tier (AsUser) guarded by per-collection access rules.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Path addresses one document.
type Path struct {
	Collection string
	ID         string
}

// Doc is shorthand for Path{collection, id}.
func Doc(collection, id string) Path { return Path{Collection: collection, ID: id} }

func (p Path) String() string { return p.Collection + "/" + p.ID }

func (p Path) valid() bool {
	return p.Collection != "" && p.ID != "" && !strings.Contains(p.ID, "/")
}

// Fields is a set of top-level document fields.  Values must be JSON
// serializable.
type Fields map[string]any

// Document is a stored record.
type Document struct {
	Path      Path
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the body into v.
func (d Document) Decode(v any) error { return json.Unmarshal(d.Body, v) }

// Field returns the raw JSON of a top-level field.
func (d Document) Field(name string) (json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(d.Body, &m); err != nil {
		return nil, false
	}
	raw, ok := m[name]
	return raw, ok
}

// StringField returns a top-level string field, or "" when absent or not a
// string.
func (d Document) StringField(name string) string {
	raw, ok := d.Field(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

// matches compares the JSON encodings, which is exact for the strings and
// integers used as filter values.
func (f Filter) matches(d Document) bool {
	raw, ok := d.Field(f.Field)
	if !ok {
		return false
	}
	want, err := json.Marshal(f.Value)
	if err != nil {
		return false
	}
	var got bytes.Buffer
	if err := json.Compact(&got, raw); err != nil {
		return false
	}
	return bytes.Equal(got.Bytes(), want)
}

// Order columns accepted by Query.
const (
	OrderByID        = "id"
	OrderByCreatedAt = "created_at"
	OrderByUpdatedAt = "updated_at"
)

// Query lists documents of one collection.
type Query struct {
	Collection string
	Where      []Filter
	OrderBy    string // OrderByID (default), OrderByCreatedAt or OrderByUpdatedAt
	Desc       bool
	Limit      int // 0 means no limit
}

// Client is the document store contract shared by both credential tiers.
type Client interface {
	// Get returns the document or a CodeNotFound error.
	Get(ctx context.Context, p Path) (Document, error)
	// Create inserts a document under a generated id and returns the id.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Set creates or fully replaces the document at p.
	Set(ctx context.Context, p Path, fields Fields) error
	// Update merges fields into an existing document; CodeNotFound if absent.
	Update(ctx context.Context, p Path, fields Fields) error
	// Delete removes an existing document; CodeNotFound if absent.
	Delete(ctx context.Context, p Path) error
	// Query lists documents matching q.
	Query(ctx context.Context, q Query) ([]Document, error)
}
