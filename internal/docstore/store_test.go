package docstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stickerverse/internal/database"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return NewSQLStore(db)
}

func TestCreateGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, Products, Fields{"name": "Holo Cat", "price_cents": 350})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	d, err := s.Get(ctx, Doc(Products, id))
	require.NoError(t, err)
	assert.Equal(t, "Holo Cat", d.StringField("name"))
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)

	var v struct {
		PriceCents int64 `json:"price_cents"`
	}
	require.NoError(t, d.Decode(&v))
	assert.Equal(t, int64(350), v.PriceCents)
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), Doc(Products, "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Contains(t, err.Error(), "products/nope")
}

func TestUpdate_MergesAndAdvancesTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	frozen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.SetClock(func() time.Time { return frozen })

	id, err := s.Create(ctx, Products, Fields{"name": "Moon", "stock": 4})
	require.NoError(t, err)
	before, err := s.Get(ctx, Doc(Products, id))
	require.NoError(t, err)

	// the clock does not move, the stamp still must
	require.NoError(t, s.Update(ctx, Doc(Products, id), Fields{"stock": 9}))
	after, err := s.Get(ctx, Doc(Products, id))
	require.NoError(t, err)

	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, "Moon", after.StringField("name"))
	raw, ok := after.Field("stock")
	require.True(t, ok)
	assert.JSONEq(t, "9", string(raw))
}

func TestUpdate_EmptyFieldsOnlyTouchesTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, Products, Fields{"name": "Sun", "tags": []string{"sky"}})
	require.NoError(t, err)
	before, err := s.Get(ctx, Doc(Products, id))
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, Doc(Products, id), Fields{}))
	after, err := s.Get(ctx, Doc(Products, id))
	require.NoError(t, err)

	assert.JSONEq(t, string(before.Body), string(after.Body))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateDelete_MissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, Doc(Products, "ghost"), Fields{"name": "x"})
	assert.Equal(t, CodeNotFound, CodeOf(err))

	id, err := s.Create(ctx, Products, Fields{"name": "Once"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, Doc(Products, id)))

	err = s.Delete(ctx, Doc(Products, id))
	assert.True(t, errors.Is(err, ErrNotFound), "second delete must not report success")
}

func TestSet_UpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := Doc(Addresses, "u1")

	require.NoError(t, s.Set(ctx, p, Fields{"city": "Oslo", "line2": "Apt 3"}))
	require.NoError(t, s.Set(ctx, p, Fields{"city": "Bergen"}))

	d, err := s.Get(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Bergen", d.StringField("city"))
	_, hasLine2 := d.Field("line2")
	assert.False(t, hasLine2)
}

func TestQuery_FilterOrderLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tick := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { tick = tick.Add(time.Second); return tick })

	for _, owner := range []string{"a", "b", "a", "a"} {
		_, err := s.Create(ctx, Orders, Fields{"owner_id": owner})
		require.NoError(t, err)
	}

	docs, err := s.Query(ctx, Query{
		Collection: Orders,
		Where:      []Filter{{Field: "owner_id", Value: "a"}},
		OrderBy:    OrderByCreatedAt,
		Desc:       true,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.True(t, docs[0].CreatedAt.After(docs[1].CreatedAt))

	_, err = s.Query(ctx, Query{Collection: Orders, OrderBy: "body"})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestInvalidPath(t *testing.T) {
	s := newTestStore(t)

	err := s.Set(context.Background(), Doc(Users, "a/b"), Fields{})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}
