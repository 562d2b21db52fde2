package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stickerverse/internal/database"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/model"
)

func newStore(t *testing.T) *docstore.SQLStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return docstore.NewSQLStore(db)
}

func strp(s string) *string { return &s }

func TestProductRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepo(newStore(t))

	id, err := repo.Create(ctx, model.Product{
		Name: "Cactus", PriceCents: 299, Stock: 10, Category: "plants",
		Materials: []string{"vinyl", "matte"},
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, []string{"vinyl", "matte"}, got.Materials)
	assert.Equal(t, []string{}, got.Tags)

	require.NoError(t, repo.Update(ctx, id, model.ProductPatch{Name: strp("Big Cactus")}))
	got2, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Big Cactus", got2.Name)
	assert.Equal(t, int64(299), got2.PriceCents)
	assert.True(t, got2.UpdatedAt.After(got.UpdatedAt))

	_, err = repo.Create(ctx, model.Product{Name: "Comet", Category: "space", Materials: []string{"vinyl"}})
	require.NoError(t, err)
	plants, err := repo.List(ctx, "plants")
	require.NoError(t, err)
	require.Len(t, plants, 1)
	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, id))
	assert.True(t, IsNotFound(repo.Delete(ctx, id)))
}

func TestUserRepo_RoleRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newStore(t))

	_, err := repo.Role(ctx, "nobody")
	assert.True(t, IsNotFound(err))

	require.NoError(t, repo.Create(ctx, model.Principal{ID: "p1", Email: " Ann@Example.COM "}))
	role, err := repo.Role(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	require.NoError(t, repo.SetRole(ctx, "p1", model.RoleAdmin))
	p, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.True(t, p.IsAdmin())

	assert.True(t, IsNotFound(repo.SetRole(ctx, "ghost", model.RoleAdmin)))
}

func TestAccountRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newStore(t))

	require.NoError(t, repo.Create(ctx, Account{Email: "Bo@x.io", PrincipalID: "p1", PasswordHash: "h"}))
	assert.ErrorIs(t, repo.Create(ctx, Account{Email: "bo@x.io", PrincipalID: "p2"}), ErrEmailExists)

	a, err := repo.GetByEmail(ctx, "BO@X.IO")
	require.NoError(t, err)
	assert.Equal(t, "p1", a.PrincipalID)
}

func TestAddressAndOrders_UserTier(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	addr := NewAddressRepo(s.AsUser("p1"))
	require.NoError(t, addr.Save(ctx, "p1", model.Address{FullName: "P One", City: "Porto"}))
	a, err := addr.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Porto", a.City)
	assert.False(t, a.UpdatedAt.IsZero())

	err = addr.Save(ctx, "p2", model.Address{City: "Faro"})
	assert.Equal(t, docstore.CodePermissionDenied, docstore.CodeOf(err))

	for _, owner := range []string{"p1", "p2", "p1"} {
		_, err := s.Create(ctx, docstore.Orders, docstore.Fields{"owner_id": owner, "status": "pending", "total_cents": 100})
		require.NoError(t, err)
	}
	mine, err := NewOrderRepo(s.AsUser("p1")).ListByOwner(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.Equal(t, model.OrderPending, mine[0].Status)

	all, err := NewOrderRepo(s).ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
