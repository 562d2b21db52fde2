package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stickerverse/internal/database"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/repository"
)

const sample = `
products:
  - name: Retro Rocket
    price_cents: 450
    stock: 20
    category: space
    materials: [vinyl, holographic]
  - name: "  Sleepy Cat "
    price_cents: 300
    stock: 5
    tags: [cats, cute]
`

func TestParse_Defaults(t *testing.T) {
	cf, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "1", cf.Version)
	require.Len(t, cf.Products, 2)
	assert.Equal(t, "Sleepy Cat", cf.Products[1].Name)
	assert.Equal(t, []string{DefaultMaterial}, cf.Products[1].Materials)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("products:\n  - name: Bad\n    price_cents: -5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `product 1 ("Bad")`)

	_, err = Parse([]byte("products: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFileAndApply_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	db, err := database.OpenSQLite(filepath.Join(dir, "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	products := repository.NewProductRepo(docstore.NewSQLStore(db))

	cf, err := LoadFile(path)
	require.NoError(t, err)

	n, err := Apply(context.Background(), products, cf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Apply(context.Background(), products, cf)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := products.List(context.Background(), "space")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"vinyl", "holographic"}, all[0].Materials)
}
