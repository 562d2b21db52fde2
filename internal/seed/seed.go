// Package seed loads catalog items from a YAML file.  It is used by
// stickerctl to stock a fresh store.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/stickerverse/internal/model"
)

// CatalogFile is the seed file layout.
//
//	version: "1"
//	products:
//	  - name: Retro Rocket
//	    price_cents: 450
//	    stock: 20
//	    category: space
//	    materials: [vinyl, holographic]
type CatalogFile struct {
	Version  string        `yaml:"version"`
	Products []ProductSeed `yaml:"products"`
}

// ProductSeed is one catalog item in a seed file.
type ProductSeed struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	PriceCents  int64    `yaml:"price_cents"`
	Stock       int64    `yaml:"stock"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Images      []string `yaml:"images"`
	Materials   []string `yaml:"materials"`
}

// DefaultMaterial is used for items that list no materials.
const DefaultMaterial = "vinyl"

// LoadFile loads and parses a YAML seed file from the given path.
func LoadFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates YAML seed data.
func Parse(data []byte) (*CatalogFile, error) {
	var cf CatalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	applyDefaults(&cf)
	for i, p := range cf.Products {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("product %d (%q): %w", i+1, p.Name, err)
		}
	}
	return &cf, nil
}

func applyDefaults(cf *CatalogFile) {
	if cf.Version == "" {
		cf.Version = "1"
	}
	for i := range cf.Products {
		p := &cf.Products[i]
		p.Name = strings.TrimSpace(p.Name)
		if len(p.Materials) == 0 {
			p.Materials = []string{DefaultMaterial}
		}
	}
}

func validate(p ProductSeed) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("name is required")
	case p.PriceCents < 0:
		return fmt.Errorf("price_cents must not be negative")
	case p.Stock < 0:
		return fmt.Errorf("stock must not be negative")
	}
	return nil
}

// Product converts a seed entry to a catalog item.
func (p ProductSeed) Product() model.Product {
	return model.Product{
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		Category:    p.Category,
		Tags:        p.Tags,
		Images:      p.Images,
		Materials:   p.Materials,
	}
}

// Catalog is the write side the seeder needs.  *repository.ProductRepo
// implements it.
type Catalog interface {
	List(ctx context.Context, category string) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (string, error)
}

// Apply creates every product whose name is not already in the catalog
// and returns how many were created.  Running it twice is harmless.
func Apply(ctx context.Context, catalog Catalog, cf *CatalogFile) (int, error) {
	existing, err := catalog.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list catalog: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[strings.ToLower(p.Name)] = true
	}
	created := 0
	for _, s := range cf.Products {
		key := strings.ToLower(s.Name)
		if have[key] {
			continue
		}
		if _, err := catalog.Create(ctx, s.Product()); err != nil {
			return created, fmt.Errorf("create %q: %w", s.Name, err)
		}
		have[key] = true
		created++
	}
	return created, nil
}
