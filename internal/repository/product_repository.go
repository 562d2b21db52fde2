package repository

import (
	"context"

	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/model"
)

// ProductRepo manages catalog items at products/{id}.
type ProductRepo struct{ Store docstore.Client }

func NewProductRepo(s docstore.Client) *ProductRepo { return &ProductRepo{Store: s} }

// Create inserts a product and returns its generated id.  ID and the
// timestamps of p are ignored; the store assigns them.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (string, error) {
	return r.Store.Create(ctx, docstore.Products, productFields(p))
}

// Get fetches one product.
func (r *ProductRepo) Get(ctx context.Context, id string) (model.Product, error) {
	d, err := r.Store.Get(ctx, docstore.Doc(docstore.Products, id))
	if err != nil {
		return model.Product{}, err
	}
	return decodeProduct(d)
}

// List returns products newest first, optionally restricted to one
// category.
func (r *ProductRepo) List(ctx context.Context, category string) ([]model.Product, error) {
	q := docstore.Query{Collection: docstore.Products, OrderBy: docstore.OrderByCreatedAt, Desc: true}
	if category != "" {
		q.Where = []docstore.Filter{{Field: "category", Value: category}}
	}
	docs, err := r.Store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		p, err := decodeProduct(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update merges the non-nil fields of patch.  An empty patch still
// advances updated_at.
func (r *ProductRepo) Update(ctx context.Context, id string, patch model.ProductPatch) error {
	return r.Store.Update(ctx, docstore.Doc(docstore.Products, id), patchFields(patch))
}

// Delete removes a product; a missing id is a not-found failure.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return r.Store.Delete(ctx, docstore.Doc(docstore.Products, id))
}

func productFields(p model.Product) docstore.Fields {
	return docstore.Fields{
		"name":        p.Name,
		"description": p.Description,
		"price_cents": p.PriceCents,
		"stock":       p.Stock,
		"category":    p.Category,
		"tags":        nonNil(p.Tags),
		"images":      nonNil(p.Images),
		"materials":   nonNil(p.Materials),
	}
}

func patchFields(p model.ProductPatch) docstore.Fields {
	f := docstore.Fields{}
	if p.Name != nil {
		f["name"] = *p.Name
	}
	if p.Description != nil {
		f["description"] = *p.Description
	}
	if p.PriceCents != nil {
		f["price_cents"] = *p.PriceCents
	}
	if p.Stock != nil {
		f["stock"] = *p.Stock
	}
	if p.Category != nil {
		f["category"] = *p.Category
	}
	if p.Tags != nil {
		f["tags"] = nonNil(*p.Tags)
	}
	if p.Images != nil {
		f["images"] = nonNil(*p.Images)
	}
	if p.Materials != nil {
		f["materials"] = nonNil(*p.Materials)
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeProduct(d docstore.Document) (model.Product, error) {
	var p model.Product
	if err := d.Decode(&p); err != nil {
		return model.Product{}, err
	}
	p.ID = d.Path.ID
	p.CreatedAt, p.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return p, nil
}
