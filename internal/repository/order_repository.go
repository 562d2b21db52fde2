package repository

import (
	"context"

	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/model"
)

// OrderRepo lists orders.  Orders are created by the fulfilment side;
// this service only reads them.
type OrderRepo struct{ Store docstore.Client }

func NewOrderRepo(s docstore.Client) *OrderRepo { return &OrderRepo{Store: s} }

// ListByOwner returns one principal's orders, newest first.  On the user
// tier this is the only order query the rules allow.
func (r *OrderRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Order, error) {
	return r.list(ctx, []docstore.Filter{{Field: "owner_id", Value: ownerID}})
}

// ListAll returns every order, newest first.  Service tier only.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, nil)
}

func (r *OrderRepo) list(ctx context.Context, where []docstore.Filter) ([]model.Order, error) {
	docs, err := r.Store.Query(ctx, docstore.Query{
		Collection: docstore.Orders,
		Where:      where,
		OrderBy:    docstore.OrderByCreatedAt,
		Desc:       true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		var o model.Order
		if err := d.Decode(&o); err != nil {
			return nil, err
		}
		o.ID = d.Path.ID
		o.CreatedAt = d.CreatedAt
		out = append(out, o)
	}
	return out, nil
}
