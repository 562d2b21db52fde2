package repository

import (
	"context"

	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/model"
)

// AddressRepo reads and upserts the single address stored at
// addresses/{principal id}.
type AddressRepo struct{ Store docstore.Client }

func NewAddressRepo(s docstore.Client) *AddressRepo { return &AddressRepo{Store: s} }

// Get returns the principal's address.
func (r *AddressRepo) Get(ctx context.Context, principalID string) (model.Address, error) {
	d, err := r.Store.Get(ctx, docstore.Doc(docstore.Addresses, principalID))
	if err != nil {
		return model.Address{}, err
	}
	var a model.Address
	if err := d.Decode(&a); err != nil {
		return model.Address{}, err
	}
	a.UpdatedAt = d.UpdatedAt
	return a, nil
}

// Save replaces the principal's address.
func (r *AddressRepo) Save(ctx context.Context, principalID string, a model.Address) error {
	return r.Store.Set(ctx, docstore.Doc(docstore.Addresses, principalID), docstore.Fields{
		"full_name":   a.FullName,
		"line1":       a.Line1,
		"line2":       a.Line2,
		"city":        a.City,
		"state":       a.State,
		"postal_code": a.PostalCode,
		"country":     a.Country,
		"phone":       a.Phone,
	})
}
