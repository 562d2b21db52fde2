package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/model"
)

// UserRepo reads and writes principals at users/{id}.  The role field of
// the same document is the Role Record.
type UserRepo struct{ Store docstore.Client }

func NewUserRepo(s docstore.Client) *UserRepo { return &UserRepo{Store: s} }

// Create stores a new principal under p.ID.  A missing role defaults to
// user.
func (r *UserRepo) Create(ctx context.Context, p model.Principal) error {
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	return r.Store.Set(ctx, docstore.Doc(docstore.Users, p.ID), docstore.Fields{
		"email":        strings.ToLower(strings.TrimSpace(p.Email)),
		"display_name": p.DisplayName,
		"avatar_url":   p.AvatarURL,
		"role":         string(p.Role),
	})
}

// GetByID fetches a principal by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.Principal, error) {
	d, err := r.Store.Get(ctx, docstore.Doc(docstore.Users, id))
	if err != nil {
		return model.Principal{}, err
	}
	return decodePrincipal(d)
}

// GetByEmail scans for a principal by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	docs, err := r.Store.Query(ctx, docstore.Query{
		Collection: docstore.Users,
		Where:      []docstore.Filter{{Field: "email", Value: email}},
		Limit:      1,
	})
	if err != nil {
		return model.Principal{}, err
	}
	if len(docs) == 0 {
		return model.Principal{}, &docstore.Error{Code: docstore.CodeNotFound, Op: "query", Path: docstore.Users}
	}
	return decodePrincipal(docs[0])
}

// Role returns the raw role field of the Role Record.  Anything other than
// "admin" (including an empty string for a record without the field)
// grants nothing.
func (r *UserRepo) Role(ctx context.Context, id string) (model.Role, error) {
	d, err := r.Store.Get(ctx, docstore.Doc(docstore.Users, id))
	if err != nil {
		return "", err
	}
	return model.Role(d.StringField("role")), nil
}

// SetRole updates only the role field.  The principal must exist.
func (r *UserRepo) SetRole(ctx context.Context, id string, role model.Role) error {
	return r.Store.Update(ctx, docstore.Doc(docstore.Users, id), docstore.Fields{"role": string(role)})
}

// List returns all principals, oldest first.
func (r *UserRepo) List(ctx context.Context) ([]model.Principal, error) {
	docs, err := r.Store.Query(ctx, docstore.Query{Collection: docstore.Users, OrderBy: docstore.OrderByCreatedAt})
	if err != nil {
		return nil, err
	}
	out := make([]model.Principal, 0, len(docs))
	for _, d := range docs {
		p, err := decodePrincipal(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePrincipal(d docstore.Document) (model.Principal, error) {
	var p model.Principal
	if err := d.Decode(&p); err != nil {
		return model.Principal{}, err
	}
	p.ID = d.Path.ID
	p.CreatedAt, p.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return p, nil
}
