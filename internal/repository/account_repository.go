package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/stickerverse/internal/docstore"
)

// Account is the identity provider's private credential record.
type Account struct {
	Email        string
	PrincipalID  string
	PasswordHash string
}

// AccountRepo stores accounts at accounts/{normalized email}.  It must be
// given the service tier; the user tier cannot see this collection.
type AccountRepo struct{ Store docstore.Client }

func NewAccountRepo(s docstore.Client) *AccountRepo { return &AccountRepo{Store: s} }

// NormalizeEmail lower-cases and trims an email for use as a key.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts an account, failing with ErrEmailExists if the email is
// taken.
func (r *AccountRepo) Create(ctx context.Context, a Account) error {
	email := NormalizeEmail(a.Email)
	p := docstore.Doc(docstore.Accounts, email)
	if _, err := r.Store.Get(ctx, p); err == nil {
		return ErrEmailExists
	} else if !IsNotFound(err) {
		return err
	}
	return r.Store.Set(ctx, p, docstore.Fields{
		"principal_id":  a.PrincipalID,
		"password_hash": a.PasswordHash,
	})
}

// GetByEmail fetches the account for email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	email = NormalizeEmail(email)
	d, err := r.Store.Get(ctx, docstore.Doc(docstore.Accounts, email))
	if err != nil {
		return Account{}, err
	}
	return Account{
		Email:        email,
		PrincipalID:  d.StringField("principal_id"),
		PasswordHash: d.StringField("password_hash"),
	}, nil
}
