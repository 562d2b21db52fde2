// Package repository gives typed access to the storefront collections on
// top of a docstore.Client.  Each repo works with whichever credential
// tier it is constructed with: handlers build self-service repos over
// store.AsUser(id) and privileged ones over the service tier.
//
// Errors from the store are returned as they are (a *docstore.Error with
// its code), so higher layers can tell a missing document from a rule
// rejection without the repository inventing its own taxonomy.
package repository

import (
	"errors"

	"github.com/iliyamo/stickerverse/internal/docstore"
)

// ErrEmailExists is returned when signing up with an email that already
// has an account.
var ErrEmailExists = errors.New("email already exists")

// IsNotFound reports whether err is a store not-found failure.
func IsNotFound(err error) bool { return errors.Is(err, docstore.ErrNotFound) }
