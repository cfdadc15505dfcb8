package repository

import (
	"context"
	"errors"

	"github.com/dulfinne/User-service/shared/models"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrVersionConflict   = errors.New("account was modified concurrently")
)

// AccountStore is durable keyed storage for accounts. Implementations never
// hand out pointers they keep, so callers may mutate what they receive.
type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindPage(ctx context.Context, offset, limit int) ([]*models.Account, error)
	// Insert fails with ErrDuplicateUsername when the username is taken.
	Insert(ctx context.Context, account *models.Account) error
	// Update writes account only if the stored version still equals
	// account.Version, then stores it as account.Version+1. Any mismatch,
	// including a row that no longer exists, is ErrVersionConflict.
	Update(ctx context.Context, account *models.Account) error
	// Delete fails with ErrNotFound when no row has the id.
	Delete(ctx context.Context, id string) error
}
