package repository

import (
	"context"
	"time"

	"github.com/dulfinne/User-service/shared/models"
	"github.com/google/uuid"
)

// AccountRepository is the only path from the services to an AccountStore.
// It assigns ids and timestamps and decides between insert and update.
type AccountRepository struct {
	store AccountStore
	now   func() time.Time
}

func NewAccountRepository(store AccountStore) *AccountRepository {
	return &AccountRepository{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.store.FindByUsername(ctx, username)
}

func (r *AccountRepository) FindPage(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	return r.store.FindPage(ctx, offset, limit)
}

// Save inserts an account without an id and updates one that has it. The
// argument is left untouched; the persisted state is returned.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	saved := account.Clone()
	saved.Balance = models.NormalizeBalance(saved.Balance)
	saved.UpdatedAt = r.now()

	if saved.ID == "" {
		saved.ID = uuid.NewString()
		saved.Version = 0
		saved.CreatedAt = saved.UpdatedAt
		if err := r.store.Insert(ctx, saved); err != nil {
			return nil, err
		}
		return saved, nil
	}

	if err := r.store.Update(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *AccountRepository) Delete(ctx context.Context, account *models.Account) error {
	return r.store.Delete(ctx, account.ID)
}
