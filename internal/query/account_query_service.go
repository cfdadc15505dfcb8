package query

import (
	"context"
	"errors"
	"math"

	"github.com/dulfinne/User-service/internal/repository"
	"github.com/dulfinne/User-service/shared/apperror"
	"github.com/dulfinne/User-service/shared/cqrs"
	"github.com/dulfinne/User-service/shared/models"
)

// AccountReader is the persistence surface the read side needs.
type AccountReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindPage(ctx context.Context, offset, limit int) ([]*models.Account, error)
}

// AccountQueryService serves read requests straight from the repository.
// Every balance it returns is normalised to two decimals.
type AccountQueryService struct {
	repo AccountReader
}

func NewAccountQueryService(repo AccountReader) *AccountQueryService {
	return &AccountQueryService{repo: repo}
}

// ListAccounts returns page number q.Offset (zero-based) of q.Limit accounts
// in storage order. No upper bound is put on the limit here.
func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]*models.AccountView, error) {
	if q.Offset < 0 || q.Limit < 0 {
		return nil, apperror.Validation("Offset and limit must not be negative")
	}

	skip := 0
	if q.Limit > 0 {
		if q.Offset > math.MaxInt/q.Limit {
			return nil, apperror.Validation("Offset is too large for the page size")
		}
		skip = q.Offset * q.Limit
	}

	accounts, err := s.repo.FindPage(ctx, skip, q.Limit)
	if err != nil {
		return nil, apperror.Internal("Failed to list accounts", err)
	}

	views := make([]*models.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, models.ToView(a))
	}
	return views, nil
}

func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	account, err := s.find(ctx, q.Username)
	if err != nil {
		return nil, err
	}
	return models.ToView(account), nil
}

func (s *AccountQueryService) GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
	account, err := s.find(ctx, q.Username)
	if err != nil {
		return nil, err
	}
	return &models.BalanceView{Balance: models.NewMoney(account.Balance)}, nil
}

func (s *AccountQueryService) find(ctx context.Context, username string) (*models.Account, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(username)
	}
	if err != nil {
		return nil, apperror.Internal("Failed to get account", err)
	}
	return account, nil
}
