package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dulfinne/User-service/internal/audit"
	"github.com/dulfinne/User-service/internal/repository"
	"github.com/dulfinne/User-service/shared/apperror"
	"github.com/dulfinne/User-service/shared/cqrs"
	"github.com/dulfinne/User-service/shared/events"
	"github.com/dulfinne/User-service/shared/models"
	"github.com/shopspring/decimal"
)

// AccountRepository is the persistence surface the command side needs.
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
	Delete(ctx context.Context, account *models.Account) error
}

// AccountCommandService owns every account mutation. Updates run as
// fetch, compute, conditional save, and are retried when another writer
// got there first.
type AccountCommandService struct {
	repo        AccountRepository
	auditor     *audit.Auditor
	publisher   events.Publisher
	maxAttempts int
}

func NewAccountCommandService(
	repo AccountRepository,
	auditor *audit.Auditor,
	publisher events.Publisher,
	maxAttempts int,
) *AccountCommandService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if auditor == nil {
		auditor = audit.New(nil)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AccountCommandService{
		repo:        repo,
		auditor:     auditor,
		publisher:   publisher,
		maxAttempts: maxAttempts,
	}
}

// CreateAccount opens a zero-balance account. The lookup only produces a
// friendlier error; the store's unique index decides races, and its
// rejection is reported the same way.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.AccountView, error) {
	_, err := s.repo.FindByUsername(ctx, cmd.Username)
	if err == nil {
		return nil, apperror.AlreadyExists(cmd.Username, nil)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal("Failed to look up account", err)
	}

	saved, err := s.repo.Save(ctx, &models.Account{
		Username: cmd.Username,
		Name:     cmd.Name,
		Surname:  cmd.Surname,
		Balance:  decimal.Zero,
	})
	if errors.Is(err, repository.ErrDuplicateUsername) {
		return nil, apperror.AlreadyExists(cmd.Username, err)
	}
	if err != nil {
		return nil, apperror.Internal("Failed to create account", err)
	}

	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		AccountID: saved.ID,
		Username:  saved.Username,
		Name:      saved.Name,
		Surname:   saved.Surname,
	})
	return models.ToView(saved), nil
}

// UpdateAccount replaces name and surname. Balance and id are kept.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*models.AccountView, error) {
	before, after, err := s.mutate(ctx, cmd.Username, func(a *models.Account) error {
		a.Name = cmd.Name
		a.Surname = cmd.Surname
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := models.ToView(after)
	changes := s.auditor.Record(cmd.Username, models.ToView(before), view)
	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountID: after.ID,
		Username:  after.Username,
		Changes:   changes,
	})
	return view, nil
}

func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	account, err := s.find(ctx, cmd.Username)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(cmd.Username)
		}
		return apperror.Internal("Failed to delete account", err)
	}

	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID: account.ID,
		Username:  account.Username,
	})
	return nil
}

// CreditAccount adds amount to the balance. There is no upper bound.
func (s *AccountCommandService) CreditAccount(ctx context.Context, cmd cqrs.CreditAccountCommand) (*models.AccountView, error) {
	if !cmd.Amount.IsPositive() {
		return nil, apperror.Validation("Amount must be positive")
	}
	return s.changeBalance(ctx, cmd.Username, events.OperationCredit, cmd.Amount, func(a *models.Account) error {
		a.Balance = models.NormalizeBalance(a.Balance.Add(cmd.Amount))
		return nil
	})
}

// DebitAccount subtracts amount. Debiting the whole balance is allowed;
// anything more fails and leaves the account untouched.
func (s *AccountCommandService) DebitAccount(ctx context.Context, cmd cqrs.DebitAccountCommand) (*models.AccountView, error) {
	if !cmd.Amount.IsPositive() {
		return nil, apperror.Validation("Amount must be positive")
	}
	return s.changeBalance(ctx, cmd.Username, events.OperationDebit, cmd.Amount, func(a *models.Account) error {
		if cmd.Amount.GreaterThan(a.Balance) {
			return apperror.ActionNotAllowed(fmt.Sprintf(apperror.DebitNotEnoughMoney, models.NewMoney(a.Balance)))
		}
		a.Balance = models.NormalizeBalance(a.Balance.Sub(cmd.Amount))
		return nil
	})
}

func (s *AccountCommandService) changeBalance(
	ctx context.Context,
	username, operation string,
	amount decimal.Decimal,
	apply func(*models.Account) error,
) (*models.AccountView, error) {
	before, after, err := s.mutate(ctx, username, apply)
	if err != nil {
		return nil, err
	}

	view := models.ToView(after)
	changes := s.auditor.Record(username, models.ToView(before), view)
	s.publish(ctx, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountID:  after.ID,
		Username:   after.Username,
		Operation:  operation,
		Amount:     models.NewMoney(amount),
		NewBalance: view.Balance,
		Changes:    changes,
	})
	return view, nil
}

// mutate runs fetch, apply, save until the save is not rejected as stale or
// the attempt budget is spent. It returns the state read by the successful
// attempt together with the persisted result.
func (s *AccountCommandService) mutate(
	ctx context.Context,
	username string,
	apply func(*models.Account) error,
) (before, after *models.Account, err error) {
	for attempt := 1; ; attempt++ {
		current, err := s.find(ctx, username)
		if err != nil {
			return nil, nil, err
		}

		next := current.Clone()
		if err := apply(next); err != nil {
			return nil, nil, err
		}

		saved, err := s.repo.Save(ctx, next)
		if err == nil {
			return current, saved, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, nil, apperror.Internal("Failed to save account", err)
		}
		if attempt >= s.maxAttempts {
			return nil, nil, apperror.Internal("Account is being modified concurrently, try again", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, apperror.Internal("Request cancelled", ctxErr)
		}
		log.Printf("Concurrent update on account %s, retrying (attempt %d/%d)", username, attempt+1, s.maxAttempts)
	}
}

func (s *AccountCommandService) find(ctx context.Context, username string) (*models.Account, error) {
	account, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(username)
	}
	if err != nil {
		return nil, apperror.Internal("Failed to look up account", err)
	}
	return account, nil
}

func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, data); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
