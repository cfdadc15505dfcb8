package command

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/dulfinne/User-service/internal/audit"
	"github.com/dulfinne/User-service/internal/repository"
	"github.com/dulfinne/User-service/shared/apperror"
	"github.com/dulfinne/User-service/shared/cqrs"
	"github.com/dulfinne/User-service/shared/events"
	"github.com/dulfinne/User-service/shared/models"
	"github.com/shopspring/decimal"
)

// ---- test doubles ----

type publishedEvent struct {
	stream    string
	eventType string
	data      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{stream: stream, eventType: eventType, data: data})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

// staleStore rejects every update as a version conflict.
type staleStore struct {
	*repository.MemoryStore
	updates int
}

func (s *staleStore) Update(context.Context, *models.Account) error {
	s.updates++
	return repository.ErrVersionConflict
}

// blindRepo hides existing accounts from lookups, so only the store's
// unique index can catch a duplicate.
type blindRepo struct {
	*repository.AccountRepository
}

func (blindRepo) FindByUsername(context.Context, string) (*models.Account, error) {
	return nil, repository.ErrNotFound
}

type fixture struct {
	svc       *AccountCommandService
	repo      *repository.AccountRepository
	publisher *recordingPublisher
	auditLog  *bytes.Buffer
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	repo := repository.NewAccountRepository(repository.NewMemoryStore())
	pub := &recordingPublisher{}
	var buf bytes.Buffer
	svc := NewAccountCommandService(repo, audit.New(log.New(&buf, "", 0)), pub, maxAttempts)
	return &fixture{svc: svc, repo: repo, publisher: pub, auditLog: &buf}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) create(t *testing.T, username string) *models.AccountView {
	t.Helper()
	view, err := f.svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Username: username, Name: "Alice", Surname: "Smith"})
	if err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	return view
}

func (f *fixture) balance(t *testing.T, username string) string {
	t.Helper()
	a, err := f.repo.FindByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	return models.NewMoney(a.Balance).String()
}

// ---- tests ----

func TestCreateAccount(t *testing.T) {
	f := newFixture(t, 5)

	view := f.create(t, "alice123")
	if view.ID == "" || view.Username != "alice123" {
		t.Errorf("unexpected view: %+v", view)
	}
	if view.Balance.String() != "0.00" {
		t.Errorf("expected balance 0.00, got %s", view.Balance)
	}
	if got := f.publisher.types(); len(got) != 1 || got[0] != events.AccountCreated {
		t.Errorf("expected one account.created event, got %v", got)
	}
}

func TestCreateAccountAlreadyExists(t *testing.T) {
	f := newFixture(t, 5)
	f.create(t, "alice123")

	_, err := f.svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Username: "alice123", Name: "Other", Surname: "Person"})
	if !apperror.Is(err, apperror.KindAlreadyExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	if err.Error() != "User already exists: username = alice123" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	stored, _ := f.repo.FindByUsername(context.Background(), "alice123")
	if stored.Name != "Alice" || stored.Surname != "Smith" {
		t.Errorf("existing account changed: %+v", stored)
	}
}

func TestCreateAccountDuplicateCaughtByStore(t *testing.T) {
	repo := repository.NewAccountRepository(repository.NewMemoryStore())
	svc := NewAccountCommandService(blindRepo{repo}, nil, &recordingPublisher{}, 5)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, cqrs.CreateAccountCommand{Username: "bob", Name: "Bob", Surname: "B"}); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}
	_, err := svc.CreateAccount(ctx, cqrs.CreateAccountCommand{Username: "bob", Name: "Bob", Surname: "B"})
	if !apperror.Is(err, apperror.KindAlreadyExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	if !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Errorf("expected storage cause to be kept, got %v", err)
	}
	if err.Error() != "User already exists: username = bob" {
		t.Errorf("expected the pre-check message, got %q", err.Error())
	}
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t, 5)
	created := f.create(t, "alice123")
	if _, err := f.svc.CreditAccount(context.Background(), cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("12.5")}); err != nil {
		t.Fatalf("CreditAccount returned error: %v", err)
	}
	f.auditLog.Reset()

	view, err := f.svc.UpdateAccount(context.Background(), cqrs.UpdateAccountCommand{Username: "alice123", Name: "Alicia", Surname: "Jones"})
	if err != nil {
		t.Fatalf("UpdateAccount returned error: %v", err)
	}
	if view.ID != created.ID || view.Balance.String() != "12.50" {
		t.Errorf("id or balance changed: %+v", view)
	}
	if view.Name != "Alicia" || view.Surname != "Jones" {
		t.Errorf("name not updated: %+v", view)
	}

	want := "Changes detected for user 'alice123': name: Alice -> Alicia; surname: Smith -> Jones"
	if got := strings.TrimSpace(f.auditLog.String()); got != want {
		t.Errorf("audit log = %q, want %q", got, want)
	}
}

func TestMutationsOnMissingAccount(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"update", func() error {
			_, err := f.svc.UpdateAccount(ctx, cqrs.UpdateAccountCommand{Username: "ghost", Name: "G", Surname: "H"})
			return err
		}},
		{"delete", func() error {
			return f.svc.DeleteAccount(ctx, cqrs.DeleteAccountCommand{Username: "ghost"})
		}},
		{"credit", func() error {
			_, err := f.svc.CreditAccount(ctx, cqrs.CreditAccountCommand{Username: "ghost", Amount: dec("5")})
			return err
		}},
		{"debit", func() error {
			_, err := f.svc.DebitAccount(ctx, cqrs.DebitAccountCommand{Username: "ghost", Amount: dec("5")})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !apperror.Is(err, apperror.KindNotFound) {
				t.Fatalf("expected NotFound, got %v", err)
			}
			if err.Error() != "User not found: username = ghost" {
				t.Errorf("unexpected message: %q", err.Error())
			}
		})
	}
	if f.auditLog.Len() != 0 {
		t.Errorf("failed mutations must not be audited, got %q", f.auditLog.String())
	}
}

func TestCreditAndDebitArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		op      string
		amount  string
		want    string
		wantErr apperror.Kind
	}{
		{"credit", "0", "credit", "50", "50.00", 0},
		{"credit fraction", "10.10", "credit", "3.05", "13.15", 0},
		{"debit", "50", "debit", "20", "30.00", 0},
		{"debit to zero", "30", "debit", "30", "0.00", 0},
		{"debit over balance", "30", "debit", "31", "30.00", apperror.KindActionNotAllowed},
		{"debit just over", "30", "debit", "30.01", "30.00", apperror.KindActionNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 5)
			ctx := context.Background()
			f.create(t, "alice123")
			if start := dec(tt.start); start.IsPositive() {
				if _, err := f.svc.CreditAccount(ctx, cqrs.CreditAccountCommand{Username: "alice123", Amount: start}); err != nil {
					t.Fatalf("seed credit: %v", err)
				}
			}

			var err error
			if tt.op == "credit" {
				_, err = f.svc.CreditAccount(ctx, cqrs.CreditAccountCommand{Username: "alice123", Amount: dec(tt.amount)})
			} else {
				_, err = f.svc.DebitAccount(ctx, cqrs.DebitAccountCommand{Username: "alice123", Amount: dec(tt.amount)})
			}

			if tt.wantErr != 0 {
				if !apperror.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.balance(t, "alice123"); got != tt.want {
				t.Errorf("balance = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDebitNotAllowedMessage(t *testing.T) {
	f := newFixture(t, 5)
	f.create(t, "alice123")

	_, err := f.svc.DebitAccount(context.Background(), cqrs.DebitAccountCommand{Username: "alice123", Amount: dec("5")})
	if err == nil || err.Error() != "The amount should be less than 0.00" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t, 5)
	f.create(t, "alice123")

	_, err := f.svc.CreditAccount(context.Background(), cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("-1")})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = f.svc.DebitAccount(context.Background(), cqrs.DebitAccountCommand{Username: "alice123", Amount: decimal.Zero})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	f.create(t, "alice123")

	if err := f.svc.DeleteAccount(ctx, cqrs.DeleteAccountCommand{Username: "alice123"}); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}
	if _, err := f.repo.FindByUsername(ctx, "alice123"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected account to be gone, got %v", err)
	}
	if got := f.publisher.types(); got[len(got)-1] != events.AccountDeleted {
		t.Errorf("expected account.deleted last, got %v", got)
	}
}

func TestAliceScenario(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	created := f.create(t, "alice123")
	if created.Balance.String() != "0.00" {
		t.Fatalf("expected 0.00 after create, got %s", created.Balance)
	}

	view, err := f.svc.CreditAccount(ctx, cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("50.00")})
	if err != nil || view.Balance.String() != "50.00" {
		t.Fatalf("credit: balance %v, err %v", view, err)
	}

	view, err = f.svc.DebitAccount(ctx, cqrs.DebitAccountCommand{Username: "alice123", Amount: dec("20.00")})
	if err != nil || view.Balance.String() != "30.00" {
		t.Fatalf("debit: balance %v, err %v", view, err)
	}

	_, err = f.svc.DebitAccount(ctx, cqrs.DebitAccountCommand{Username: "alice123", Amount: dec("31.00")})
	if !apperror.Is(err, apperror.KindActionNotAllowed) {
		t.Fatalf("expected ActionNotAllowed, got %v", err)
	}
	if got := f.balance(t, "alice123"); got != "30.00" {
		t.Fatalf("balance changed after rejected debit: %s", got)
	}

	if err := f.svc.DeleteAccount(ctx, cqrs.DeleteAccountCommand{Username: "alice123"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = f.repo.FindByUsername(ctx, "alice123")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	want := []string{events.AccountCreated, events.BalanceUpdated, events.BalanceUpdated, events.AccountDeleted}
	got := f.publisher.types()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}

	lines := strings.Split(strings.TrimSpace(f.auditLog.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %q", f.auditLog.String())
	}
	if lines[0] != "Changes detected for user 'alice123': balance: 0.00 -> 50.00" {
		t.Errorf("unexpected audit line: %q", lines[0])
	}
	if lines[1] != "Changes detected for user 'alice123': balance: 50.00 -> 30.00" {
		t.Errorf("unexpected audit line: %q", lines[1])
	}
}

func TestBalanceUpdatedEvent(t *testing.T) {
	f := newFixture(t, 5)
	f.create(t, "alice123")

	if _, err := f.svc.CreditAccount(context.Background(), cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("7.5")}); err != nil {
		t.Fatalf("CreditAccount returned error: %v", err)
	}

	last := f.publisher.events[len(f.publisher.events)-1]
	if last.stream != events.AccountEventsStream {
		t.Errorf("expected stream %s, got %s", events.AccountEventsStream, last.stream)
	}
	data, ok := last.data.(events.BalanceUpdatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", last.data)
	}
	if data.Operation != events.OperationCredit || data.Amount.String() != "7.50" || data.NewBalance.String() != "7.50" {
		t.Errorf("unexpected payload: %+v", data)
	}
	if len(data.Changes) != 1 || data.Changes[0].Field != "balance" {
		t.Errorf("unexpected changes: %+v", data.Changes)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, 5)
	f.publisher.err = errors.New("bus down")

	f.create(t, "alice123")
	if _, err := f.svc.CreditAccount(context.Background(), cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("10")}); err != nil {
		t.Fatalf("CreditAccount returned error: %v", err)
	}
	if got := f.balance(t, "alice123"); got != "10.00" {
		t.Errorf("balance = %s, want 10.00", got)
	}
}

func TestConcurrentCreditsAreNotLost(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    string
	}{
		{"two credits", 2, "20.00"},
		{"ten credits", 10, "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// every failed attempt means another worker committed, so
			// workers attempts are always enough
			f := newFixture(t, tt.workers)
			f.create(t, "alice123")

			var wg sync.WaitGroup
			errs := make(chan error, tt.workers)
			for i := 0; i < tt.workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.svc.CreditAccount(context.Background(), cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("10")})
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Fatalf("CreditAccount returned error: %v", err)
				}
			}
			if got := f.balance(t, "alice123"); got != tt.want {
				t.Errorf("balance = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRetriesExhausted(t *testing.T) {
	store := &staleStore{MemoryStore: repository.NewMemoryStore()}
	repo := repository.NewAccountRepository(store)
	svc := NewAccountCommandService(repo, nil, &recordingPublisher{}, 3)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, cqrs.CreateAccountCommand{Username: "alice123", Name: "Alice", Surname: "Smith"}); err != nil {
		t.Fatalf("CreateAccount returned error: %v", err)
	}

	_, err := svc.CreditAccount(ctx, cqrs.CreditAccountCommand{Username: "alice123", Amount: dec("10")})
	if apperror.KindOf(err) != apperror.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected version conflict cause, got %v", err)
	}
	if store.updates != 3 {
		t.Errorf("expected 3 attempts, got %d", store.updates)
	}
}
