package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dulfinne/User-service/shared/models"
	"github.com/lib/pq"
)

const (
	uniqueViolation  = "23505"
	pageCapacityHint = 64
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         UUID PRIMARY KEY,
		username   TEXT NOT NULL,
		name       TEXT NOT NULL,
		surname    TEXT NOT NULL,
		balance    NUMERIC(19,2) NOT NULL DEFAULT 0,
		version    BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_key ON accounts (username)`,
}

// PostgresStore keeps accounts in PostgreSQL. The unique index on username
// is the authoritative uniqueness check.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the accounts table and its username index if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate accounts schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `
		SELECT id, username, name, surname, balance, version, created_at, updated_at
		FROM accounts
		WHERE username = $1
	`
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) FindPage(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	if limit <= 0 {
		return []*models.Account{}, nil
	}

	query := `
		SELECT id, username, name, surname, balance, version, created_at, updated_at
		FROM accounts
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	// limit is unbounded here, so it is only a capacity hint
	accounts := make([]*models.Account, 0, min(limit, pageCapacityHint))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *PostgresStore) Insert(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, name, surname, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Username, account.Name, account.Surname,
		account.Balance, account.Version, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $3, surname = $4, balance = $5, version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		account.ID, account.Version, account.Name, account.Surname, account.Balance, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrVersionConflict
	}
	account.Version++
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID, &account.Username, &account.Name, &account.Surname,
		&account.Balance, &account.Version, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
