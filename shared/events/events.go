package events

import (
	"time"

	"github.com/dulfinne/User-service/shared/models"
)

// Event types
const (
	AccountCreated = "account.created"
	AccountUpdated = "account.updated"
	AccountDeleted = "account.deleted"
	BalanceUpdated = "balance.updated"
)

// AccountEventsStream is the Redis stream and AMQP routing key all account
// events are published on.
const AccountEventsStream = "account.events"

// Balance operations carried by BalanceUpdatedEvent.
const (
	OperationCredit = "credit"
	OperationDebit  = "debit"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type AccountCreatedEvent struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
}

type AccountUpdatedEvent struct {
	AccountID string               `json:"accountId"`
	Username  string               `json:"username"`
	Changes   []models.FieldChange `json:"changes"`
}

type AccountDeletedEvent struct {
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
}

type BalanceUpdatedEvent struct {
	AccountID  string               `json:"accountId"`
	Username   string               `json:"username"`
	Operation  string               `json:"operation"`
	Amount     models.Money         `json:"amount"`
	NewBalance models.Money         `json:"newBalance"`
	Changes    []models.FieldChange `json:"changes"`
}
