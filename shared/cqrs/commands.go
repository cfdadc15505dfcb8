package cqrs

import "github.com/shopspring/decimal"

// CreateAccountCommand opens an account for the authenticated username.
type CreateAccountCommand struct {
	Username string
	Name     string
	Surname  string
}

// UpdateAccountCommand overwrites name and surname; balance and id are untouched.
type UpdateAccountCommand struct {
	Username string
	Name     string
	Surname  string
}

type DeleteAccountCommand struct {
	Username string
}

// CreditAccountCommand adds Amount to the balance. Amount bounds are checked
// by the transport layer before the command is built.
type CreditAccountCommand struct {
	Username string
	Amount   decimal.Decimal
}

// DebitAccountCommand subtracts Amount from the balance if it is covered.
type DebitAccountCommand struct {
	Username string
	Amount   decimal.Decimal
}
