package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceScale is the number of fractional digits every balance is normalised to.
const BalanceScale = 2

// Account is the write model persisted by the account store.
// Version increases by one on every successful update and guards
// read-modify-write cycles against concurrent writers.
type Account struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Name      string          `json:"name"`
	Surname   string          `json:"surname"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"-"`
	CreatedAt time.Time       `json:"createdTimestamp"`
	UpdatedAt time.Time       `json:"updatedTimestamp"`
}

// Clone returns a copy that can be mutated without touching the original.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

// NormalizeBalance rounds to BalanceScale digits using banker's rounding.
func NormalizeBalance(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(BalanceScale)
}
