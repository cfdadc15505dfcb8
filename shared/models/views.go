package models

import (
	"github.com/shopspring/decimal"
)

// Money renders a decimal with a fixed two-digit scale, both in JSON (as a
// number, e.g. 30.00) and in log output.
type Money struct {
	decimal.Decimal
}

// NewMoney normalises d before wrapping it.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: NormalizeBalance(d)}
}

func (m Money) String() string {
	return m.StringFixedBank(BalanceScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// Equal compares numerically, so 30 and 30.00 are the same amount.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// AccountView is the read projection returned to callers.
// Field order is the canonical order used when describing changes.
type AccountView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Balance  Money  `json:"balance"`
}

// BalanceView is the response of a balance lookup.
type BalanceView struct {
	Balance Money `json:"balance"`
}

// ToView converts the write model into the caller-facing projection.
func ToView(a *Account) *AccountView {
	if a == nil {
		return nil
	}
	return &AccountView{
		ID:       a.ID,
		Username: a.Username,
		Name:     a.Name,
		Surname:  a.Surname,
		Balance:  NewMoney(a.Balance),
	}
}

// FieldChange is one entry of a change record: a field whose value differs
// between two snapshots of the same account.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}
