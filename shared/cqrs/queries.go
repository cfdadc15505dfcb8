package cqrs

// ListAccountsQuery fetches one page of accounts in storage order. Offset is
// the zero-based page index, so the page starts at record Offset*Limit.
type ListAccountsQuery struct {
	Offset int
	Limit  int
}

// GetAccountQuery fetches a single account by username.
type GetAccountQuery struct {
	Username string
}

// GetBalanceQuery fetches only the normalised balance of an account.
type GetBalanceQuery struct {
	Username string
}
