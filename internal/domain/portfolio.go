package domain

import "time"

type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

type Investment struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Plan        string           `json:"plan"`
	AmountCents int64            `json:"amount_cents"`
	Currency    string           `json:"currency"`
	Status      InvestmentStatus `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	MaturesAt   *time.Time       `json:"matures_at,omitempty"`
}

type TransactionKind string

const (
	TransactionDeposit    TransactionKind = "deposit"
	TransactionWithdrawal TransactionKind = "withdrawal"
	TransactionProfit     TransactionKind = "profit"
	TransactionFee        TransactionKind = "fee"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Kind        TransactionKind   `json:"kind"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Status      TransactionStatus `json:"status"`
	Reference   string            `json:"reference,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CurrencyTotals agrupa los montos de una sola moneda; nunca se suman monedas distintas.
type CurrencyTotals struct {
	Currency              string `json:"currency"`
	TotalInvestedCents    int64  `json:"total_invested_cents"`
	TotalDepositsCents    int64  `json:"total_deposits_cents"`
	TotalWithdrawalsCents int64  `json:"total_withdrawals_cents"`
	TotalProfitCents      int64  `json:"total_profit_cents"`
}

// DashboardSummary resume el portafolio de un cliente.
type DashboardSummary struct {
	ActiveInvestments  int              `json:"active_investments"`
	Totals             []CurrencyTotals `json:"totals"`
	RecentTransactions []Transaction    `json:"recent_transactions"`
}
