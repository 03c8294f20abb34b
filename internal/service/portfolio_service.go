package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"asset-portal/internal/domain"
	"asset-portal/internal/repository"
)

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 200
	recentTransactions      = 5
)

// PortfolioService expone las inversiones y transacciones de cada cliente.
type PortfolioService struct {
	logger     *zap.Logger
	portfolio  repository.PortfolioRepository
	identities repository.IdentityRepository
	now        func() time.Time
}

func NewPortfolioService(logger *zap.Logger, portfolio repository.PortfolioRepository, identities repository.IdentityRepository) *PortfolioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioService{
		logger:     logger,
		portfolio:  portfolio,
		identities: identities,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *PortfolioService) Investments(ctx context.Context, userID string) ([]domain.Investment, error) {
	investments, err := s.portfolio.ListInvestments(ctx, userID)
	if err != nil {
		return nil, storeError("list investments", err)
	}
	if investments == nil {
		investments = []domain.Investment{}
	}
	return investments, nil
}

// Transactions devuelve las más recientes primero; limit 0 usa DefaultTransactionLimit.
func (s *PortfolioService) Transactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if limit == 0 {
		limit = DefaultTransactionLimit
	}
	if limit < 0 || limit > MaxTransactionLimit {
		return nil, invalidInput("limit", "limit must be between 1 and 200")
	}
	txs, err := s.portfolio.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

// Dashboard suma inversiones activas y transacciones completadas, por moneda.
func (s *PortfolioService) Dashboard(ctx context.Context, userID string) (domain.DashboardSummary, error) {
	investments, err := s.portfolio.ListInvestments(ctx, userID)
	if err != nil {
		return domain.DashboardSummary{}, storeError("list investments", err)
	}
	txs, err := s.portfolio.ListTransactions(ctx, userID, 0)
	if err != nil {
		return domain.DashboardSummary{}, storeError("list transactions", err)
	}

	byCurrency := make(map[string]*domain.CurrencyTotals)
	totalsFor := func(currency string) *domain.CurrencyTotals {
		t, ok := byCurrency[currency]
		if !ok {
			t = &domain.CurrencyTotals{Currency: currency}
			byCurrency[currency] = t
		}
		return t
	}

	summary := domain.DashboardSummary{
		Totals:             []domain.CurrencyTotals{},
		RecentTransactions: []domain.Transaction{},
	}
	for _, inv := range investments {
		if inv.Status != domain.InvestmentActive {
			continue
		}
		summary.ActiveInvestments++
		totalsFor(inv.Currency).TotalInvestedCents += inv.AmountCents
	}
	for _, tx := range txs {
		if tx.Status != domain.TransactionCompleted {
			continue
		}
		switch tx.Kind {
		case domain.TransactionDeposit:
			totalsFor(tx.Currency).TotalDepositsCents += tx.AmountCents
		case domain.TransactionWithdrawal:
			totalsFor(tx.Currency).TotalWithdrawalsCents += tx.AmountCents
		case domain.TransactionProfit:
			totalsFor(tx.Currency).TotalProfitCents += tx.AmountCents
		}
	}
	for _, t := range byCurrency {
		summary.Totals = append(summary.Totals, *t)
	}
	slices.SortFunc(summary.Totals, func(a, b domain.CurrencyTotals) int {
		return strings.Compare(a.Currency, b.Currency)
	})

	if len(txs) > recentTransactions {
		txs = txs[:recentTransactions]
	}
	summary.RecentTransactions = append(summary.RecentTransactions, txs...)
	return summary, nil
}

type CreateInvestmentInput struct {
	UserID      string
	Plan        string
	AmountCents int64
	Currency    string
	MaturesAt   *time.Time
}

// CreateInvestment registra una inversión activa junto con su depósito completado.
func (s *PortfolioService) CreateInvestment(ctx context.Context, input CreateInvestmentInput) (domain.Investment, error) {
	plan := strings.TrimSpace(input.Plan)
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	switch {
	case strings.TrimSpace(input.UserID) == "":
		return domain.Investment{}, invalidInput("user_id", "user_id is required")
	case plan == "":
		return domain.Investment{}, invalidInput("plan", "plan is required")
	case input.AmountCents <= 0:
		return domain.Investment{}, invalidInput("amount_cents", "amount must be positive")
	case !isCurrencyCode(currency):
		return domain.Investment{}, invalidInput("currency", "currency must be a 3-letter code")
	}

	now := s.now()
	if input.MaturesAt != nil && !input.MaturesAt.After(now) {
		return domain.Investment{}, invalidInput("matures_at", "maturity must be in the future")
	}

	if _, err := s.identities.GetByID(ctx, input.UserID); err != nil {
		return domain.Investment{}, storeError("find identity by id", err)
	}

	investment := domain.Investment{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Plan:        plan,
		AmountCents: input.AmountCents,
		Currency:    currency,
		Status:      domain.InvestmentActive,
		StartedAt:   now,
		MaturesAt:   input.MaturesAt,
	}
	deposit := domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Kind:        domain.TransactionDeposit,
		AmountCents: input.AmountCents,
		Currency:    currency,
		Status:      domain.TransactionCompleted,
		Reference:   "investment:" + investment.ID,
		CreatedAt:   now,
	}
	if err := s.portfolio.CreateInvestment(ctx, investment, deposit); err != nil {
		return domain.Investment{}, storeError("create investment", err)
	}

	s.logger.Info("investment created",
		zap.String("investment_id", investment.ID),
		zap.String("user_id", investment.UserID),
	)
	return investment, nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
