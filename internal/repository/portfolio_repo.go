package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"asset-portal/internal/domain"
)

// PortfolioRepository define el acceso a inversiones y transacciones.
type PortfolioRepository interface {
	ListInvestments(ctx context.Context, userID string) ([]domain.Investment, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	CreateInvestment(ctx context.Context, investment domain.Investment, deposit domain.Transaction) error
}

type PgPortfolioRepository struct {
	pools PoolProvider
}

func NewPgPortfolioRepository(pools PoolProvider) *PgPortfolioRepository {
	return &PgPortfolioRepository{pools: pools}
}

func (r *PgPortfolioRepository) ListInvestments(ctx context.Context, userID string) ([]domain.Investment, error) {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT id, user_id, plan, amount_cents, currency, status, started_at, matures_at
		FROM investments
		WHERE user_id = $1
		ORDER BY started_at DESC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []domain.Investment
	for rows.Next() {
		var (
			inv    domain.Investment
			status string
		)
		if err := rows.Scan(
			&inv.ID,
			&inv.UserID,
			&inv.Plan,
			&inv.AmountCents,
			&inv.Currency,
			&status,
			&inv.StartedAt,
			&inv.MaturesAt,
		); err != nil {
			return nil, err
		}
		inv.Status = domain.InvestmentStatus(status)
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

// ListTransactions devuelve las transacciones más recientes primero; limit <= 0 devuelve todas.
func (r *PgPortfolioRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id, user_id, kind, amount_cents, currency, status, reference, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			tx           domain.Transaction
			kind, status string
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&kind,
			&tx.AmountCents,
			&tx.Currency,
			&status,
			&tx.Reference,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		tx.Kind = domain.TransactionKind(kind)
		tx.Status = domain.TransactionStatus(status)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// CreateInvestment guarda la inversión y su depósito en una sola transacción.
func (r *PgPortfolioRepository) CreateInvestment(ctx context.Context, investment domain.Investment, deposit domain.Transaction) error {
	pool, err := r.pools.Acquire(ctx)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		const insertInvestment = `
			INSERT INTO investments (id, user_id, plan, amount_cents, currency, status, started_at, matures_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, insertInvestment,
			investment.ID,
			investment.UserID,
			investment.Plan,
			investment.AmountCents,
			investment.Currency,
			string(investment.Status),
			investment.StartedAt,
			investment.MaturesAt,
		); err != nil {
			return fmt.Errorf("insert investment: %w", err)
		}

		const insertTransaction = `
			INSERT INTO transactions (id, user_id, kind, amount_cents, currency, status, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, insertTransaction,
			deposit.ID,
			deposit.UserID,
			string(deposit.Kind),
			deposit.AmountCents,
			deposit.Currency,
			string(deposit.Status),
			deposit.Reference,
			deposit.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert deposit: %w", err)
		}
		return nil
	})
}
