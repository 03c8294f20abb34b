package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-portal/internal/domain"
	"asset-portal/internal/service"
)

// Portfolio es la vista de inversiones y transacciones que consume el dashboard.
type Portfolio interface {
	Investments(ctx context.Context, userID string) ([]domain.Investment, error)
	Transactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	Dashboard(ctx context.Context, userID string) (domain.DashboardSummary, error)
	CreateInvestment(ctx context.Context, input service.CreateInvestmentInput) (domain.Investment, error)
}

// PortfolioHandler mantiene dependencias para endpoints del dashboard.
type PortfolioHandler struct {
	logger    *zap.Logger
	portfolio Portfolio
}

func NewPortfolioHandler(logger *zap.Logger, portfolio Portfolio) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, portfolio: portfolio}
}

// Dashboard maneja GET /api/dashboard.
func (h *PortfolioHandler) Dashboard(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	summary, err := h.portfolio.Dashboard(c.Request.Context(), identity.ID)
	if err != nil {
		respondServiceError(c, h.logger, "dashboard", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"summary": summary})
}

// Investments maneja GET /api/investments.
func (h *PortfolioHandler) Investments(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	investments, err := h.portfolio.Investments(c.Request.Context(), identity.ID)
	if err != nil {
		respondServiceError(c, h.logger, "list investments", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"investments": investments})
}

// Transactions maneja GET /api/transactions?limit=N.
func (h *PortfolioHandler) Transactions(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondFieldError(c, "limit", "limit must be a number")
			return
		}
		limit = n
	}
	txs, err := h.portfolio.Transactions(c.Request.Context(), identity.ID, limit)
	if err != nil {
		respondServiceError(c, h.logger, "list transactions", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"transactions": txs})
}

// CreateInvestment maneja POST /api/admin/investments.
func (h *PortfolioHandler) CreateInvestment(c *gin.Context) {
	var req struct {
		UserID      string     `json:"user_id" binding:"required"`
		Plan        string     `json:"plan" binding:"required,max=100"`
		AmountCents int64      `json:"amount_cents" binding:"required,gt=0"`
		Currency    string     `json:"currency" binding:"required,len=3"`
		MaturesAt   *time.Time `json:"matures_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "create investment", err)
		return
	}

	investment, err := h.portfolio.CreateInvestment(c.Request.Context(), service.CreateInvestmentInput{
		UserID:      req.UserID,
		Plan:        req.Plan,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		MaturesAt:   req.MaturesAt,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create investment", err)
		return
	}

	if admin, ok := GetIdentity(c); ok {
		h.logger.Info("admin created investment",
			zap.String("admin_id", admin.ID),
			zap.String("investment_id", investment.ID),
		)
	}
	respondOK(c, http.StatusCreated, gin.H{"investment": investment})
}
