package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-portal/internal/domain"
	"asset-portal/internal/service"
)

// Authenticator registra, inicia sesión y cambia contraseñas; todo lo que verifica una contraseña.
type Authenticator interface {
	Register(ctx context.Context, input service.CreateIdentityInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error
}

// AccountStore cubre la edición del propio perfil.
type AccountStore interface {
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Identity, error)
}

// AuthHandler mantiene dependencias para endpoints de autenticación.
type AuthHandler struct {
	logger   *zap.Logger
	auth     Authenticator
	accounts AccountStore
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, auth Authenticator, accounts AccountStore) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		auth:     auth,
		accounts: accounts,
	}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,max=254"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name" binding:"max=200"`
		LastName  string `json:"last_name" binding:"max=200"`
		Phone     string `json:"phone" binding:"max=200"`
		Address   string `json:"address" binding:"max=200"`
		City      string `json:"city" binding:"max=200"`
		Country   string `json:"country" binding:"max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "register", err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), service.CreateIdentityInput{
		Email:    req.Email,
		Password: req.Password,
		Profile: domain.ProfileFields{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Address:   req.Address,
			City:      req.City,
			Country:   req.Country,
		},
	})
	if err != nil {
		respondServiceError(c, h.logger, "register", err)
		return
	}

	respondOK(c, http.StatusCreated, sessionBody(session))
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,max=254"`
		Password string `json:"password" binding:"required,max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "login", err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.logger, "login", err)
		return
	}

	respondOK(c, http.StatusOK, sessionBody(session))
}

// Me maneja GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user": identity})
}

// UpdateProfile maneja PUT /api/auth/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	var req struct {
		FirstName *string `json:"first_name" binding:"omitempty,max=200"`
		LastName  *string `json:"last_name" binding:"omitempty,max=200"`
		Phone     *string `json:"phone" binding:"omitempty,max=200"`
		Address   *string `json:"address" binding:"omitempty,max=200"`
		City      *string `json:"city" binding:"omitempty,max=200"`
		Country   *string `json:"country" binding:"omitempty,max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "update profile", err)
		return
	}

	updated, err := h.accounts.UpdateProfile(c.Request.Context(), identity.ID, domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		respondServiceError(c, h.logger, "update profile", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user": updated})
}

// UpdatePassword maneja PUT /api/auth/password.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "update password", err)
		return
	}

	if err := h.auth.UpdatePassword(c.Request.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, h.logger, "update password", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Password updated"})
}

func sessionBody(session service.Session) gin.H {
	return gin.H{
		"token":      session.Token,
		"expires_in": session.ExpiresIn,
		"user":       session.Identity,
	}
}
