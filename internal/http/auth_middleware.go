package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-portal/internal/domain"
	"asset-portal/internal/service"
)

const (
	authIdentityKey = "auth_identity"
	bearerPrefix    = "Bearer "
)

type identityContextKey struct{}

// TokenVerifier valida un token bearer y devuelve sus claims.
type TokenVerifier interface {
	Verify(token string) (service.Claims, error)
}

// IdentityFinder resuelve el sujeto de un token ya verificado.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (domain.Identity, error)
}

// AuthGate es el único punto de paso de las rutas protegidas.
// No revela si el token era inválido o estaba expirado.
func AuthGate(logger *zap.Logger, tokens TokenVerifier, identities IdentityFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respondError(c, http.StatusUnauthorized, msgNotAuthorized)
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			respondError(c, http.StatusUnauthorized, msgNotAuthorized)
			return
		}

		identity, err := identities.FindByID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				respondError(c, http.StatusUnauthorized, msgUserNotFound)
				return
			}
			logger.Error("resolve token subject failed", zap.Error(err))
			respondError(c, http.StatusServiceUnavailable, msgUnavailable)
			return
		}

		c.Set(authIdentityKey, identity)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), identityContextKey{}, identity))
		c.Next()
	}
}

// RequireRole corre después de AuthGate y rechaza roles no permitidos.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, msgNotAuthorized)
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		respondError(c, http.StatusForbidden, msgForbidden)
	}
}

// bearerToken exige el prefijo literal "Bearer "; cualquier otra forma cuenta como sin token.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// GetIdentity obtiene la identidad autenticada desde el contexto de gin.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	val, ok := c.Get(authIdentityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}

// IdentityFromContext obtiene la identidad autenticada desde un context.Context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity, ok
}
