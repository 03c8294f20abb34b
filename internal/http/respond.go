package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"asset-portal/internal/service"
)

const (
	msgNotAuthorized   = "Not authorized to access this route."
	msgUserNotFound    = "User not found."
	msgForbidden       = "Forbidden"
	msgRouteNotFound   = "Route not found"
	msgUnavailable     = "Service temporarily unavailable"
	msgInternal        = "Internal server error"
	msgInvalidRequest  = "Invalid request"
	msgDuplicateEmail  = "User already exists"
	msgBadCredentials  = "Invalid credentials"
	msgTooManyAttempts = "Too many login attempts, try again later"
	msgNotFound        = "Resource not found"
)

// respondOK escribe {success: true, ...data}.
func respondOK(c *gin.Context, status int, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError escribe {success: false, message} y corta la cadena de handlers.
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func respondFieldError(c *gin.Context, field, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
		"field":   field,
	})
}

// respondServiceError traduce los errores del servicio a una única forma de respuesta cada uno.
func respondServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var inputErr *service.InputError
	switch {
	case errors.As(err, &inputErr):
		respondFieldError(c, inputErr.Field, inputErr.Message)
	case errors.Is(err, service.ErrDuplicateIdentity):
		respondFieldError(c, "email", msgDuplicateEmail)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, msgBadCredentials)
	case errors.Is(err, service.ErrRateLimited):
		respondError(c, http.StatusTooManyRequests, msgTooManyAttempts)
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrStoreUnavailable):
		logger.Error(op+" failed: store unavailable", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, msgUnavailable)
	default:
		logger.Error(op+" failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgInternal)
	}
}

// respondBindError convierte errores de binding de gin en un 400 con el campo afectado.
func respondBindError(c *gin.Context, logger *zap.Logger, op string, err error) {
	logger.Warn("invalid "+op+" request", zap.Error(err))
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := jsonFieldName(fe.Field())
		respondFieldError(c, field, fmt.Sprintf("%s %s", field, describeTag(fe)))
		return
	}
	respondError(c, http.StatusBadRequest, msgInvalidRequest)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// jsonFieldName pasa de FirstName a first_name y de UserID a user_id.
func jsonFieldName(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !isUpper
		b.WriteRune(r)
	}
	return b.String()
}
