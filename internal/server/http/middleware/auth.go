package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/orderledger/internal/domain/model"
	pkgAuth "github.com/polkiloo/orderledger/internal/pkg/auth"
)

// IdentityContextKey is a gin context key for the verified caller identity.
const IdentityContextKey = "identity"

// TokenVerifier resolves a bearer token to a caller identity.
type TokenVerifier interface {
	VerifyToken(token string) (model.Identity, error)
}

// OptionalIdentity resolves the bearer token when one is present. Callers with
// a missing or invalid token continue as anonymous.
func OptionalIdentity(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(IdentityContextKey, resolveIdentity(c, verifier, logger))
		c.Next()
	}
}

// RequireIdentity rejects anonymous callers with 401.
func RequireIdentity(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolveIdentity(c, verifier, logger)
		if id.Anonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(IdentityContextKey, id)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, verifier TokenVerifier, logger *slog.Logger) model.Identity {
	token := extractToken(c)
	if token == "" || verifier == nil {
		return model.Identity{}
	}
	id, err := verifier.VerifyToken(token)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, pkgAuth.ErrInvalidToken) {
			level = slog.LevelDebug
		}
		logger.Log(c.Request.Context(), level, "bearer token rejected", slog.String("error", err.Error()))
		return model.Identity{}
	}
	return id
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
