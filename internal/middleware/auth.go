package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// ConsentChecker answers whether a user agreed to every active legal
// document.
type ConsentChecker interface {
	HasFullConsent(ctx context.Context, userID uuid.UUID) (bool, error)
}

type AuthMiddleware struct {
	tokens  auth.JWTService
	consent ConsentChecker
	log     *logger.Logger
}

func NewAuthMiddleware(tokens auth.JWTService, consent ConsentChecker, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		consent: consent,
		log:     log,
	}
}

// Authenticate verifies the bearer token and stores its claims in the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewCodedErrorResponse("UNAUTHORIZED", "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewCodedErrorResponse("UNAUTHORIZED", "invalid authorization format"))
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewCodedErrorResponse("UNAUTHORIZED", "invalid token"))
			return
		}

		handler.SetClaims(c, claims)
		c.Next()
	}
}

// ConsentRequired blocks users that have not accepted the current legal
// documents. Must run after Authenticate. Platform admins are exempt.
func (m *AuthMiddleware) ConsentRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := handler.Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				handler.NewCodedErrorResponse("UNAUTHORIZED", "unauthorized"))
			return
		}
		if claims.Role.ConsentExempt() {
			c.Next()
			return
		}

		agreed, err := m.consent.HasFullConsent(c.Request.Context(), claims.UserID)
		if err != nil {
			m.log.Error(err, "consent check failed", "user_id", claims.UserID.String())
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				handler.NewCodedErrorResponse("INTERNAL", "internal server error"))
			return
		}
		if !agreed {
			c.AbortWithStatusJSON(http.StatusForbidden,
				handler.NewCodedErrorResponse("CONSENT_REQUIRED", "accept the current legal documents to continue"))
			return
		}
		c.Next()
	}
}
