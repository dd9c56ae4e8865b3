package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set by SessionAuth
const (
	ActorKey      = "actor"
	UserIDKey     = "user_id"
	AuthHeaderKey = "Authorization"
	TokenQueryKey = "token"
)

// ActorVerifier resolves a raw session token into an actor
type ActorVerifier interface {
	VerifyActor(raw string) (identity.Actor, error)
}

// SessionAuthConfig holds configuration for session authentication
type SessionAuthConfig struct {
	Verifier ActorVerifier
	// AllowQueryToken accepts ?token= when no Authorization header is sent.
	// Browsers cannot set headers on websocket upgrades.
	AllowQueryToken bool
	Logger          *zap.Logger
}

// SessionAuth verifies the identity-provider session token and stores the
// resolved actor on the context
func SessionAuth(cfg SessionAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		raw := auth.BearerToken(c.GetHeader(AuthHeaderKey))
		if raw == "" && cfg.AllowQueryToken {
			raw = c.Query(TokenQueryKey)
		}

		actor, err := cfg.Verifier.VerifyActor(raw)
		if err != nil {
			log.Debug("Session authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			code, message := authErrorCode(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
			return
		}

		c.Set(ActorKey, actor)
		c.Set(UserIDKey, actor.UserID)
		ctx := logger.WithActor(c.Request.Context(), actor.UserID, actor.OrgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return dto.ErrCodeUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Session has expired"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid session"
	}
}

// GetActor returns the authenticated actor
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}

// RequireRole allows the request when the actor's effective role is one of roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !identity.HasAnyRole(actor, roles...) {
			logger.L(c.Request.Context()).Debug("Role check denied",
				zap.String("effective_role", string(actor.EffectiveRole())),
				zap.Any("required_any", roles),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "You do not have permission to perform this action", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// RequireAdmin allows org admins and global admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.AdminRoles...)
}
