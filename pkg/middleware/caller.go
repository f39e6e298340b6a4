package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shoply/internal/models/request_models"
	"shoply/pkg/utils"
)

const (
	callerKey       = "caller"
	sessionHeader   = "X-Session-ID"
	staffRole       = "staff"
	sessionIDPrefix = "sess_"
)

// SessionIDSource mints a new guest session identifier. Injected so tests can
// supply a deterministic source.
type SessionIDSource func() string

func DefaultSessionIDSource() string {
	return sessionIDPrefix + uuid.NewString()
}

// CallerMiddleware resolves the request identity once per request: a valid
// bearer token yields an authenticated owner, otherwise the guest session id is
// taken from the session header or minted and echoed back.
func CallerMiddleware(newSessionID SessionIDSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := request_models.Caller{}

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if claims, err := utils.ValidateToken(tokenString); err == nil && claims != nil {
				if ownerID, parseErr := uuid.Parse(claims.UserID); parseErr == nil {
					caller.OwnerID = &ownerID
					caller.IsAuthenticated = true
					caller.IsStaff = claims.Role == staffRole
				}
			}
		}

		if !caller.IsAuthenticated {
			sessionID := strings.TrimSpace(c.GetHeader(sessionHeader))
			if sessionID == "" {
				sessionID = newSessionID()
			}
			caller.SessionID = sessionID
			c.Writer.Header().Set(sessionHeader, sessionID)
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func CallerFromContext(c *gin.Context) request_models.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(request_models.Caller); ok {
			return caller
		}
	}
	return request_models.Caller{}
}

// RequireAuth aborts with 401 unless the caller is authenticated. Guests keep
// their session but cannot reach payment operations.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFromContext(c).IsAuthenticated {
			utils.RespondError(c, 401, "Authorization header missing or invalid")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFromContext(c).IsStaff {
			utils.RespondError(c, 403, "Forbidden: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
