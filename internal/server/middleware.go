package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	obscontext "github.com/smallbiznis/utilibill/internal/observability/context"
)

const (
	contextUserIDKey = "user_id"
	contextRoleKey   = "user_role"

	actorTypeUser = "user"
)

// AuthRequired accepts "Authorization: Bearer <jwt>" and records the caller
// on both the gin and the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID := claims.UserID.String()
		c.Set(contextUserIDKey, userID)
		c.Set(contextRoleKey, string(claims.Role))
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actorTypeUser, userID, string(claims.Role)))
		c.Next()
	}
}

// authorize checks the caller's role against the capability matrix.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := authdomain.Role(c.GetString(contextRoleKey))
		if err := s.authzSvc.Authorize(c.Request.Context(), role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.loginLimiter.Enabled() {
			c.Next()
			return
		}

		allowed, retryAfter := s.loginLimiter.Allow(c.Request.Context(), c.ClientIP())
		if !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

func registerFallback(r *gin.Engine) {
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorPayload{Type: "not_found", Message: "not found"}})
	})
}
