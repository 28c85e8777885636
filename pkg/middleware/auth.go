package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mangrovewatch/report-api/internal/model"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const AuthCookie = "auth_token"

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewAuthMiddleware accepts a bearer token from the Authorization header or,
// failing that, the auth_token cookie. The token must be valid and point to
// an existing user. On success userID and userRole are set on the context.
func NewAuthMiddleware(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "Missing authorization token")
			return
		}

		userID, err := tokens.Verify(tokenStr)
		if err != nil {
			response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization token invalid or expired. Please log in again")
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "Account no longer exists")
				return
			}

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
			response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "Internal server error")
			return
		}

		c.Set("userID", user.ID)
		c.Set("userRole", string(user.Role))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}

		return strings.TrimSpace(token)
	}

	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}

	return ""
}
