package user

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// setSession mirrors the bearer token into an http only cookie for browser
// clients.
func setSession(c *gin.Context, d *internal.Deps, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, token, int(d.Tokens.Expiry().Seconds()), "/", "", d.SecureCookies, true)
}
