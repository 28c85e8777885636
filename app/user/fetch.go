package user

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the account behind the session token.
func UserFetch(c *gin.Context, d *internal.Deps) {
	u, err := d.Accounts.Current(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, u)
}
