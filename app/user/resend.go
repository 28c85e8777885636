package user

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type resendBody struct {
	Email string `json:"email" binding:"required"`
}

func UserResend(c *gin.Context, d *internal.Deps) {
	var data resendBody
	if err := c.ShouldBindJSON(&data); err != nil {
		response.Bind(c, err)
		return
	}

	res, err := d.Accounts.ResendOTP(c.Request.Context(), data.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, res)
}
