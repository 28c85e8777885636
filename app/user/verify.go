package user

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyBody struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

func UserVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		response.Bind(c, err)
		return
	}

	session, err := d.Accounts.VerifyOTP(c.Request.Context(), data.Email, data.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	setSession(c, d, session.Token)
	response.OK(c, http.StatusOK, session)
}
