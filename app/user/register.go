package user

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Required fields are left to the service so absent values come back as
// MISSING_FIELDS rather than a binding error.
type registerBody struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		response.Bind(c, err)
		return
	}

	res, err := d.Accounts.Signup(c.Request.Context(), service.SignupInput{
		Name:     data.Name,
		Mobile:   data.Mobile,
		Email:    data.Email,
		Password: data.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, res)
}
