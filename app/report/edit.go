package report

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/internal/model"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Absent fields stay untouched.
type editBody struct {
	Category    *model.Category `json:"category"`
	Description *string         `json:"description"`
	Status      *model.Status   `json:"status"`
}

func ReportEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data editBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		response.Bind(c, err)
		return
	}

	r, err := d.Reports.Update(c.Request.Context(), c.Param("id"), caller(c), service.ReportPatch{
		Category:    data.Category,
		Description: data.Description,
		Status:      data.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, r)
}
