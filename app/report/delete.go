package report

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ReportDelete(c *gin.Context, d *internal.Deps) {
	id := c.Param("id")

	if err := d.Reports.Delete(c.Request.Context(), id, caller(c)); err != nil {
		response.Error(c, err)
		return
	}

	zap.L().Info("Report deleted", zap.String("reportID", id), zap.String("requestID", c.GetString("requestID")))
	response.OK(c, http.StatusOK, gin.H{"id": id})
}
