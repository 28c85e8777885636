package report

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
)

func ReportListOwn(c *gin.Context, d *internal.Deps) {
	q, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := d.Reports.ListOwn(c.Request.Context(), c.GetString("userID"), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, page)
}
