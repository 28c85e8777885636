package report

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
)

func ReportFetch(c *gin.Context, d *internal.Deps) {
	r, err := d.Reports.Get(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, r)
}
