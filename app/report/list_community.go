package report

import (
	"net/http"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReportListCommunity is public and cached per URI. Reporters are reduced to
// their display name.
func ReportListCommunity(c *gin.Context, d *internal.Deps) {
	q, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, err := d.Reports.ListCommunity(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Shared(c, http.StatusOK, page)
}
