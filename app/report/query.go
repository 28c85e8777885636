package report

import (
	"strconv"

	"mangrovewatch/report-api/internal/model"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

// listQuery reads ?page=&pageSize=&status=&category=. Absent paging values
// fall back to the defaults; range checks happen in the service.
func listQuery(c *gin.Context) (service.ListQuery, error) {
	q := service.ListQuery{
		Page:     1,
		PageSize: service.DefaultPageSize,
		Category: model.Category(c.Query("category")),
		Status:   model.Status(c.Query("status")),
	}

	var errs validators.Errors

	if v, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validators.FieldError{Field: "page", Message: "must be an integer"})
		}
		q.Page = n
	}

	if v, ok := c.GetQuery("pageSize"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validators.FieldError{Field: "pageSize", Message: "must be an integer"})
		}
		q.PageSize = n
	}

	return q, errs.Err()
}

func caller(c *gin.Context) service.Caller {
	return service.Caller{
		ID:   c.GetString("userID"),
		Role: model.Role(c.GetString("userRole")),
	}
}
