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

type locationBody struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

type submitBody struct {
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Location    locationBody `json:"location"`
	Photo       string       `json:"photo"`
}

func ReportSubmit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data submitBody
	if err := c.ShouldBindJSON(&data); err != nil {
		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		response.Bind(c, err)
		return
	}

	r, err := d.Reports.Submit(c.Request.Context(), c.GetString("userID"), service.SubmitInput{
		Category:    model.Category(data.Category),
		Description: data.Description,
		Latitude:    data.Location.Latitude,
		Longitude:   data.Location.Longitude,
		Address:     data.Location.Address,
		Photo:       data.Photo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	zap.L().Info("Report submitted", zap.String("reportID", r.ID), zap.String("requestID", requestID))
	response.OK(c, http.StatusCreated, r)
}
