package handler

import (
	"net/http"
	"time"

	"staffhub/internal/apierror"
	"staffhub/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// MonthlyTimeOff godoc
// @Summary Download the monthly time-off PDF for a venue
// @Tags reports
// @Produce application/pdf
// @Security BearerAuth
// @Param venueId path string true "Venue UUID"
// @Param month query string true "Month YYYY-MM"
// @Success 200 {file} file
// @Failure 403 {object} apierror.APIError
// @Router /v1/venues/{venueId}/reports/timeoff [get]
func (h *ReportsHandler) MonthlyTimeOff(c *gin.Context) {
	venueID, ok := pathUUID(c, "venueId")
	if !ok {
		return
	}
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("month must be YYYY-MM"))
		return
	}

	path, err := h.svc.MonthlyTimeOff(c.Request.Context(), callerID(c), venueID, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, "timeoff-report.pdf")
}
