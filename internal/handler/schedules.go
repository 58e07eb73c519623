package handler

import (
	"net/http"

	"staffhub/internal/dto"
	"staffhub/internal/service"

	"github.com/gin-gonic/gin"
)

type SchedulesHandler struct{ svc service.ScheduleService }

func NewSchedulesHandler(svc service.ScheduleService) *SchedulesHandler {
	return &SchedulesHandler{svc: svc}
}

// Create godoc
// @Summary Create a schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateScheduleRequest true "Schedule"
// @Success 201 {object} dto.ScheduleResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/schedules [post]
func (h *SchedulesHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListByVenue godoc
// @Summary List schedules for a venue
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param venueId path string true "Venue UUID"
// @Success 200 {array} dto.ScheduleResponse
// @Router /v1/venues/{venueId}/schedules [get]
func (h *SchedulesHandler) ListByVenue(c *gin.Context) {
	venueID, ok := pathUUID(c, "venueId")
	if !ok {
		return
	}
	resp, err := h.svc.ListByVenue(c.Request.Context(), callerID(c), venueID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetStatus godoc
// @Summary Move a schedule between DRAFT, PUBLISHED and ARCHIVED
// @Tags schedules
// @Accept json
// @Security BearerAuth
// @Param id path string true "Schedule UUID"
// @Param body body dto.SetScheduleStatusRequest true "Target status"
// @Success 204
// @Failure 422 {object} apierror.APIError
// @Router /v1/schedules/{id}/status [put]
func (h *SchedulesHandler) SetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetScheduleStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetStatus(c.Request.Context(), callerID(c), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddEntry godoc
// @Summary Add a shift entry to a schedule
// @Description An entry overlapping an already-approved absence is created flagged with TIME_OFF.
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule UUID"
// @Param body body dto.CreateEntryRequest true "Entry"
// @Success 201 {object} dto.EntryResponse
// @Router /v1/schedules/{id}/entries [post]
func (h *SchedulesHandler) AddEntry(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddEntry(c.Request.Context(), callerID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListEntries godoc
// @Summary List entries of a schedule
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule UUID"
// @Success 200 {array} dto.EntryResponse
// @Router /v1/schedules/{id}/entries [get]
func (h *SchedulesHandler) ListEntries(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListEntries(c.Request.Context(), callerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
