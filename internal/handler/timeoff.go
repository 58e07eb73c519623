package handler

import (
	"net/http"
	"strings"

	"staffhub/internal/dto"
	"staffhub/internal/service"

	"github.com/gin-gonic/gin"
)

type TimeOffHandler struct{ svc service.TimeOffService }

func NewTimeOffHandler(svc service.TimeOffService) *TimeOffHandler {
	return &TimeOffHandler{svc: svc}
}

// Create godoc
// @Summary Submit a time-off request
// @Description Rejects past start dates and any inclusive date overlap with the caller's PENDING or APPROVED requests.
// @Tags timeoff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateTimeOffRequest true "Date range and reason"
// @Success 201 {object} dto.TimeOffResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/timeoff [post]
func (h *TimeOffHandler) Create(c *gin.Context) {
	var req dto.CreateTimeOffRequest
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

// ListOwn godoc
// @Summary List the caller's own requests
// @Tags timeoff
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TimeOffResponse
// @Router /v1/timeoff/mine [get]
func (h *TimeOffHandler) ListOwn(c *gin.Context) {
	resp, err := h.svc.ListOwn(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListVisible godoc
// @Summary List requests visible to the caller
// @Description Returns requests owned by users sharing an active venue with the caller. Optional status filter, comma-separated.
// @Tags timeoff
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING,APPROVED,REJECTED,CANCELLED"
// @Success 200 {array} dto.TimeOffResponse
// @Router /v1/timeoff [get]
func (h *TimeOffHandler) ListVisible(c *gin.Context) {
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}
	resp, err := h.svc.ListVisible(c.Request.Context(), callerID(c), statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancel a pending request
// @Description Owner-only. A request already reviewed or cancelled is reported with its current status.
// @Tags timeoff
// @Security BearerAuth
// @Param id path string true "Request UUID"
// @Success 204
// @Failure 422 {object} apierror.APIError
// @Router /v1/timeoff/{id} [delete]
func (h *TimeOffHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), callerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Review godoc
// @Summary Approve or reject a pending request
// @Description The version field must match the version the decision was based on; a stale version yields 409 and the client should refresh.
// @Tags timeoff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request UUID"
// @Param body body dto.ReviewTimeOffRequest true "Decision"
// @Success 200 {object} dto.TimeOffResponse
// @Failure 409 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /v1/timeoff/{id}/review [post]
func (h *TimeOffHandler) Review(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewTimeOffRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Review(c.Request.Context(), callerID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
