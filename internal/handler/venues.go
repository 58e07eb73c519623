package handler

import (
	"net/http"

	"staffhub/internal/apierror"
	"staffhub/internal/dto"
	"staffhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VenuesHandler struct{ svc service.VenueService }

func NewVenuesHandler(svc service.VenueService) *VenuesHandler { return &VenuesHandler{svc: svc} }

// Create godoc
// @Summary Create a venue
// @Tags venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateVenueRequest true "Venue"
// @Success 201 {object} dto.VenueResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/venues [post]
func (h *VenuesHandler) Create(c *gin.Context) {
	var req dto.CreateVenueRequest
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

// List godoc
// @Summary List venues
// @Tags venues
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated venues"
// @Success 200 {array} dto.VenueResponse
// @Router /v1/venues [get]
func (h *VenuesHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	resp, err := h.svc.List(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetActive godoc
// @Summary Activate or deactivate a venue
// @Description Deactivating a venue immediately removes all access derived from it. Memberships are untouched and revive on reactivation.
// @Tags venues
// @Accept json
// @Security BearerAuth
// @Param venueId path string true "Venue UUID"
// @Param body body dto.SetVenueActiveRequest true "Target state"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/venues/{venueId}/active [put]
func (h *VenuesHandler) SetActive(c *gin.Context) {
	id, ok := pathUUID(c, "venueId")
	if !ok {
		return
	}
	var req dto.SetVenueActiveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), callerID(c), id, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMember godoc
// @Summary Add a user to a venue
// @Tags venues
// @Accept json
// @Security BearerAuth
// @Param venueId path string true "Venue UUID"
// @Param body body dto.AddMemberRequest true "Member"
// @Success 204
// @Router /v1/venues/{venueId}/members [post]
func (h *VenuesHandler) AddMember(c *gin.Context) {
	venueID, ok := pathUUID(c, "venueId")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid user_id"))
		return
	}
	if err := h.svc.AddMember(c.Request.Context(), callerID(c), venueID, userID, req.IsPrimary); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary Remove a user from a venue
// @Tags venues
// @Security BearerAuth
// @Param venueId path string true "Venue UUID"
// @Param userId path string true "User UUID"
// @Success 204
// @Router /v1/venues/{venueId}/members/{userId} [delete]
func (h *VenuesHandler) RemoveMember(c *gin.Context) {
	venueID, ok := pathUUID(c, "venueId")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), callerID(c), venueID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPrimary godoc
// @Summary Set a user's primary venue
// @Description At most one membership per user is primary; setting a new one clears the old flag atomically.
// @Tags venues
// @Accept json
// @Security BearerAuth
// @Param id path string true "User UUID"
// @Param body body dto.SetPrimaryRequest true "Venue"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/users/{id}/primary-venue [put]
func (h *VenuesHandler) SetPrimary(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPrimaryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid venue_id"))
		return
	}
	if err := h.svc.SetPrimary(c.Request.Context(), callerID(c), userID, venueID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
