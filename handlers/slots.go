package handlers

import (
	"net/http"

	"therapy/models"
	"therapy/utils"

	"github.com/gin-gonic/gin"
)

// CreateSlotHandler offers a new slot owned by the calling therapist.
func (hb *HandlerBundle) CreateSlotHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	slot, err := hb.Ledger.CreateSlot(c.Request.Context(), a, req.Date, req.TimeRange)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// ListSlotsHandler lists a therapist's slots in a date range. Therapists
// default to their own slots.
func (hb *HandlerBundle) ListSlotsHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	owner := ownerParam(c, a)
	if owner == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: "therapistId is required", Code: "invalid_input"})
		return
	}
	slots, err := hb.Ledger.ListSlots(c.Request.Context(), owner, c.Query("from"), c.Query("to"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": nonNil(slots)})
}

// ListAvailableSlotsHandler lists unreserved slots of a therapist on a date.
func (hb *HandlerBundle) ListAvailableSlotsHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	owner := ownerParam(c, a)
	date := c.Query("date")
	if owner == "" || date == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: "therapistId and date are required", Code: "invalid_input"})
		return
	}
	slots, err := hb.Ledger.ListAvailable(c.Request.Context(), owner, date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": nonNil(slots)})
}

// RemoveSlotHandler deletes an unreserved slot of the calling therapist.
func (hb *HandlerBundle) RemoveSlotHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := hb.Ledger.RemoveSlot(c.Request.Context(), a, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func ownerParam(c *gin.Context, a models.Actor) string {
	if owner := c.Query("therapistId"); owner != "" {
		return owner
	}
	if a.Role == models.RoleTherapist {
		return a.ID
	}
	return ""
}

func nonNil(slots []models.Slot) []models.Slot {
	if slots == nil {
		return []models.Slot{}
	}
	return slots
}
