package handlers

import (
	"errors"
	"net/http"

	"therapy/apperrors"
	"therapy/models"
	"therapy/utils"

	"github.com/gin-gonic/gin"
)

type reasonRequest struct {
	Reason string `json:"reason"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type noteRequest struct {
	Text string `json:"text" binding:"required"`
}

// BookSessionHandler books a slot, or requests an ad-hoc session when no
// slotId is given.
func (hb *HandlerBundle) BookSessionHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.BookSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		s   *models.Session
		err error
	)
	if req.SlotID != "" {
		s, err = hb.Lifecycle.Book(c.Request.Context(), a, req.SlotID)
	} else {
		s, err = hb.Lifecycle.RequestSession(c.Request.Context(), a, req.TherapistID, req.ScheduledDate, req.ScheduledTime)
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (hb *HandlerBundle) ListSessionsHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	status := models.SessionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Message: "unknown status " + string(status), Code: "invalid_input"})
		return
	}
	sessions, err := hb.Lifecycle.List(c.Request.Context(), a, status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (hb *HandlerBundle) GetSessionHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	s, err := hb.Lifecycle.Get(c.Request.Context(), a, c.Param("id"))
	respond(c, s, err)
}

func (hb *HandlerBundle) ConfirmSessionHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	s, err := hb.Lifecycle.Confirm(c.Request.Context(), a, c.Param("id"))
	respond(c, s, err)
}

func (hb *HandlerBundle) DeclineSessionHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	s, err := hb.Lifecycle.Decline(c.Request.Context(), a, c.Param("id"), req.Reason)
	respond(c, s, err)
}

func (hb *HandlerBundle) CancelSessionHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)
	s, err := hb.Lifecycle.Cancel(c.Request.Context(), a, c.Param("id"), req.Reason)
	respond(c, s, err)
}

func (hb *HandlerBundle) CompleteSessionHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req notesRequest
	_ = c.ShouldBindJSON(&req)
	s, err := hb.Lifecycle.Complete(c.Request.Context(), a, c.Param("id"), req.Notes)
	respond(c, s, err)
}

func (hb *HandlerBundle) AddNoteHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s, err := hb.Lifecycle.AddNote(c.Request.Context(), a, c.Param("id"), req.Text)
	respond(c, s, err)
}

// SuggestionsHandler returns follow-up tasks for a completed session.
func (hb *HandlerBundle) SuggestionsHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	s, err := hb.Lifecycle.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if s.Status != models.SessionCompleted {
		utils.RespondError(c, apperrors.New(apperrors.KindInvalidTransition,
			"suggestions are only available for completed sessions, session %s is %s", s.ID, s.Status))
		return
	}
	if hb.Copy == nil {
		utils.RespondError(c, errors.New("copywriter not configured"))
		return
	}
	c.JSON(http.StatusOK, hb.Copy.FollowUpTasks(c.Request.Context(), s))
}

func respond(c *gin.Context, s *models.Session, err error) {
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
