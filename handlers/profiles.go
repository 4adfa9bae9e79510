package handlers

import (
	"errors"
	"net/http"

	"therapy/apperrors"
	"therapy/database"
	"therapy/models"
	"therapy/utils"

	"github.com/gin-gonic/gin"
)

// UpsertProfileHandler stores the caller's display name and push token.
func (hb *HandlerBundle) UpsertProfileHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p := &models.Profile{
		ID:          a.ID,
		Role:        a.Role,
		DisplayName: req.DisplayName,
		FCMToken:    req.FCMToken,
		Timezone:    req.Timezone,
		UpdatedAt:   hb.now().UTC(),
	}
	if err := hb.Profiles.Upsert(c.Request.Context(), p); err != nil {
		utils.RespondError(c, apperrors.Wrap(apperrors.KindInternal, err, "upsert profile"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (hb *HandlerBundle) GetProfileHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	p, err := hb.Profiles.GetByID(c.Request.Context(), a.ID)
	if errors.Is(err, database.ErrNotFound) {
		utils.RespondError(c, apperrors.New(apperrors.KindNotFound, "no profile for %s", a.ID))
		return
	}
	if err != nil {
		utils.RespondError(c, apperrors.Wrap(apperrors.KindInternal, err, "get profile"))
		return
	}
	c.JSON(http.StatusOK, p)
}
