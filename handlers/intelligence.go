package handlers

import (
	"net/http"

	"therapy/models"
	"therapy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TherapyRecommendationsHandler returns guidance for an assessed severity.
// Generation failures fall back to canned content, so only bad input fails.
func (hb *HandlerBundle) TherapyRecommendationsHandler(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := hb.Copy.Recommendations(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.GetLogger().Debug("Therapy recommendations served",
		zap.String("userId", a.ID), zap.String("severity", string(req.Severity)), zap.Bool("generated", rec.Generated))
	c.JSON(http.StatusOK, rec)
}
