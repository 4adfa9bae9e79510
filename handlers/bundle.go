package handlers

import (
	"context"
	"net/http"
	"time"

	"therapy/database/repository"
	"therapy/middleware"
	"therapy/models"
	"therapy/services/ledger"
	"therapy/services/lifecycle"
	"therapy/services/negotiation"
	"therapy/utils"

	"github.com/gin-gonic/gin"
)

// TokenIssuer mints participant tokens for joining call rooms.
type TokenIssuer interface {
	Token() (string, time.Time, error)
}

// TherapyCopy produces generated guidance text with its own fallback.
type TherapyCopy interface {
	Recommendations(ctx context.Context, req models.RecommendationRequest) (models.TherapyRecommendation, error)
	FollowUpTasks(ctx context.Context, s *models.Session) models.SessionSuggestions
}

// HandlerBundle groups the services behind the HTTP surface.
type HandlerBundle struct {
	Ledger     ledger.SlotLedger
	Lifecycle  lifecycle.LifecycleManager
	Negotiator negotiation.Negotiator
	Tokens     TokenIssuer
	Copy       TherapyCopy
	Profiles   repository.ProfileRepository
	Health     *utils.HealthMonitor
	Now        func() time.Time
}

func (hb *HandlerBundle) now() time.Time {
	if hb.Now != nil {
		return hb.Now()
	}
	return time.Now()
}

// actor returns the authenticated caller or writes a 401.
func actor(c *gin.Context) (models.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Not authenticated", Code: "unauthorized"})
	}
	return a, ok
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, utils.ErrorResponse{
		Message: "Invalid request payload",
		Code:    "invalid_input",
		Details: err.Error(),
	})
}
