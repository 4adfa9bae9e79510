package routes

import (
	"time"

	"therapy/handlers"
	"therapy/middleware"
	"therapy/models"
	"therapy/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the shared middleware.
type Options struct {
	JWTSecret         string
	MaxRequestsPerMin int
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterSlotRoutes registers slot ledger endpoints.
func RegisterSlotRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	slots := api.Group("/slots")
	{
		slots.GET("", hb.ListSlotsHandler)
		slots.GET("/available", hb.ListAvailableSlotsHandler)

		// Only therapists own slots.
		owner := slots.Group("")
		owner.Use(middleware.RequireRole(models.RoleTherapist))
		owner.POST("", hb.CreateSlotHandler)
		owner.DELETE("/:id", hb.RemoveSlotHandler)
	}
}

// RegisterSessionRoutes registers lifecycle and call negotiation endpoints.
func RegisterSessionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", middleware.RequireRole(models.RolePatient), hb.BookSessionHandler)
		sessions.GET("", hb.ListSessionsHandler)
		sessions.GET("/:id", hb.GetSessionHandler)
		sessions.POST("/:id/confirm", hb.ConfirmSessionHandler)
		sessions.POST("/:id/decline", hb.DeclineSessionHandler)
		sessions.POST("/:id/cancel", hb.CancelSessionHandler)
		sessions.POST("/:id/complete", hb.CompleteSessionHandler)
		sessions.POST("/:id/notes", hb.AddNoteHandler)
		sessions.GET("/:id/suggestions", hb.SuggestionsHandler)

		sessions.POST("/:id/call/request", hb.RequestCallHandler)
		sessions.POST("/:id/call/respond", hb.RespondToCallHandler)
		sessions.POST("/:id/call/activate", hb.ActivateCallHandler)
		sessions.POST("/:id/call/end", hb.EndCallHandler)
	}
	api.GET("/calls/token", hb.CallTokenHandler)
}

// RegisterTherapyRoutes registers generated guidance and profile endpoints.
func RegisterTherapyRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.POST("/therapy/recommendations", hb.TherapyRecommendationsHandler)
	api.GET("/profiles/me", hb.GetProfileHandler)
	api.PUT("/profiles/me", hb.UpsertProfileHandler)
}

// RegisterHealthRoutes registers health and metrics endpoints.
func RegisterHealthRoutes(r *gin.Engine, hb *handlers.HandlerBundle, gatherer prometheus.Gatherer) {
	r.GET("/health", hb.HealthHandler)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	r.Use(utils.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(opts.MaxRequestsPerMin))

	RegisterHealthRoutes(r, hb, opts.Gatherer)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(opts.JWTSecret))
	RegisterSlotRoutes(api, hb)
	RegisterSessionRoutes(api, hb)
	RegisterTherapyRoutes(api, hb)
}
