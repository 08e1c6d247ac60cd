package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/clinovia/intake/internal/api/handlers"
	"github.com/clinovia/intake/internal/api/middleware"
)

type Deps struct {
	Chat           *handlers.ChatHandler
	Recommendation *handlers.RecommendationHandler
	Report         *handlers.ReportHandler
	Guideline      *handlers.GuidelineHandler
	WS             *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Server is up!"})
	})

	// Protected routes (JWT enforced only when a secret is configured)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/chat", d.Chat.Chat)

	auth.POST("/recommend", d.Recommendation.Recommend)
	auth.GET("/recommendation", d.Recommendation.Latest)

	auth.POST("/reports/upload", d.Report.Upload)
	auth.GET("/reports", d.Report.List)

	auth.POST("/guidelines", d.Guideline.Ingest)

	// WebSocket
	auth.GET("/ws/chat/:session_id", d.WS.ChatWS)
}
