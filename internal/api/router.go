package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/healthtrack-be/internal/api/middleware"
)

// RouterConfig holds everything the HTTP surface is assembled from
type RouterConfig struct {
	Symptoms           *SymptomHandler
	Chat               gin.HandlerFunc // websocket chat; optional
	APIToken           string
	CORSOrigins        []string
	RateLimitPerMinute int
	LogOutput          io.Writer // access log; nil means gin.DefaultWriter
}

// NewRouter builds the gin engine with middleware and routes registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.AccessLog(cfg.LogOutput), gin.Recovery())

	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.PerIP(cfg.RateLimitPerMinute))

	router.GET("/health", Health)

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.BearerToken(cfg.APIToken))
	{
		apiGroup.POST("/log", cfg.Symptoms.LogText)
		apiGroup.POST("/entries", cfg.Symptoms.CreateEntry)
		apiGroup.GET("/entries", cfg.Symptoms.ListEntries)
		apiGroup.GET("/entries/:id", cfg.Symptoms.GetEntry)
		apiGroup.GET("/summary", cfg.Symptoms.GetSummary)
		apiGroup.POST("/route", cfg.Symptoms.Route)
	}

	if cfg.Chat != nil {
		router.GET("/ws/chat", middleware.BearerTokenOrQuery(cfg.APIToken), cfg.Chat)
	}

	return router
}

// Routes lists the registered endpoints for the startup banner
func Routes(withChat bool) []string {
	routes := []string{
		"GET    /health",
		"POST   /api/log",
		"POST   /api/entries",
		"GET    /api/entries",
		"GET    /api/entries/:id",
		"GET    /api/summary",
		"POST   /api/route",
	}
	if withChat {
		routes = append(routes, "WS     /ws/chat")
	}
	return routes
}
