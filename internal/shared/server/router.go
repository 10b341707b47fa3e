package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Roshanbtech/Extractify/internal/documents"
	"github.com/Roshanbtech/Extractify/internal/shared/server/middleware"
	"github.com/Roshanbtech/Extractify/internal/users"
)

// RouterDeps carries everything the router needs to mount the API.
type RouterDeps struct {
	Env             string
	CORSAllowOrigin []string
	Users           *users.Handler
	Documents       *documents.Handler
	RateLimitRules  map[string]middleware.RateLimitRule
}

// NewRouter builds the gin engine with the full middleware chain and all
// API routes mounted under /api/v1.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(deps.CORSAllowOrigin))
	router.Use(middleware.Auth())
	if len(deps.RateLimitRules) > 0 {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Rules: deps.RateLimitRules,
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/pdf/extract" {
					return "EXTRACT"
				}
				return ""
			},
		}))
	}

	api := router.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Users != nil {
		deps.Users.Register(api)
	}
	if deps.Documents != nil {
		deps.Documents.Register(api)
	}
	return router
}

// Addr formats a listen address for the given port.
func Addr(port string) string {
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
