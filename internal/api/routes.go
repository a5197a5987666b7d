package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockboard/marketdata-go/internal/api/handlers"
	"github.com/stockboard/marketdata-go/internal/cache"
	"github.com/stockboard/marketdata-go/internal/database"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	RemoteCache string `json:"remoteCache"`
	LocalCache  string `json:"localCache"`
}

// Deps carries everything the route layer needs. The dashboard's API-route
// code is the only consumer of these endpoints.
type Deps struct {
	Redis  *database.RedisClient // nil when the remote tier is disabled
	Cache  *cache.TieredCache
	Tokens handlers.TokenProvider
	TokenC handlers.TokenCacheClearer
	Master handlers.MasterDataProvider
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	// Health check endpoint
	router.GET("/health", healthCheck(deps.Redis))

	tokenHandler := handlers.NewTokenHandler(deps.Tokens)
	masterHandler := handlers.NewMasterHandler(deps.Master)
	cacheHandler := handlers.NewCacheHandler(deps.Master, deps.TokenC, deps.Cache)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/token", tokenHandler.GetToken)

		master := v1.Group("/master")
		{
			master.GET("/:kind", masterHandler.GetDataset)
			master.GET("/:kind/symbols/:symbol", masterHandler.LookupSymbol)
		}

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.GET("/status", cacheHandler.GetStatus)
			cacheGroup.DELETE("", cacheHandler.Clear)
		}
	}
}

func healthCheck(redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				RemoteCache: "disabled",
				LocalCache:  "ok",
			},
		}

		if redis != nil {
			if err := redis.HealthCheck(c.Request.Context()); err != nil {
				response.Services.RemoteCache = "unhealthy"
			} else {
				response.Services.RemoteCache = "ok"
			}
		}

		c.JSON(http.StatusOK, response)
	}
}
