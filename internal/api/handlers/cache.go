package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/cache"
)

// TokenCacheClearer is the slice of the token manager the cache handler needs.
type TokenCacheClearer interface {
	ClearCache(ctx context.Context) error
}

// StatsProvider exposes the tiered-cache counters.
type StatsProvider interface {
	GetStats() cache.Stats
	RemoteAvailable() bool
}

// CacheHandler serves cache status and explicit cache clears.
type CacheHandler struct {
	master MasterDataProvider
	tokens TokenCacheClearer
	stats  StatsProvider
}

func NewCacheHandler(master MasterDataProvider, tokens TokenCacheClearer, stats StatsProvider) *CacheHandler {
	return &CacheHandler{master: master, tokens: tokens, stats: stats}
}

// GetStatus reports per-dataset cache state plus tier counters.
func (h *CacheHandler) GetStatus(c *gin.Context) {
	stats := h.stats.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"datasets":   h.master.CacheStatus(c.Request.Context()),
			"remoteTier": h.stats.RemoteAvailable(),
			"cacheStats": stats,
		},
	})
}

// Clear drops every cached artifact: both datasets and the token.
func (h *CacheHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.master.ClearCache(ctx); err != nil {
		logrus.WithError(err).Warn("master cache clear incomplete")
	}
	if err := h.tokens.ClearCache(ctx); err != nil {
		logrus.WithError(err).Warn("token cache clear incomplete")
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
