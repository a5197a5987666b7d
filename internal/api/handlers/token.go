package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/token"
)

// TokenProvider is the slice of the token manager the handler needs.
type TokenProvider interface {
	GetToken(ctx context.Context) (token.CachedToken, error)
}

// TokenHandler exposes the bearer token to the dashboard's API-route layer,
// which attaches it to upstream price and ranking calls.
type TokenHandler struct {
	tokens TokenProvider
}

func NewTokenHandler(tokens TokenProvider) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// GetToken returns a currently valid bearer token. A failed credential
// exchange is the one hard failure in this subsystem; dependent features
// surface it as a generic unavailability condition.
func (h *TokenHandler) GetToken(c *gin.Context) {
	tok, err := h.tokens.GetToken(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("token request failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "market data temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":     tok.Value,
			"expiresAt": tok.ExpiresAt,
		},
	})
}
