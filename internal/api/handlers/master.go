package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stockboard/marketdata-go/internal/masterdata"
)

// MasterDataProvider is the slice of the master-data service the handlers need.
type MasterDataProvider interface {
	GetDataset(ctx context.Context, kind masterdata.Kind, forceRefresh bool) *masterdata.Dataset
	Lookup(ctx context.Context, kind masterdata.Kind, symbol string) (masterdata.Record, bool)
	CacheStatus(ctx context.Context) map[masterdata.Kind]masterdata.Status
	ClearCache(ctx context.Context) error
}

// MasterHandler serves ticker metadata used by the dashboard for search and
// symbol validation.
type MasterHandler struct {
	master MasterDataProvider
}

func NewMasterHandler(master MasterDataProvider) *MasterHandler {
	return &MasterHandler{master: master}
}

func parseKind(raw string) (masterdata.Kind, bool) {
	switch masterdata.Kind(raw) {
	case masterdata.KindDomestic:
		return masterdata.KindDomestic, true
	case masterdata.KindForeign:
		return masterdata.KindForeign, true
	}
	return "", false
}

// GetDataset returns the full dataset for one kind, resyncing when the
// cache is stale or ?refresh=true. Sync failures degrade to a smaller (or
// empty) dataset, never an error response.
func (h *MasterHandler) GetDataset(c *gin.Context) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unknown dataset kind, expected 'domestic' or 'foreign'",
		})
		return
	}

	force := c.Query("refresh") == "true"
	ds := h.master.GetDataset(c.Request.Context(), kind, force)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"records":   ds.Records,
			"count":     len(ds.Records),
			"createdAt": ds.CreatedAt,
			"expiresAt": ds.ExpiresAt,
		},
	})
}

// LookupSymbol resolves one symbol in the cached dataset.
func (h *MasterHandler) LookupSymbol(c *gin.Context) {
	kind, ok := parseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unknown dataset kind, expected 'domestic' or 'foreign'",
		})
		return
	}

	record, found := h.master.Lookup(c.Request.Context(), kind, c.Param("symbol"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "symbol not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}
