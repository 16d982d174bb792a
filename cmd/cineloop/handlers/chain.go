package handlers

import (
	"context"
	"net/http"

	"github.com/cineloop/cineloop/cmd/cineloop/service"
	"github.com/cineloop/cineloop/common/models"
	"github.com/labstack/echo/v4"
)

// Logger interface for handler logging (subset of what's needed)
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ChainReader provides chain read operations
type ChainReader interface {
	Chain(ctx context.Context) ([]models.ChainEntry, error)
	Stats(ctx context.Context) (*service.ChainStats, error)
}

// ChainHandler handles chain read requests
type ChainHandler struct {
	chains ChainReader
	log    Logger
}

// NewChainHandler creates a new chain handler
func NewChainHandler(chains ChainReader, log Logger) *ChainHandler {
	return &ChainHandler{
		chains: chains,
		log:    log,
	}
}

// GetChain returns the full chain ordered by position
// GET /api/v1/chain
func (h *ChainHandler) GetChain(c echo.Context) error {
	entries, err := h.chains.Chain(c.Request().Context())
	if err != nil {
		h.log.Error("failed to load chain", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"reason":  "internal_error",
			"message": "Failed to fetch movie chain",
		})
	}

	if entries == nil {
		entries = []models.ChainEntry{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"chain": entries,
	})
}

// GetStats returns chain length, tail and the next required letter
// GET /api/v1/chain/stats
func (h *ChainHandler) GetStats(c echo.Context) error {
	stats, err := h.chains.Stats(c.Request().Context())
	if err != nil {
		h.log.Error("failed to load chain stats", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"reason":  "internal_error",
			"message": "Failed to fetch chain stats",
		})
	}

	return c.JSON(http.StatusOK, stats)
}
