package routes

import (
	"github.com/cineloop/cineloop/cmd/cineloop/container"
	"github.com/cineloop/cineloop/cmd/cineloop/handlers"
	"github.com/cineloop/cineloop/cmd/cineloop/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterChainRoutes registers chain read and submission routes
func RegisterChainRoutes(e *echo.Echo, c *container.Container) {
	// Create handlers with dependencies
	chainHandler := handlers.NewChainHandler(c.ChainService, c.Components.Logger)
	submitHandler := handlers.NewSubmitHandler(c.SubmissionService, c.Components.Logger)

	identity := middleware.ExtractUser(c.Components.Config.Game.AllowAnonymous)

	// Chain routes
	chain := e.Group("/api/v1/chain")
	{
		chain.GET("", chainHandler.GetChain)       // GET /api/v1/chain
		chain.GET("/stats", chainHandler.GetStats) // GET /api/v1/chain/stats

		// Submissions need the acting user's identity
		chain.POST("/entries", submitHandler.CreateEntry, identity) // POST /api/v1/chain/entries
	}
}
