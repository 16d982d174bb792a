package routes

import (
	"github.com/cineloop/cineloop/cmd/cineloop/container"
	"github.com/cineloop/cineloop/cmd/cineloop/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterSearchRoutes registers movie metadata lookup routes
func RegisterSearchRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSearchHandler(c.TMDB, c.Components.Logger)

	movies := e.Group("/api/v1/movies")
	{
		movies.GET("/search", h.SearchMovie) // GET /api/v1/movies/search?title=Inception
	}
}
