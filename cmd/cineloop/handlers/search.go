package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cineloop/cineloop/common/clients"
	"github.com/cineloop/cineloop/common/models"
	"github.com/labstack/echo/v4"
)

// MovieSearcher resolves a raw title against the metadata source
type MovieSearcher interface {
	SearchMovie(ctx context.Context, rawTitle string) (*models.CandidateMovie, error)
}

// SearchHandler handles movie lookup requests from the submission screen
type SearchHandler struct {
	movies MovieSearcher
	log    Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(movies MovieSearcher, log Logger) *SearchHandler {
	return &SearchHandler{
		movies: movies,
		log:    log,
	}
}

// SearchMovie resolves a title to its first-ranked TMDb match
// GET /api/v1/movies/search?title=Inception
func (h *SearchHandler) SearchMovie(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"reason":  "title_required",
			"message": "Title is required",
		})
	}

	movie, err := h.movies.SearchMovie(c.Request().Context(), title)
	if err != nil {
		if errors.Is(err, clients.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"reason":  "not_found",
				"message": "Movie not found in TMDb database",
			})
		}

		h.log.Error("movie search failed", "title", title, "error", err)
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"reason":  "upstream_unavailable",
			"message": "Failed to search movie database",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"movie": movie,
	})
}
