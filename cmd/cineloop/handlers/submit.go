package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cineloop/cineloop/cmd/cineloop/middleware"
	"github.com/cineloop/cineloop/cmd/cineloop/rules"
	"github.com/cineloop/cineloop/cmd/cineloop/service"
	"github.com/cineloop/cineloop/common/models"
	"github.com/labstack/echo/v4"
)

// Submitter runs the submission protocol for one candidate title
type Submitter interface {
	Submit(ctx context.Context, rawTitle string, user models.User) (*service.SubmitOutcome, error)
}

// SubmitHandler handles chain submission requests
type SubmitHandler struct {
	submissions Submitter
	log         Logger
}

// NewSubmitHandler creates a new submit handler
func NewSubmitHandler(submissions Submitter, log Logger) *SubmitHandler {
	return &SubmitHandler{
		submissions: submissions,
		log:         log,
	}
}

type submitRequest struct {
	Title string `json:"title" validate:"required,min=1,max=500"`
}

// CreateEntry submits a movie title for appending to the chain
// POST /api/v1/chain/entries
func (h *SubmitHandler) CreateEntry(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := middleware.GetUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"reason":  "identity_required",
			"message": "Farcaster identity headers are required",
		})
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"reason":  "invalid_request",
			"message": "Request body must be JSON with a title field",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"reason":  "invalid_request",
			"message": "title is required",
		})
	}

	outcome, err := h.submissions.Submit(ctx, req.Title, user)
	if err != nil {
		if errors.Is(err, service.ErrMetadataUnavailable) {
			h.log.Warn("movie lookup unavailable", "title", req.Title, "error", err)
			return c.JSON(http.StatusBadGateway, map[string]interface{}{
				"reason":  "upstream_unavailable",
				"message": "Movie lookup is temporarily unavailable, try again shortly",
			})
		}

		h.log.Error("submission failed", "title", req.Title, "fid", user.Fid, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"reason":  "internal_error",
			"message": "Failed to submit movie",
		})
	}

	if !outcome.Verdict.Accepted {
		status, message := rejectionResponse(outcome.Verdict)
		return c.JSON(status, map[string]interface{}{
			"reason":  string(outcome.Verdict.Reason),
			"message": message,
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"entry": outcome.Entry,
	})
}

// rejectionResponse maps a rejecting verdict to its HTTP status and
// human-readable message. The machine-readable reason code travels
// alongside, unchanged.
func rejectionResponse(v rules.Verdict) (int, string) {
	switch v.Reason {
	case rules.ReasonNotFound:
		return http.StatusUnprocessableEntity, "Movie not found in TMDb database"
	case rules.ReasonLetterMismatch:
		letter := strings.ToUpper(string(v.Required))
		return http.StatusUnprocessableEntity, fmt.Sprintf("Movie must start with %q", letter)
	case rules.ReasonUnlinkable:
		return http.StatusUnprocessableEntity, "Title has no letters to link into the chain"
	case rules.ReasonDuplicate:
		return http.StatusConflict, "Movie already exists in the chain"
	case rules.ReasonConflict:
		return http.StatusConflict, "The chain moved while you were submitting, try again"
	case rules.ReasonDailyLimit:
		return http.StatusTooManyRequests, "You can only submit one movie per day"
	default:
		return http.StatusUnprocessableEntity, "Submission rejected"
	}
}
