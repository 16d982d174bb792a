package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cineloop/cineloop/cmd/cineloop/middleware"
	"github.com/cineloop/cineloop/cmd/cineloop/rules"
	"github.com/cineloop/cineloop/cmd/cineloop/service"
	"github.com/cineloop/cineloop/common/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// testLogger discards log output in tests
type testLogger struct{}

func (testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}
func (testLogger) Warn(msg string, keysAndValues ...interface{})  {}

type fakeSubmitter struct {
	outcome *service.SubmitOutcome
	err     error

	gotTitle string
	gotUser  models.User
}

func (f *fakeSubmitter) Submit(ctx context.Context, rawTitle string, user models.User) (*service.SubmitOutcome, error) {
	f.gotTitle = rawTitle
	f.gotUser = user
	return f.outcome, f.err
}

func newSubmitContext(t *testing.T, body string, user *models.User) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = NewRequestValidator()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chain/entries", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.UserKey, *user)
	}
	return c, rec
}

func TestCreateEntry_Accepted(t *testing.T) {
	entry := &models.ChainEntry{
		ID:       5,
		TMDBID:   27205,
		Title:    "Inception",
		Fid:      42,
		Username: "carol",
		Position: 5,
	}
	submitter := &fakeSubmitter{
		outcome: &service.SubmitOutcome{Entry: entry, Verdict: rules.Accept()},
	}
	h := NewSubmitHandler(submitter, testLogger{})

	user := models.User{Fid: 42, Username: "carol"}
	c, rec := newSubmitContext(t, `{"title": "inception"}`, &user)

	require.NoError(t, h.CreateEntry(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(27205), gjson.Get(body, "entry.tmdb_id").Int())
	assert.Equal(t, int64(5), gjson.Get(body, "entry.position").Int())
	assert.Equal(t, "inception", submitter.gotTitle)
	assert.Equal(t, user, submitter.gotUser)
}

func TestCreateEntry_RejectionStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		verdict    rules.Verdict
		wantStatus int
		wantReason string
	}{
		{"not found", rules.Reject(rules.ReasonNotFound), http.StatusUnprocessableEntity, "not_found"},
		{"letter mismatch", rules.RejectLetter('n'), http.StatusUnprocessableEntity, "letter_mismatch"},
		{"unlinkable title", rules.Reject(rules.ReasonUnlinkable), http.StatusUnprocessableEntity, "unlinkable_title"},
		{"duplicate", rules.Reject(rules.ReasonDuplicate), http.StatusConflict, "duplicate"},
		{"conflict", rules.Reject(rules.ReasonConflict), http.StatusConflict, "conflict"},
		{"daily limit", rules.Reject(rules.ReasonDailyLimit), http.StatusTooManyRequests, "daily_limit_reached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := &fakeSubmitter{outcome: &service.SubmitOutcome{Verdict: tt.verdict}}
			h := NewSubmitHandler(submitter, testLogger{})

			user := models.User{Fid: 42, Username: "carol"}
			c, rec := newSubmitContext(t, `{"title": "whatever"}`, &user)

			require.NoError(t, h.CreateEntry(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReason, gjson.Get(rec.Body.String(), "reason").String())
		})
	}
}

func TestCreateEntry_LetterMismatchMessageNamesTheLetter(t *testing.T) {
	submitter := &fakeSubmitter{
		outcome: &service.SubmitOutcome{Verdict: rules.RejectLetter('n')},
	}
	h := NewSubmitHandler(submitter, testLogger{})

	user := models.User{Fid: 42, Username: "carol"}
	c, rec := newSubmitContext(t, `{"title": "The Matrix"}`, &user)

	require.NoError(t, h.CreateEntry(c))
	assert.Contains(t, gjson.Get(rec.Body.String(), "message").String(), `"N"`)
}

func TestCreateEntry_MissingIdentity(t *testing.T) {
	h := NewSubmitHandler(&fakeSubmitter{}, testLogger{})

	c, rec := newSubmitContext(t, `{"title": "Inception"}`, nil)

	require.NoError(t, h.CreateEntry(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "identity_required", gjson.Get(rec.Body.String(), "reason").String())
}

func TestCreateEntry_InvalidBody(t *testing.T) {
	h := NewSubmitHandler(&fakeSubmitter{}, testLogger{})
	user := models.User{Fid: 42, Username: "carol"}

	t.Run("malformed json", func(t *testing.T) {
		c, rec := newSubmitContext(t, `{not json`, &user)
		require.NoError(t, h.CreateEntry(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		c, rec := newSubmitContext(t, `{}`, &user)
		require.NoError(t, h.CreateEntry(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("title too long", func(t *testing.T) {
		c, rec := newSubmitContext(t, fmt.Sprintf(`{"title": %q}`, strings.Repeat("a", 501)), &user)
		require.NoError(t, h.CreateEntry(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateEntry_MetadataUnavailable(t *testing.T) {
	submitter := &fakeSubmitter{err: fmt.Errorf("%w: connection refused", service.ErrMetadataUnavailable)}
	h := NewSubmitHandler(submitter, testLogger{})

	user := models.User{Fid: 42, Username: "carol"}
	c, rec := newSubmitContext(t, `{"title": "Inception"}`, &user)

	require.NoError(t, h.CreateEntry(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream_unavailable", gjson.Get(rec.Body.String(), "reason").String())
}

func TestCreateEntry_StoreFaultIsInternalError(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("connection reset")}
	h := NewSubmitHandler(submitter, testLogger{})

	user := models.User{Fid: 42, Username: "carol"}
	c, rec := newSubmitContext(t, `{"title": "Inception"}`, &user)

	require.NoError(t, h.CreateEntry(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", gjson.Get(rec.Body.String(), "reason").String())
}
