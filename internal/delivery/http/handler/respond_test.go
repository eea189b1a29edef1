package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisearch/backend/internal/delivery/http/dto"
	"github.com/jurisearch/backend/internal/domain/apperr"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{apperr.New(apperr.KindInvalidArgument, "bad input"), http.StatusBadRequest, "invalid_argument"},
		{apperr.New(apperr.KindNotFound, "no such case"), http.StatusNotFound, "not_found"},
		{apperr.New(apperr.KindConflict, "job already running"), http.StatusConflict, "conflict"},
		{apperr.New(apperr.KindRateLimited, "archive throttled us"), http.StatusTooManyRequests, "rate_limited"},
		{apperr.New(apperr.KindConnector, "archive unreachable"), http.StatusBadGateway, "connector"},
		{apperr.New(apperr.KindBlocked, "block page"), http.StatusBadGateway, "blocked"},
		{apperr.New(apperr.KindEmbedding, "embedding backend down"), http.StatusBadGateway, "embedding"},
		{apperr.New(apperr.KindStore, "insert failed"), http.StatusInternalServerError, "store"},
		{errors.New("unclassified"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.wantKind, func(t *testing.T) {
			app := fiber.New()
			app.Get("/boom", func(c *fiber.Ctx) error {
				return respondError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestParseFilters(t *testing.T) {
	court := "PH Supreme Court"
	from := "2024-01-01"
	to := "2024-12-31"

	filters, err := parseFilters(dto.SearchFilters{Court: &court, DateFrom: &from, DateTo: &to})
	require.NoError(t, err)

	require.NotNil(t, filters.Court)
	assert.Equal(t, court, *filters.Court)
	require.NotNil(t, filters.DateFrom)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), *filters.DateFrom)
	require.NotNil(t, filters.DateTo)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), *filters.DateTo)
}

func TestParseFiltersRejectsBadDate(t *testing.T) {
	bad := "01/15/2024"
	_, err := parseFilters(dto.SearchFilters{DateFrom: &bad})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestParseFiltersEmptyStringsIgnored(t *testing.T) {
	empty := ""
	filters, err := parseFilters(dto.SearchFilters{DateFrom: &empty, DateTo: &empty})
	require.NoError(t, err)
	assert.Nil(t, filters.DateFrom)
	assert.Nil(t, filters.DateTo)
}
