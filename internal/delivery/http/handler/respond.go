package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jurisearch/backend/internal/delivery/http/dto"
	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
)

// respondError maps error kinds onto HTTP statuses; upstream-service
// failures surface as 502 so clients can tell them from our own bugs.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)

	status := fiber.StatusInternalServerError
	switch kind {
	case apperr.KindInvalidArgument:
		status = fiber.StatusBadRequest
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindConflict:
		status = fiber.StatusConflict
	case apperr.KindRateLimited:
		status = fiber.StatusTooManyRequests
	case apperr.KindConnector, apperr.KindBlocked, apperr.KindTransient,
		apperr.KindEmbedding, apperr.KindGeneration:
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: err.Error(),
		Kind:  string(kind),
	})
}

// parseFilters converts the wire filter shape into domain filters,
// rejecting malformed dates.
func parseFilters(f dto.SearchFilters) (entity.SearchFilters, error) {
	filters := entity.SearchFilters{
		Court:      f.Court,
		CaseNumber: f.CaseNumber,
	}
	if f.DateFrom != nil && *f.DateFrom != "" {
		date, err := time.Parse("2006-01-02", *f.DateFrom)
		if err != nil {
			return filters, apperr.Newf(apperr.KindInvalidArgument, "invalid dateFrom %q, want YYYY-MM-DD", *f.DateFrom)
		}
		filters.DateFrom = &date
	}
	if f.DateTo != nil && *f.DateTo != "" {
		date, err := time.Parse("2006-01-02", *f.DateTo)
		if err != nil {
			return filters, apperr.Newf(apperr.KindInvalidArgument, "invalid dateTo %q, want YYYY-MM-DD", *f.DateTo)
		}
		filters.DateTo = &date
	}
	return filters, nil
}
