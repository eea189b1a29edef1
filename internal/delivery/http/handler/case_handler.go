package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jurisearch/backend/internal/delivery/http/dto"
	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/repository"
)

type CaseHandler struct {
	cases repository.CaseRepository
}

func NewCaseHandler(cases repository.CaseRepository) *CaseHandler {
	return &CaseHandler{cases: cases}
}

// Get returns a case with its chunks in order.
func (h *CaseHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return respondError(c, apperr.New(apperr.KindInvalidArgument, "case id must be an integer"))
	}

	caseRecord, err := h.cases.FindByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	chunks, err := h.cases.FindChunksByCaseID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.CaseResponse{Case: *caseRecord, Chunks: chunks})
}
