package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jurisearch/backend/internal/delivery/http/dto"
	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/usecase/rag"
)

type RagHandler struct {
	svc *rag.Service
}

func NewRagHandler(svc *rag.Service) *RagHandler {
	return &RagHandler{svc: svc}
}

// Search returns ranked chunks for a query, no generation step.
func (h *RagHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
	}
	filters, err := parseFilters(req.SearchFilters)
	if err != nil {
		return respondError(c, err)
	}

	results, err := h.svc.Search(c.Context(), req.Query, filters, req.TopK)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SearchResponse{Results: results})
}

// Ask answers a question grounded in retrieved chunks.
func (h *RagHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
	}
	filters, err := parseFilters(req.SearchFilters)
	if err != nil {
		return respondError(c, err)
	}

	answer, err := h.svc.Ask(c.Context(), req.Question, filters, req.TopK)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AskResponse{
		Answer:           answer.Answer,
		SupportingChunks: answer.SupportingChunks,
		CaseIDs:          answer.CaseIDs,
	})
}
