package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jurisearch/backend/internal/delivery/http/dto"
	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/usecase/ingest"
)

type IngestHandler struct {
	pipeline *ingest.Pipeline
}

func NewIngestHandler(pipeline *ingest.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// IngestCase ingests one known document path into the case store.
func (h *IngestHandler) IngestCase(c *fiber.Ctx) error {
	var req dto.IngestCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
	}
	if req.FilePath == "" {
		return respondError(c, apperr.New(apperr.KindInvalidArgument, "filePath is required"))
	}

	caseID, chunks, err := h.pipeline.IngestFile(c.Context(), req.FilePath)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.IngestCaseResponse{CaseID: caseID, Chunks: chunks})
}

// ReindexFolder reprocesses a folder of documents, optionally dropping
// all existing cases first.
func (h *IngestHandler) ReindexFolder(c *fiber.Ctx) error {
	var req dto.ReindexFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
	}
	if req.FolderPath == "" {
		return respondError(c, apperr.New(apperr.KindInvalidArgument, "folderPath is required"))
	}

	summary, err := h.pipeline.ReindexFolder(c.Context(), req.FolderPath, req.DropExisting)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// IngestScraped ingests pre-extracted text files listed in a scraper
// metadata CSV, optionally dropping all existing cases first.
func (h *IngestHandler) IngestScraped(c *fiber.Ctx) error {
	var req dto.IngestScrapedRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
	}
	if req.MetadataCSVPath == "" {
		return respondError(c, apperr.New(apperr.KindInvalidArgument, "metadataCsvPath is required"))
	}

	summary, err := h.pipeline.IngestScraped(c.Context(), req.MetadataCSVPath, req.DropExisting)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
