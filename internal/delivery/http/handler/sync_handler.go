package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jurisearch/backend/internal/delivery/http/dto"
	"github.com/jurisearch/backend/internal/domain/apperr"
	syncsvc "github.com/jurisearch/backend/internal/usecase/sync"
)

type SyncHandler struct {
	svc *syncsvc.Service
}

func NewSyncHandler(svc *syncsvc.Service) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// Check scans the archive for new decisions and stages them.
func (h *SyncHandler) Check(c *fiber.Ctx) error {
	req := dto.SyncCheckRequest{YearFrom: 2024, YearTo: 2025, MaxPerMonth: 10}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
	}

	result, err := h.svc.Check(c.Context(), req.YearFrom, req.YearTo, req.MaxPerMonth)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SyncCheckResponse{
		JobID:        result.JobID,
		Status:       string(result.Status),
		TotalChecked: result.TotalChecked,
		NewFound:     result.NewFound,
		Failed:       result.Failed,
	})
}

// Download fetches the bodies of staged pending decisions.
func (h *SyncHandler) Download(c *fiber.Ctx) error {
	var req dto.SyncBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
		}
	}

	result, err := h.svc.Download(c.Context(), req.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SyncDownloadResponse{
		JobID:      result.JobID,
		Downloaded: result.Succeeded,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Errors:     toItemErrors(result.Errors),
	})
}

// Ingest pushes downloaded decisions through the pipeline.
func (h *SyncHandler) Ingest(c *fiber.Ctx) error {
	var req dto.SyncBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, apperr.Wrap(apperr.KindInvalidArgument, "invalid request body", err))
		}
	}

	result, err := h.svc.Ingest(c.Context(), req.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SyncIngestResponse{
		JobID:    result.JobID,
		Ingested: result.Succeeded,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
		Errors:   toItemErrors(result.Errors),
	})
}

// Recover requeues decisions stuck in downloading.
func (h *SyncHandler) Recover(c *fiber.Ctx) error {
	requeued, err := h.svc.Recover(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SyncRecoverResponse{Requeued: requeued})
}

// Status reports staging counts and recent job history.
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	status, err := h.svc.Status(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SyncStatusResponse{Stats: status.Stats, RecentJobs: status.RecentJobs})
}

// Pending lists staged decisions, newest first.
func (h *SyncHandler) Pending(c *fiber.Ctx) error {
	pending, err := h.svc.ListPending(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SyncPendingResponse{Pending: pending})
}

func toItemErrors(errs []syncsvc.ItemError) []dto.SyncItemError {
	out := make([]dto.SyncItemError, len(errs))
	for i, e := range errs {
		out[i] = dto.SyncItemError{DocID: e.DocID, Error: e.Error}
	}
	return out
}
