package dto

import "github.com/jurisearch/backend/internal/domain/entity"

type SyncCheckRequest struct {
	YearFrom    int `json:"yearFrom"`
	YearTo      int `json:"yearTo"`
	MaxPerMonth int `json:"maxPerMonth"`
}

type SyncCheckResponse struct {
	JobID        int64  `json:"jobId"`
	Status       string `json:"status"`
	TotalChecked int    `json:"totalChecked"`
	NewFound     int    `json:"newFound"`
	Failed       int    `json:"failed"`
}

type SyncBatchRequest struct {
	Limit int `json:"limit"`
}

type SyncDownloadResponse struct {
	JobID      int64           `json:"jobId"`
	Downloaded int             `json:"downloaded"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Errors     []SyncItemError `json:"errors"`
}

type SyncIngestResponse struct {
	JobID    int64           `json:"jobId"`
	Ingested int             `json:"ingested"`
	Skipped  int             `json:"skipped"`
	Failed   int             `json:"failed"`
	Errors   []SyncItemError `json:"errors"`
}

type SyncItemError struct {
	DocID string `json:"docId"`
	Error string `json:"error"`
}

type SyncRecoverResponse struct {
	Requeued int64 `json:"requeued"`
}

type SyncStatusResponse struct {
	Stats      map[entity.DecisionStatus]int `json:"stats"`
	RecentJobs []entity.SyncJob              `json:"recentJobs"`
}

type SyncPendingResponse struct {
	Pending []entity.PendingDecision `json:"pending"`
}
