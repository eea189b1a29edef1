package entity

import "time"

type JobKind string

const (
	JobKindCheck    JobKind = "check"
	JobKindDownload JobKind = "download"
	JobKindIngest   JobKind = "ingest"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// SyncJob records one run of a discovery/download/ingest batch. At most
// one running job per kind may exist at a time.
type SyncJob struct {
	ID           int64      `db:"id" json:"id"`
	Kind         JobKind    `db:"kind" json:"kind"`
	Status       JobStatus  `db:"status" json:"status"`
	StartedAt    time.Time  `db:"started_at" json:"startedAt"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt"`
	TotalChecked int        `db:"total_checked" json:"totalChecked"`
	NewFound     int        `db:"new_found" json:"newFound"`
	Downloaded   int        `db:"downloaded" json:"downloaded"`
	Failed       int        `db:"failed" json:"failed"`
	YearFrom     *int       `db:"year_from" json:"yearFrom"`
	YearTo       *int       `db:"year_to" json:"yearTo"`
	ErrorMessage *string    `db:"error_message" json:"errorMessage"`
}

// JobCounters carries the mutable counters written back when a job
// completes or fails.
type JobCounters struct {
	TotalChecked int
	NewFound     int
	Downloaded   int
	Failed       int
}

type DecisionStatus string

const (
	DecisionPending     DecisionStatus = "pending"
	DecisionDownloading DecisionStatus = "downloading"
	DecisionDownloaded  DecisionStatus = "downloaded"
	DecisionIngesting   DecisionStatus = "ingesting"
	DecisionIngested    DecisionStatus = "ingested"
	DecisionFailed      DecisionStatus = "failed"
)

// PendingDecision is a staged decision between discovery and full
// ingestion. DocID is the archive's document id and the natural key.
type PendingDecision struct {
	ID           int64          `db:"id" json:"id"`
	SyncJobID    *int64         `db:"sync_job_id" json:"syncJobId"`
	DocID        string         `db:"doc_id" json:"docId"`
	DocketNo     string         `db:"docket_no" json:"docketNo"`
	Title        string         `db:"title" json:"title"`
	DecisionDate *time.Time     `db:"decision_date" json:"decisionDate"`
	Ponente      *string        `db:"ponente" json:"ponente"`
	Division     *string        `db:"division" json:"division"`
	Keywords     *string        `db:"keywords" json:"keywords"`
	SourceURL    string         `db:"source_url" json:"sourceUrl"`
	FilePath     *string        `db:"file_path" json:"filePath"`
	Status       DecisionStatus `db:"status" json:"status"`
	ErrorMessage *string        `db:"error_message" json:"errorMessage"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// MonthRef points at one month listing page in the external archive.
type MonthRef struct {
	Year  int
	Month string
	URL   string
}
