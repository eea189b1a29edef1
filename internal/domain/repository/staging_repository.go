package repository

import (
	"context"

	"github.com/jurisearch/backend/internal/domain/entity"
)

type StagingRepository interface {
	// CreateJob opens a running sync job. Returns a conflict error when
	// a job of the same kind is already running.
	CreateJob(ctx context.Context, kind entity.JobKind, yearFrom, yearTo *int) (int64, error)
	CompleteJob(ctx context.Context, id int64, counters entity.JobCounters) error
	FailJob(ctx context.Context, id int64, counters entity.JobCounters, message string) error
	FindJob(ctx context.Context, id int64) (*entity.SyncJob, error)
	RecentJobs(ctx context.Context, limit int) ([]entity.SyncJob, error)

	// StageDecisions inserts discovered decisions, skipping doc ids
	// already present, and returns how many rows were actually created.
	StageDecisions(ctx context.Context, jobID int64, decisions []entity.PendingDecision) (int, error)
	// ListByStatus returns staged decisions in a status, oldest first.
	// limit <= 0 means no limit.
	ListByStatus(ctx context.Context, status entity.DecisionStatus, limit int) ([]entity.PendingDecision, error)
	ListAll(ctx context.Context) ([]entity.PendingDecision, error)
	FindDecision(ctx context.Context, id int64) (*entity.PendingDecision, error)

	// ClaimStatus atomically moves a decision from one status to the
	// next. A false return means another worker claimed the row first.
	ClaimStatus(ctx context.Context, id int64, from, to entity.DecisionStatus) (bool, error)
	// MarkDownloaded records the stored file path while moving
	// downloading -> downloaded.
	MarkDownloaded(ctx context.Context, id int64, filePath string) (bool, error)
	MarkFailed(ctx context.Context, id int64, message string) error
	// RequeueDownloading moves stale downloading rows back to pending.
	// Operator-triggered recovery, never automatic.
	RequeueDownloading(ctx context.Context) (int64, error)

	StatusCounts(ctx context.Context) (map[entity.DecisionStatus]int, error)
}
