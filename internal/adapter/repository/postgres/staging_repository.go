package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
	"github.com/jurisearch/backend/internal/domain/repository"
)

const pgUniqueViolation = "23505"

type stagingRepository struct {
	db *sqlx.DB
}

func NewStagingRepository(db *sqlx.DB) repository.StagingRepository {
	return &stagingRepository{db: db}
}

// CreateJob inserts a running job row. A partial unique index on
// (kind) WHERE status = 'running' enforces the one-running-job-per-kind
// invariant, so a concurrent second run fails fast with a conflict.
func (r *stagingRepository) CreateJob(ctx context.Context, kind entity.JobKind, yearFrom, yearTo *int) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sync_jobs (kind, status, year_from, year_to)
		VALUES ($1, 'running', $2, $3)
		RETURNING id
	`, kind, yearFrom, yearTo).Scan(&id)
	if isUniqueViolation(err) {
		return 0, apperr.Newf(apperr.KindConflict, "a %s job is already running", kind)
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStore, "create sync job", err)
	}
	return id, nil
}

func (r *stagingRepository) CompleteJob(ctx context.Context, id int64, counters entity.JobCounters) error {
	return r.finishJob(ctx, id, entity.JobStatusCompleted, counters, nil)
}

func (r *stagingRepository) FailJob(ctx context.Context, id int64, counters entity.JobCounters, message string) error {
	return r.finishJob(ctx, id, entity.JobStatusFailed, counters, &message)
}

func (r *stagingRepository) finishJob(ctx context.Context, id int64, status entity.JobStatus, counters entity.JobCounters, message *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = $1,
		    completed_at = now(),
		    total_checked = $2,
		    new_found = $3,
		    downloaded = $4,
		    failed = $5,
		    error_message = $6
		WHERE id = $7 AND status = 'running'
	`, status, counters.TotalChecked, counters.NewFound, counters.Downloaded, counters.Failed, message, id)
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "finish sync job", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Newf(apperr.KindConflict, "sync job %d is not running", id)
	}
	return nil
}

func (r *stagingRepository) FindJob(ctx context.Context, id int64) (*entity.SyncJob, error) {
	var job entity.SyncJob
	err := r.db.GetContext(ctx, &job, `
		SELECT id, kind, status, started_at, completed_at, total_checked, new_found, downloaded, failed,
		       year_from, year_to, error_message
		FROM sync_jobs
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindNotFound, "sync job %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "find sync job", err)
	}
	return &job, nil
}

func (r *stagingRepository) RecentJobs(ctx context.Context, limit int) ([]entity.SyncJob, error) {
	var jobs []entity.SyncJob
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT id, kind, status, started_at, completed_at, total_checked, new_found, downloaded, failed,
		       year_from, year_to, error_message
		FROM sync_jobs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "list sync jobs", err)
	}
	return jobs, nil
}

// StageDecisions inserts discovered decisions with insert-if-absent
// semantics on doc_id, so overlapping check ranges never duplicate rows.
func (r *stagingRepository) StageDecisions(ctx context.Context, jobID int64, decisions []entity.PendingDecision) (int, error) {
	inserted := 0
	for i := range decisions {
		d := &decisions[i]
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO pending_decisions
				(sync_job_id, doc_id, docket_no, title, decision_date, ponente, division, keywords, source_url, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
			ON CONFLICT (doc_id) DO NOTHING
		`, jobID, d.DocID, d.DocketNo, d.Title, d.DecisionDate, d.Ponente, d.Division, d.Keywords, d.SourceURL)
		if err != nil {
			return inserted, apperr.Wrap(apperr.KindStore, "stage decision "+d.DocID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *stagingRepository) ListByStatus(ctx context.Context, status entity.DecisionStatus, limit int) ([]entity.PendingDecision, error) {
	query := `
		SELECT id, sync_job_id, doc_id, docket_no, title, decision_date, ponente, division, keywords,
		       source_url, file_path, status, error_message, created_at, updated_at
		FROM pending_decisions
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`
	args := []any{status}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var decisions []entity.PendingDecision
	if err := r.db.SelectContext(ctx, &decisions, query, args...); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "list decisions by status", err)
	}
	return decisions, nil
}

func (r *stagingRepository) ListAll(ctx context.Context) ([]entity.PendingDecision, error) {
	var decisions []entity.PendingDecision
	err := r.db.SelectContext(ctx, &decisions, `
		SELECT id, sync_job_id, doc_id, docket_no, title, decision_date, ponente, division, keywords,
		       source_url, file_path, status, error_message, created_at, updated_at
		FROM pending_decisions
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "list decisions", err)
	}
	return decisions, nil
}

func (r *stagingRepository) FindDecision(ctx context.Context, id int64) (*entity.PendingDecision, error) {
	var d entity.PendingDecision
	err := r.db.GetContext(ctx, &d, `
		SELECT id, sync_job_id, doc_id, docket_no, title, decision_date, ponente, division, keywords,
		       source_url, file_path, status, error_message, created_at, updated_at
		FROM pending_decisions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindNotFound, "decision %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "find decision", err)
	}
	return &d, nil
}

// ClaimStatus is the compare-and-swap transition every worker
// coordinates through: the update only lands when the row is still in
// the expected prior status.
func (r *stagingRepository) ClaimStatus(ctx context.Context, id int64, from, to entity.DecisionStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_decisions
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, apperr.Wrap(apperr.KindStore, "claim decision status", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *stagingRepository) MarkDownloaded(ctx context.Context, id int64, filePath string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_decisions
		SET status = 'downloaded', file_path = $1, error_message = NULL, updated_at = now()
		WHERE id = $2 AND status = 'downloading'
	`, filePath, id)
	if err != nil {
		return false, apperr.Wrap(apperr.KindStore, "mark decision downloaded", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *stagingRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_decisions
		SET status = 'failed', error_message = $1, updated_at = now()
		WHERE id = $2
	`, message, id)
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "mark decision failed", err)
	}
	return nil
}

func (r *stagingRepository) RequeueDownloading(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_decisions
		SET status = 'pending', error_message = NULL, updated_at = now()
		WHERE status = 'downloading'
	`)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStore, "requeue downloading decisions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *stagingRepository) StatusCounts(ctx context.Context) (map[entity.DecisionStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM pending_decisions
		GROUP BY status
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "count decisions", err)
	}
	defer rows.Close()

	counts := map[entity.DecisionStatus]int{
		entity.DecisionPending:     0,
		entity.DecisionDownloading: 0,
		entity.DecisionDownloaded:  0,
		entity.DecisionIngesting:   0,
		entity.DecisionIngested:    0,
		entity.DecisionFailed:      0,
	}
	for rows.Next() {
		var status entity.DecisionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperr.Wrap(apperr.KindStore, "scan decision count", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
