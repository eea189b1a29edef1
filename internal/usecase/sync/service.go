// Package sync runs the staged acquisition pipeline: check discovers
// decisions in the external archive, download fetches their bodies,
// ingest turns them into searchable cases. The batches may run
// concurrently with each other; within a batch, workers coordinate
// exclusively through the staging store's compare-and-swap status
// transitions, so they are restartable and never share memory.
package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
	"github.com/jurisearch/backend/internal/domain/repository"
)

const fetchMaxRetries = 3

// SourceConnector lists and fetches decisions from the external
// archive.
type SourceConnector interface {
	ListMonths(ctx context.Context, yearFrom, yearTo int) ([]entity.MonthRef, error)
	ListDecisions(ctx context.Context, monthURL string, max int) ([]entity.PendingDecision, error)
	FetchDecisionText(ctx context.Context, url string) (string, error)
}

// IngestPipeline is the downstream stage that turns a downloaded
// document into a case with embedded chunks.
type IngestPipeline interface {
	IngestFile(ctx context.Context, path string) (caseID int64, chunkCount int, err error)
}

type Service struct {
	staging     repository.StagingRepository
	connector   SourceConnector
	pipeline    IngestPipeline
	downloadDir string
	concurrency int
	logger      *zap.Logger
}

func NewService(
	staging repository.StagingRepository,
	connector SourceConnector,
	pipeline IngestPipeline,
	downloadDir string,
	concurrency int,
	logger *zap.Logger,
) *Service {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		staging:     staging,
		connector:   connector,
		pipeline:    pipeline,
		downloadDir: downloadDir,
		concurrency: concurrency,
		logger:      logger,
	}
}

// CheckResult reports one discovery run.
type CheckResult struct {
	JobID        int64            `json:"jobId"`
	Status       entity.JobStatus `json:"status"`
	TotalChecked int              `json:"totalChecked"`
	NewFound     int              `json:"newFound"`
	Failed       int              `json:"failed"`
}

// Check scans the archive for decisions in the year range and stages
// the ones not seen before. Re-running over an overlapping range never
// duplicates rows: staging is insert-if-absent on the document id.
func (s *Service) Check(ctx context.Context, yearFrom, yearTo, maxPerMonth int) (*CheckResult, error) {
	if yearFrom > yearTo {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "year_from %d is after year_to %d", yearFrom, yearTo)
	}

	jobID, err := s.staging.CreateJob(ctx, entity.JobKindCheck, &yearFrom, &yearTo)
	if err != nil {
		return nil, err
	}

	counters := entity.JobCounters{}
	months, err := s.connector.ListMonths(ctx, yearFrom, yearTo)
	if err != nil {
		s.failJob(jobID, counters, err)
		return nil, err
	}

	for _, month := range months {
		if err := ctx.Err(); err != nil {
			break
		}
		decisions, err := s.connector.ListDecisions(ctx, month.URL, maxPerMonth)
		if err != nil {
			// one bad month never aborts the scan
			s.logger.Error("month listing failed",
				zap.Int("year", month.Year), zap.String("month", month.Month), zap.Error(err))
			counters.Failed++
			continue
		}
		counters.TotalChecked += len(decisions)

		inserted, err := s.staging.StageDecisions(ctx, jobID, decisions)
		if err != nil {
			s.failJob(jobID, counters, err)
			return nil, err
		}
		counters.NewFound += inserted
	}

	if err := s.staging.CompleteJob(ctx, jobID, counters); err != nil {
		return nil, err
	}
	s.logger.Info("check complete",
		zap.Int64("job_id", jobID),
		zap.Int("total_checked", counters.TotalChecked),
		zap.Int("new_found", counters.NewFound),
		zap.Int("failed_months", counters.Failed))
	return &CheckResult{
		JobID:        jobID,
		Status:       entity.JobStatusCompleted,
		TotalChecked: counters.TotalChecked,
		NewFound:     counters.NewFound,
		Failed:       counters.Failed,
	}, nil
}

// BatchResult reports one download or ingest run. Skipped counts rows
// whose claim was lost to a concurrent batch; they are nobody's
// success.
type BatchResult struct {
	JobID     int64       `json:"jobId"`
	Succeeded int         `json:"succeeded"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors"`
}

type ItemError struct {
	DocID string `json:"docId"`
	Error string `json:"error"`
}

// Download fetches bodies for pending decisions, oldest first. Each
// decision is independent; a failure marks that row failed and the
// batch carries on.
func (s *Service) Download(ctx context.Context, limit int) (*BatchResult, error) {
	if err := os.MkdirAll(s.downloadDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "create download dir", err)
	}

	return s.runBatch(ctx, entity.JobKindDownload, entity.DecisionPending, limit, s.downloadOne)
}

// Ingest pushes downloaded decisions through the ingestion pipeline.
// Rows already ingested are never selected, so re-running the batch is
// a no-op for them; nothing is persisted for a decision unless every
// chunk embedded.
func (s *Service) Ingest(ctx context.Context, limit int) (*BatchResult, error) {
	return s.runBatch(ctx, entity.JobKindIngest, entity.DecisionDownloaded, limit, s.ingestOne)
}

// runBatch drives a bounded worker pool over the claimable rows of one
// status. Cancellation only stops feeding workers: each per-decision
// process call runs on a detached context, so a decision claimed before
// the cancel finishes and lands in its next status instead of being
// stamped failed mid-flight. process reports whether it actually won
// the claim; lost claims count as skipped, not succeeded.
func (s *Service) runBatch(
	ctx context.Context,
	kind entity.JobKind,
	from entity.DecisionStatus,
	limit int,
	process func(ctx context.Context, d *entity.PendingDecision) (bool, error),
) (*BatchResult, error) {
	jobID, err := s.staging.CreateJob(ctx, kind, nil, nil)
	if err != nil {
		return nil, err
	}

	rows, err := s.staging.ListByStatus(ctx, from, limit)
	if err != nil {
		s.failJob(jobID, entity.JobCounters{}, err)
		return nil, err
	}

	var (
		succeeded atomic.Int64
		skipped   atomic.Int64
		failed    atomic.Int64
		errsMu    sync.Mutex
		itemErrs  []ItemError
	)

	workCtx := context.WithoutCancel(ctx)
	work := make(chan entity.PendingDecision)
	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range work {
				claimed, err := process(workCtx, &d)
				if err != nil {
					failed.Add(1)
					errsMu.Lock()
					itemErrs = append(itemErrs, ItemError{DocID: d.DocID, Error: err.Error()})
					errsMu.Unlock()
					continue
				}
				if !claimed {
					skipped.Add(1)
					continue
				}
				succeeded.Add(1)
			}
		}()
	}

feed:
	for _, d := range rows {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case work <- d:
		}
	}
	close(work)
	wg.Wait()

	counters := entity.JobCounters{
		Downloaded: int(succeeded.Load()),
		Failed:     int(failed.Load()),
	}
	if err := s.staging.CompleteJob(workCtx, jobID, counters); err != nil {
		return nil, err
	}

	s.logger.Info("batch complete",
		zap.String("kind", string(kind)),
		zap.Int64("job_id", jobID),
		zap.Int("succeeded", counters.Downloaded),
		zap.Int("skipped", int(skipped.Load())),
		zap.Int("failed", counters.Failed))
	return &BatchResult{
		JobID:     jobID,
		Succeeded: counters.Downloaded,
		Skipped:   int(skipped.Load()),
		Failed:    counters.Failed,
		Errors:    itemErrs,
	}, nil
}

// downloadOne claims pending -> downloading, fetches the body with
// bounded backoff, stores it, and moves the row to downloaded. A lost
// claim means another worker owns the row; that is a skip, not an
// error.
func (s *Service) downloadOne(ctx context.Context, d *entity.PendingDecision) (bool, error) {
	claimed, err := s.staging.ClaimStatus(ctx, d.ID, entity.DecisionPending, entity.DecisionDownloading)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	text, err := s.fetchWithRetry(ctx, d.SourceURL)
	if err != nil {
		s.markFailed(d, err)
		return false, err
	}

	name := fmt.Sprintf("decision_%s_%s.txt", d.DocID, uuid.NewString()[:8])
	path := filepath.Join(s.downloadDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		err = apperr.Wrap(apperr.KindStore, "write decision file", err)
		s.markFailed(d, err)
		return false, err
	}

	if _, err := s.staging.MarkDownloaded(ctx, d.ID, path); err != nil {
		return false, err
	}
	s.logger.Info("decision downloaded", zap.String("doc_id", d.DocID), zap.String("path", path))
	return true, nil
}

// ingestOne claims downloaded -> ingesting and runs the pipeline. The
// pipeline persists nothing on failure, so a failed row can be
// retried later without cleanup.
func (s *Service) ingestOne(ctx context.Context, d *entity.PendingDecision) (bool, error) {
	claimed, err := s.staging.ClaimStatus(ctx, d.ID, entity.DecisionDownloaded, entity.DecisionIngesting)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	if d.FilePath == nil || *d.FilePath == "" {
		err := apperr.Newf(apperr.KindExtraction, "decision %s has no downloaded file", d.DocID)
		s.markFailed(d, err)
		return false, err
	}

	caseID, chunkCount, err := s.pipeline.IngestFile(ctx, *d.FilePath)
	if err != nil {
		s.markFailed(d, err)
		return false, err
	}

	if _, err := s.staging.ClaimStatus(ctx, d.ID, entity.DecisionIngesting, entity.DecisionIngested); err != nil {
		return false, err
	}
	s.logger.Info("decision ingested",
		zap.String("doc_id", d.DocID),
		zap.Int64("case_id", caseID),
		zap.Int("chunks", chunkCount))
	return true, nil
}

func (s *Service) fetchWithRetry(ctx context.Context, url string) (string, error) {
	var text string
	operation := func() error {
		fetched, err := s.connector.FetchDecisionText(ctx, url)
		if err != nil {
			if !apperr.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		text = fetched
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) markFailed(d *entity.PendingDecision, cause error) {
	// failure bookkeeping must land even when the batch ctx is gone
	if err := s.staging.MarkFailed(context.Background(), d.ID, cause.Error()); err != nil {
		s.logger.Error("could not record decision failure",
			zap.String("doc_id", d.DocID), zap.Error(err))
	}
}

func (s *Service) failJob(jobID int64, counters entity.JobCounters, cause error) {
	if err := s.staging.FailJob(context.Background(), jobID, counters, cause.Error()); err != nil {
		s.logger.Error("could not record job failure", zap.Int64("job_id", jobID), zap.Error(err))
	}
}

// Recover requeues decisions stuck in downloading (a crashed or killed
// worker) back to pending. Explicit operator action so repeated
// failures stay visible.
func (s *Service) Recover(ctx context.Context) (int64, error) {
	requeued, err := s.staging.RequeueDownloading(ctx)
	if err != nil {
		return 0, err
	}
	if requeued > 0 {
		s.logger.Info("requeued stale downloads", zap.Int64("count", requeued))
	}
	return requeued, nil
}

// Status reports per-status staging counts and recent job history.
type Status struct {
	Stats      map[entity.DecisionStatus]int `json:"stats"`
	RecentJobs []entity.SyncJob              `json:"recentJobs"`
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	counts, err := s.staging.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := s.staging.RecentJobs(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &Status{Stats: counts, RecentJobs: jobs}, nil
}

func (s *Service) ListPending(ctx context.Context) ([]entity.PendingDecision, error) {
	return s.staging.ListAll(ctx)
}
