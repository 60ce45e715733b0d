package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"realestate-scraper/models"
	"realestate-scraper/storage"
	"realestate-scraper/utils"
)

// Tracker records job lifecycle transitions in the job store. Store failures
// are logged but never interrupt a run: the in-memory job record stays
// authoritative for the caller.
type Tracker struct {
	store  storage.JobStore
	logger *utils.Logger
}

// NewTracker creates a Tracker backed by the given job store.
func NewTracker(store storage.JobStore, logger *utils.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Begin creates an in_progress job record and persists it.
func (t *Tracker) Begin(ctx context.Context, jobType, source, url string, params map[string]any) *models.ScrapingJob {
	now := time.Now()
	job := &models.ScrapingJob{
		ID:         uuid.NewString(),
		JobType:    jobType,
		Status:     models.JobStatusInProgress,
		Source:     source,
		URL:        url,
		Parameters: params,
		StartTime:  now,
		CreatedAt:  now,
	}
	if err := t.store.InsertJob(ctx, job); err != nil {
		t.logger.Warn("[tracker] Could not persist job %s start: %v", job.ID, err)
	}
	t.logger.Info("[tracker] Job %s started: %s scrape of %s", job.ID, jobType, source)
	return job
}

// Complete marks the job completed with its final counters.
func (t *Tracker) Complete(ctx context.Context, job *models.ScrapingJob, results models.JobResults) {
	t.finalize(ctx, job, models.JobStatusCompleted, results, "")
	t.logger.Info("[tracker] Job %s completed: %d/%d items succeeded",
		job.ID, results.SuccessItems, results.TotalItems)
}

// Fail marks the job failed, keeping whatever counters were reached.
func (t *Tracker) Fail(ctx context.Context, job *models.ScrapingJob, results models.JobResults, reason string) {
	t.finalize(ctx, job, models.JobStatusFailed, results, reason)
	t.logger.Error("[tracker] Job %s failed: %s", job.ID, reason)
}

func (t *Tracker) finalize(ctx context.Context, job *models.ScrapingJob, status string, results models.JobResults, reason string) {
	now := time.Now()
	job.Status = status
	job.Results = results
	job.Error = reason
	job.EndTime = &now
	if err := t.store.FinalizeJob(ctx, job); err != nil {
		t.logger.Warn("[tracker] Could not persist job %s final state: %v", job.ID, err)
	}
}
