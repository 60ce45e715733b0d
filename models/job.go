package models

import "time"

// Job kinds.
const (
	JobKindProperty = "property"
	JobKindRental   = "rental"
)

// Job lifecycle states. pending and in_progress are transient;
// completed and failed are terminal.
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobResults holds the per-item counters for one scraping run.
// Invariant: SuccessItems + FailedItems == ProcessedItems <= TotalItems.
type JobResults struct {
	TotalItems     int `bson:"totalItems" json:"totalItems"`
	ProcessedItems int `bson:"processedItems" json:"processedItems"`
	SuccessItems   int `bson:"successItems" json:"successItems"`
	FailedItems    int `bson:"failedItems" json:"failedItems"`
}

// ScrapingJob records the lifecycle of one discover→fetch→persist run.
// It is written at creation and finalized exactly once.
type ScrapingJob struct {
	ID         string         `bson:"_id" json:"id"`
	JobType    string         `bson:"jobType" json:"jobType"`
	Status     string         `bson:"status" json:"status"`
	Source     string         `bson:"source" json:"source"`
	URL        string         `bson:"url" json:"url"`
	Parameters map[string]any `bson:"parameters,omitempty" json:"parameters,omitempty"`
	Results    JobResults     `bson:"results" json:"results"`
	Error      string         `bson:"error,omitempty" json:"error,omitempty"`
	StartTime  time.Time      `bson:"startTime" json:"startTime"`
	EndTime    *time.Time     `bson:"endTime,omitempty" json:"endTime,omitempty"`
	CreatedAt  time.Time      `bson:"createdAt" json:"createdAt"`
}

// Terminal reports whether the job has reached a final state.
func (j *ScrapingJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
