package storage

import (
	"context"

	"realestate-scraper/models"
)

// PropertyWriter is the relational-store surface the workflow depends on.
type PropertyWriter interface {
	InsertProperty(ctx context.Context, rec *models.PropertyRecord) (int64, error)
	UpsertEstimate(ctx context.Context, propertyID int64, est *models.RentalEstimate) error
	UpsertMetrics(ctx context.Context, propertyID int64, m models.InvestmentMetrics, e models.PropertyExpenses) error
}

// DocumentWriter is the document-store surface the workflow depends on.
type DocumentWriter interface {
	SavePropertyDocument(ctx context.Context, doc *models.PropertyDocument) error
	SaveTrainingRecord(ctx context.Context, rec *models.RentalTrainingRecord) error
}

// JobStore persists scraping-job lifecycle records.
type JobStore interface {
	InsertJob(ctx context.Context, job *models.ScrapingJob) error
	FinalizeJob(ctx context.Context, job *models.ScrapingJob) error
}

// SummaryReader feeds the portfolio report.
type SummaryReader interface {
	FetchInvestmentSummaries(ctx context.Context) ([]models.InvestmentSummary, error)
}

// NeighborhoodStore is the zip-keyed market-context surface consumed by the
// upstream API. Get returns (nil, nil) for an unknown zip; Upsert replaces
// any earlier row for the same zip.
type NeighborhoodStore interface {
	UpsertNeighborhood(ctx context.Context, n *models.NeighborhoodData) error
	GetNeighborhood(ctx context.Context, zip string) (*models.NeighborhoodData, error)
}
