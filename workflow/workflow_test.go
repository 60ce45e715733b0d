package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"realestate-scraper/estimator"
	"realestate-scraper/models"
	"realestate-scraper/scraper/extract"
	"realestate-scraper/services"
	"realestate-scraper/utils"
)

type fakeExtractor struct {
	results map[string]*extract.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, d extract.Directive) (*extract.Result, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if res, ok := f.results[url]; ok {
		return res, nil
	}
	return nil, &extract.Error{URL: url, Message: "no fixture for url"}
}

func (f *fakeExtractor) callsTo(url string) int {
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

type fakePropertyWriter struct {
	nextID    int64
	inserted  []models.PropertyRecord
	estimates map[int64]*models.RentalEstimate
	metrics   map[int64]models.InvestmentMetrics
	expenses  map[int64]models.PropertyExpenses
}

func newFakePropertyWriter() *fakePropertyWriter {
	return &fakePropertyWriter{
		estimates: map[int64]*models.RentalEstimate{},
		metrics:   map[int64]models.InvestmentMetrics{},
		expenses:  map[int64]models.PropertyExpenses{},
	}
}

func (f *fakePropertyWriter) InsertProperty(ctx context.Context, rec *models.PropertyRecord) (int64, error) {
	f.nextID++
	rec.ID = f.nextID
	f.inserted = append(f.inserted, *rec)
	return f.nextID, nil
}

func (f *fakePropertyWriter) UpsertEstimate(ctx context.Context, propertyID int64, est *models.RentalEstimate) error {
	f.estimates[propertyID] = est
	return nil
}

func (f *fakePropertyWriter) UpsertMetrics(ctx context.Context, propertyID int64, m models.InvestmentMetrics, e models.PropertyExpenses) error {
	f.metrics[propertyID] = m
	f.expenses[propertyID] = e
	return nil
}

type fakeDocumentWriter struct {
	docs          []*models.PropertyDocument
	training      []*models.RentalTrainingRecord
	docErr        error
	trainingPanic bool
}

func (f *fakeDocumentWriter) SavePropertyDocument(ctx context.Context, doc *models.PropertyDocument) error {
	if f.docErr != nil {
		return f.docErr
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeDocumentWriter) SaveTrainingRecord(ctx context.Context, rec *models.RentalTrainingRecord) error {
	if f.trainingPanic {
		panic("training collection corrupted")
	}
	f.training = append(f.training, rec)
	return nil
}

type fakeJobStore struct {
	inserted  []models.ScrapingJob
	finalized []models.ScrapingJob
}

func (f *fakeJobStore) InsertJob(ctx context.Context, job *models.ScrapingJob) error {
	f.inserted = append(f.inserted, *job)
	return nil
}

func (f *fakeJobStore) FinalizeJob(ctx context.Context, job *models.ScrapingJob) error {
	f.finalized = append(f.finalized, *job)
	return nil
}

type fakePredictor struct{}

func (fakePredictor) Predict(s estimator.Subject) *models.RentalEstimate {
	return &models.RentalEstimate{
		EstimatedRent:   2000,
		Method:          models.MethodSimplifiedML,
		ConfidenceScore: 80,
	}
}

type fixture struct {
	extractor *fakeExtractor
	props     *fakePropertyWriter
	docs      *fakeDocumentWriter
	jobs      *fakeJobStore
	manager   *Manager
}

func newFixture() *fixture {
	logger := utils.NewLogger()
	f := &fixture{
		extractor: &fakeExtractor{results: map[string]*extract.Result{}, errs: map[string]error{}},
		props:     newFakePropertyWriter(),
		docs:      &fakeDocumentWriter{},
		jobs:      &fakeJobStore{},
	}
	f.manager = NewManager(
		f.extractor,
		services.NewCleaner(logger),
		services.StubGeocoder{},
		f.props,
		f.docs,
		NewTracker(f.jobs, logger),
		fakePredictor{},
		nil,
		0, 0,
		logger,
	)
	return f
}

const searchURL = "https://example.com/search"

func testSource() SourceConfig {
	return SourceConfig{
		Name:             "zillow",
		URL:              searchURL,
		Filters:          map[string]any{"minPrice": 100000},
		ListingDirective: extract.PromptDirective("find property listings"),
		DetailDirective:  extract.PromptDirective("extract property details"),
	}
}

func listingItem(url string) map[string]any {
	return map[string]any{"url": url, "price": "$300,000", "address": "123 Main St"}
}

func detailItem() map[string]any {
	return map[string]any{
		"address":       "123 Main St",
		"city":          "Austin",
		"state":         "TX",
		"zip":           "78701",
		"price":         "$300,000",
		"bedrooms":      "3 bd",
		"bathrooms":     "2 ba",
		"squareFootage": "1,500 sqft",
		"yearBuilt":     "Built in 2010",
		"propertyType":  "Single Family",
		"description":   "Charming home",
		"features":      []any{"garage", "pool"},
		"images":        []any{"https://img.example.com/1.jpg"},
	}
}

func checkCounters(t *testing.T, r models.JobResults) {
	t.Helper()
	if r.SuccessItems+r.FailedItems != r.ProcessedItems {
		t.Errorf("counters broken: success %d + failed %d != processed %d",
			r.SuccessItems, r.FailedItems, r.ProcessedItems)
	}
	if r.ProcessedItems > r.TotalItems {
		t.Errorf("processed %d exceeds total %d", r.ProcessedItems, r.TotalItems)
	}
}

func TestRunPropertyJobHappyPath(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{listingItem("https://example.com/p1"), listingItem("https://example.com/p2")},
	}
	f.extractor.results["https://example.com/p1"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}
	f.extractor.results["https://example.com/p2"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Status != models.JobStatusCompleted {
		t.Fatalf("status = %s; want completed", job.Status)
	}
	checkCounters(t, job.Results)
	if job.Results.TotalItems != 2 || job.Results.SuccessItems != 2 || job.Results.FailedItems != 0 {
		t.Errorf("results = %+v", job.Results)
	}
	if job.EndTime == nil {
		t.Error("terminal job must carry an end time")
	}

	if len(f.props.inserted) != 2 {
		t.Fatalf("inserted %d property rows; want 2", len(f.props.inserted))
	}
	rec := f.props.inserted[0]
	if rec.City != "Austin" || rec.Price != 300000 {
		t.Errorf("property row = %+v", rec)
	}
	if len(f.docs.docs) != 2 {
		t.Errorf("saved %d documents; want 2", len(f.docs.docs))
	}
	if f.docs.docs[0].PropertyID != f.props.inserted[0].ID {
		t.Errorf("document keyed by %d; want row id %d", f.docs.docs[0].PropertyID, f.props.inserted[0].ID)
	}
	if est := f.props.estimates[1]; est == nil || est.PropertyID != 1 {
		t.Errorf("estimate for property 1 = %+v", est)
	}
	if m := f.props.metrics[1]; m.CashFlow == 0 {
		t.Errorf("metrics for property 1 not computed: %+v", m)
	}
}

func TestRunPropertyJobSkipsCandidateWithoutURL(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{
		Kind: extract.KindListings,
		Listings: []map[string]any{
			listingItem("https://example.com/p1"),
			{"price": "$250,000", "address": "No Link Ln"},
		},
	}
	f.extractor.results["https://example.com/p1"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Status != models.JobStatusCompleted {
		t.Fatalf("status = %s; item failures must not fail the job", job.Status)
	}
	checkCounters(t, job.Results)
	if job.Results.TotalItems != 2 || job.Results.SuccessItems != 1 || job.Results.FailedItems != 1 {
		t.Errorf("results = %+v", job.Results)
	}
	// The URL-less candidate must never reach the extractor.
	if got := len(f.extractor.calls); got != 2 {
		t.Errorf("extractor called %d times; want 2 (search + one detail)", got)
	}
}

func TestRunPropertyJobDiscoveryFailure(t *testing.T) {
	f := newFixture()
	f.extractor.errs[searchURL] = &extract.Error{URL: searchURL, Message: "page blocked"}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Status != models.JobStatusFailed {
		t.Fatalf("status = %s; want failed", job.Status)
	}
	if job.Error == "" {
		t.Error("failed job must carry the failure reason")
	}
	if job.Results != (models.JobResults{}) {
		t.Errorf("discovery failure must leave zero counters, got %+v", job.Results)
	}
	if job.EndTime == nil {
		t.Error("terminal job must carry an end time")
	}
}

func TestRunPropertyJobDocumentWriteFailure(t *testing.T) {
	f := newFixture()
	f.docs.docErr = fmt.Errorf("mongo unavailable")
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{listingItem("https://example.com/p1")},
	}
	f.extractor.results["https://example.com/p1"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Status != models.JobStatusCompleted {
		t.Fatalf("status = %s; a single item failure must not fail the job", job.Status)
	}
	checkCounters(t, job.Results)
	if job.Results.FailedItems != 1 || job.Results.SuccessItems != 0 {
		t.Errorf("results = %+v", job.Results)
	}
	// The relational row was committed before the document write failed;
	// the item is flagged failed rather than rolled back.
	if len(f.props.inserted) != 1 {
		t.Errorf("inserted %d property rows; want the committed row to remain", len(f.props.inserted))
	}
}

func TestRunPropertyJobDeduplicatesCandidates(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{
		Kind: extract.KindListings,
		Listings: []map[string]any{
			listingItem("https://example.com/p1"),
			listingItem("https://example.com/p1"),
		},
	}
	f.extractor.results["https://example.com/p1"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Results.TotalItems != 1 {
		t.Errorf("total = %d; duplicate URLs must be dropped at discovery", job.Results.TotalItems)
	}
	if f.extractor.callsTo("https://example.com/p1") != 1 {
		t.Errorf("detail page fetched %d times; want 1", f.extractor.callsTo("https://example.com/p1"))
	}
}

func TestRunPropertyJobRejectsDetailShapedDiscovery(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Status != models.JobStatusFailed {
		t.Errorf("status = %s; want failed when discovery yields a detail object", job.Status)
	}
}

func TestRunRentalJobStoresTrainingRecords(t *testing.T) {
	f := newFixture()
	detail := detailItem()
	detail["rent"] = "$2,400/mo"
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{listingItem("https://example.com/r1")},
	}
	f.extractor.results["https://example.com/r1"] = &extract.Result{Kind: extract.KindDetail, Detail: detail}

	src := testSource()
	src.Name = "apartments"
	job := f.manager.RunRentalJob(context.Background(), src)

	if job.Status != models.JobStatusCompleted || job.JobType != models.JobKindRental {
		t.Fatalf("job = %+v", job)
	}
	checkCounters(t, job.Results)
	if len(f.docs.training) != 1 {
		t.Fatalf("stored %d training records; want 1", len(f.docs.training))
	}
	rec := f.docs.training[0]
	if rec.ActualRent != 2400 || rec.City != "Austin" || rec.Bedrooms != 3 {
		t.Errorf("training record = %+v", rec)
	}
	if rec.Source != "apartments" {
		t.Errorf("Source = %q; want the scrape source name", rec.Source)
	}
}

func TestRunRentalJobRejectsListingWithoutRent(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{listingItem("https://example.com/r1")},
	}
	f.extractor.results["https://example.com/r1"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunRentalJob(context.Background(), testSource())

	checkCounters(t, job.Results)
	if job.Results.FailedItems != 1 || len(f.docs.training) != 0 {
		t.Errorf("rent-less listing must fail the item: results %+v, %d records",
			job.Results, len(f.docs.training))
	}
}

type panickingPredictor struct{}

func (panickingPredictor) Predict(s estimator.Subject) *models.RentalEstimate {
	panic("estimation model corrupted")
}

func TestRunPropertyJobRecoversPanicIntoFailedJob(t *testing.T) {
	f := newFixture()
	f.manager.engine = panickingPredictor{}
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{listingItem("https://example.com/p1")},
	}
	f.extractor.results["https://example.com/p1"] = &extract.Result{Kind: extract.KindDetail, Detail: detailItem()}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	// A panic anywhere in the pipeline must still yield the finalized job
	// record, never nil and never a re-thrown panic.
	if job == nil {
		t.Fatal("RunPropertyJob returned nil job")
	}
	if job.Status != models.JobStatusFailed {
		t.Errorf("status = %s; want failed", job.Status)
	}
	if !strings.Contains(job.Error, "panic") {
		t.Errorf("Error = %q; want the captured panic", job.Error)
	}
	if job.EndTime == nil {
		t.Error("terminal job must carry an end time")
	}
	if len(f.jobs.finalized) != 1 || f.jobs.finalized[0].Status != models.JobStatusFailed {
		t.Errorf("final record not persisted as failed: %+v", f.jobs.finalized)
	}
}

func TestRunRentalJobRecoversPanicIntoFailedJob(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{listingItem("https://example.com/r1")},
	}
	detail := detailItem()
	detail["rent"] = "$2,400/mo"
	f.extractor.results["https://example.com/r1"] = &extract.Result{Kind: extract.KindDetail, Detail: detail}
	f.docs.trainingPanic = true

	job := f.manager.RunRentalJob(context.Background(), testSource())

	if job == nil {
		t.Fatal("RunRentalJob returned nil job")
	}
	if job.Status != models.JobStatusFailed || !strings.Contains(job.Error, "panic") {
		t.Errorf("job = %+v; want failed with captured panic", job)
	}
}

func TestRunPropertyJobFinalizesExactlyOnce(t *testing.T) {
	f := newFixture()
	f.extractor.results[searchURL] = &extract.Result{
		Kind:     extract.KindListings,
		Listings: []map[string]any{},
	}

	job := f.manager.RunPropertyJob(context.Background(), testSource())

	if job.Status != models.JobStatusCompleted {
		t.Errorf("empty discovery is a valid completed run, got %s", job.Status)
	}
	if len(f.jobs.inserted) != 1 || len(f.jobs.finalized) != 1 {
		t.Errorf("job persisted %d times, finalized %d times; want 1 and 1",
			len(f.jobs.inserted), len(f.jobs.finalized))
	}
	if f.jobs.inserted[0].Status != models.JobStatusInProgress {
		t.Errorf("initial record status = %s; want in_progress", f.jobs.inserted[0].Status)
	}
	if !f.jobs.finalized[0].Terminal() {
		t.Errorf("final record status = %s; want terminal", f.jobs.finalized[0].Status)
	}
}
