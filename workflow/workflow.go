// Package workflow orchestrates scraping runs: discover listing candidates,
// fetch and clean each detail page, persist across both stores, and record
// the job's lifecycle. Item failures are counted, never propagated; a run
// always ends in a terminal job record.
package workflow

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"realestate-scraper/estimator"
	"realestate-scraper/metrics"
	"realestate-scraper/models"
	"realestate-scraper/scraper/extract"
	"realestate-scraper/services"
	"realestate-scraper/storage"
	"realestate-scraper/utils"
)

// SourceConfig describes one scrape target: where to discover candidates
// and how to extract both the search page and the detail pages.
type SourceConfig struct {
	Name             string
	URL              string
	Filters          map[string]any
	ListingDirective extract.Directive
	DetailDirective  extract.Directive
}

// Extractor pulls structured data out of a page. Satisfied by both the
// extraction-service client and the headless-browser extractor.
type Extractor interface {
	Extract(ctx context.Context, url string, d extract.Directive) (*extract.Result, error)
}

// RentPredictor estimates rent for a subject. Satisfied by estimator.Engine.
type RentPredictor interface {
	Predict(s estimator.Subject) *models.RentalEstimate
}

// Manager is the composition root of a scraping run. Both run methods
// return the terminal job record and no error: per-item and even
// discovery-level failures end up in the job record, not in the caller.
type Manager struct {
	extractor Extractor
	cleaner   *services.Cleaner
	geocoder  services.Geocoder
	props     storage.PropertyWriter
	docs      storage.DocumentWriter
	tracker   *Tracker
	engine    RentPredictor
	csv       *storage.CandidateCSVWriter // optional discovery tap
	logger    *utils.Logger

	delayMin time.Duration
	delayMax time.Duration
}

// NewManager wires a Manager. csv may be nil to skip the candidate dump.
func NewManager(
	extractor Extractor,
	cleaner *services.Cleaner,
	geocoder services.Geocoder,
	props storage.PropertyWriter,
	docs storage.DocumentWriter,
	tracker *Tracker,
	engine RentPredictor,
	csv *storage.CandidateCSVWriter,
	delayMin, delayMax time.Duration,
	logger *utils.Logger,
) *Manager {
	return &Manager{
		extractor: extractor,
		cleaner:   cleaner,
		geocoder:  geocoder,
		props:     props,
		docs:      docs,
		tracker:   tracker,
		engine:    engine,
		csv:       csv,
		logger:    logger,
		delayMin:  delayMin,
		delayMax:  delayMax,
	}
}

// RunPropertyJob scrapes sale listings from one source: each candidate is
// fetched, cleaned, geocoded, written to both stores, and enriched with a
// rent estimate and investment metrics.
func (m *Manager) RunPropertyJob(ctx context.Context, src SourceConfig) (job *models.ScrapingJob) {
	job = m.tracker.Begin(ctx, models.JobKindProperty, src.Name, src.URL, src.Filters)

	var results models.JobResults
	failure := ""
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Sprintf("panic: %v", r)
		}
		if failure != "" {
			m.tracker.Fail(ctx, job, results, failure)
		} else {
			m.tracker.Complete(ctx, job, results)
		}
	}()

	candidates, err := m.discover(ctx, src)
	if err != nil {
		failure = err.Error()
		return job
	}
	results.TotalItems = len(candidates)
	m.logger.Info("[workflow] %s: discovered %d candidates", src.Name, len(candidates))

	for _, cand := range candidates {
		results.ProcessedItems++

		if cand.URL == "" {
			m.logger.Warn("[workflow] %s: skipping candidate without a detail URL", src.Name)
			results.FailedItems++
			continue
		}

		if err := m.processProperty(ctx, src, cand); err != nil {
			m.logger.Warn("[workflow] %s: item %s failed: %v", src.Name, cand.URL, err)
			results.FailedItems++
		} else {
			results.SuccessItems++
		}

		m.pause(ctx)
	}

	return job
}

// RunRentalJob scrapes rental listings from one source and stores each one
// as a training observation for the estimation model.
func (m *Manager) RunRentalJob(ctx context.Context, src SourceConfig) (job *models.ScrapingJob) {
	job = m.tracker.Begin(ctx, models.JobKindRental, src.Name, src.URL, src.Filters)

	var results models.JobResults
	failure := ""
	defer func() {
		if r := recover(); r != nil {
			failure = fmt.Sprintf("panic: %v", r)
		}
		if failure != "" {
			m.tracker.Fail(ctx, job, results, failure)
		} else {
			m.tracker.Complete(ctx, job, results)
		}
	}()

	candidates, err := m.discover(ctx, src)
	if err != nil {
		failure = err.Error()
		return job
	}
	results.TotalItems = len(candidates)
	m.logger.Info("[workflow] %s: discovered %d rental candidates", src.Name, len(candidates))

	for _, cand := range candidates {
		results.ProcessedItems++

		if cand.URL == "" {
			m.logger.Warn("[workflow] %s: skipping candidate without a detail URL", src.Name)
			results.FailedItems++
			continue
		}

		if err := m.processRental(ctx, src, cand); err != nil {
			m.logger.Warn("[workflow] %s: rental %s failed: %v", src.Name, cand.URL, err)
			results.FailedItems++
		} else {
			results.SuccessItems++
		}

		m.pause(ctx)
	}

	return job
}

// discover extracts the search page and maps each item to a candidate,
// deduplicating by detail URL. Candidates without a URL are kept so they
// surface as failed items rather than silently vanishing.
func (m *Manager) discover(ctx context.Context, src SourceConfig) ([]models.ListingCandidate, error) {
	res, err := m.extractor.Extract(ctx, src.URL, src.ListingDirective)
	if err != nil {
		return nil, fmt.Errorf("discovery on %s: %w", src.Name, err)
	}
	if res.Kind != extract.KindListings {
		return nil, fmt.Errorf("discovery on %s returned a detail object, expected listings", src.Name)
	}

	seen := utils.NewURLSet()
	candidates := make([]models.ListingCandidate, 0, len(res.Listings))
	for _, item := range res.Listings {
		cand := candidateFromItem(item)
		if cand.URL != "" && !seen.Add(cand.URL) {
			continue
		}
		candidates = append(candidates, cand)
	}

	if m.csv != nil {
		if err := m.csv.WriteCandidates(candidates); err != nil {
			m.logger.Warn("[workflow] %s: candidate CSV dump failed: %v", src.Name, err)
		}
	}
	return candidates, nil
}

// processProperty runs the full per-item pipeline for one sale listing.
func (m *Manager) processProperty(ctx context.Context, src SourceConfig, cand models.ListingCandidate) error {
	raw, err := m.fetchDetail(ctx, src, cand.URL)
	if err != nil {
		return err
	}

	clean := m.cleaner.Clean(raw)

	lat, lng, err := m.geocoder.Geocode(ctx, clean.Address, clean.City, clean.State, clean.Zip)
	if err != nil {
		m.logger.Warn("[workflow] Geocoding %q failed: %v", clean.Address, err)
		lat, lng = 0, 0
	}

	rec := recordFromClean(clean, cand.URL)
	rec.Latitude = lat
	rec.Longitude = lng

	propertyID, err := m.props.InsertProperty(ctx, &rec)
	if err != nil {
		return fmt.Errorf("insert property row: %w", err)
	}

	doc := documentFromRaw(raw, propertyID, src.Name)
	if err := m.docs.SavePropertyDocument(ctx, doc); err != nil {
		// The relational row is already committed; the stores now disagree
		// for this property until a re-scrape.
		m.logger.Warn("[workflow] Stores inconsistent for property %d: document write failed: %v", propertyID, err)
		return fmt.Errorf("save property document: %w", err)
	}

	est := m.engine.Predict(estimator.SubjectFromDetail(clean))
	est.PropertyID = propertyID
	if err := m.props.UpsertEstimate(ctx, propertyID, est); err != nil {
		return fmt.Errorf("save rent estimate: %w", err)
	}

	price := deref(clean.Price)
	sqft := deref(clean.SquareFootage)
	expenses := defaultExpenses(clean, price)
	monthly := metrics.MonthlyExpenses(expenses, price, est.EstimatedRent)
	invMetrics := models.InvestmentMetrics{
		RentToPriceRatio: metrics.RentToPriceRatio(est.EstimatedRent, price),
		SqftToPriceRatio: metrics.SqftToPriceRatio(sqft, price),
		MonthlyExpenses:  monthly,
		CashFlow:         metrics.CashFlow(est.EstimatedRent, monthly),
		CapRate:          metrics.CapRate(est.EstimatedRent, monthly, price),
	}
	if err := m.props.UpsertMetrics(ctx, propertyID, invMetrics, expenses); err != nil {
		return fmt.Errorf("save investment metrics: %w", err)
	}

	m.logger.Debug("[workflow] Property %d persisted: rent estimate $%.0f (%s)",
		propertyID, est.EstimatedRent, est.Method)
	return nil
}

// processRental converts one rental listing into a training observation.
func (m *Manager) processRental(ctx context.Context, src SourceConfig, cand models.ListingCandidate) error {
	raw, err := m.fetchDetail(ctx, src, cand.URL)
	if err != nil {
		return err
	}

	clean := m.cleaner.Clean(raw)
	if clean.Rent == nil || *clean.Rent <= 0 {
		return fmt.Errorf("rental listing %s has no usable rent", cand.URL)
	}

	rec := &models.RentalTrainingRecord{
		Address:      clean.Address,
		City:         clean.City,
		State:        clean.State,
		Zip:          clean.Zip,
		Bedrooms:     derefInt(clean.Bedrooms),
		Bathrooms:    deref(clean.Bathrooms),
		PropertyType: clean.PropertyType,
		YearBuilt:    derefInt(clean.YearBuilt),
		Amenities:    raw.Features,
		ActualRent:   *clean.Rent,
		ListingDate:  time.Now(),
		Source:       src.Name,
		ScrapedAt:    time.Now(),
	}
	rec.SquareFootage = deref(clean.SquareFootage)

	if err := m.docs.SaveTrainingRecord(ctx, rec); err != nil {
		return fmt.Errorf("save training record: %w", err)
	}
	return nil
}

// fetchDetail extracts one detail page and tags it with its provenance.
func (m *Manager) fetchDetail(ctx context.Context, src SourceConfig, url string) (*models.RawDetail, error) {
	res, err := m.extractor.Extract(ctx, url, src.DetailDirective)
	if err != nil {
		return nil, err
	}
	if res.Kind != extract.KindDetail {
		return nil, fmt.Errorf("detail extraction of %s returned listings, expected one object", url)
	}

	raw := rawDetailFromItem(res.Detail)
	raw.SourceURL = url
	raw.Source = src.Name
	return raw, nil
}

// pause sleeps a random interval between items, respecting cancellation.
func (m *Manager) pause(ctx context.Context) {
	if m.delayMax <= 0 {
		return
	}
	delay := m.delayMin
	if m.delayMax > m.delayMin {
		delay += time.Duration(rand.Int63n(int64(m.delayMax - m.delayMin)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// candidateFromItem maps one discovery item onto a candidate. Every value is
// kept as a raw string; the cleaner handles normalization later.
func candidateFromItem(item map[string]any) models.ListingCandidate {
	return models.ListingCandidate{
		URL:           itemString(item, "url", "listingUrl", "link"),
		Price:         itemString(item, "price"),
		Bedrooms:      itemString(item, "bedrooms", "beds"),
		Bathrooms:     itemString(item, "bathrooms", "baths"),
		SquareFootage: itemString(item, "squareFootage", "square_footage", "sqft"),
		Address:       itemString(item, "address"),
	}
}

// rawDetailFromItem maps one detail object onto a raw detail record.
func rawDetailFromItem(item map[string]any) *models.RawDetail {
	raw := &models.RawDetail{
		Address:             itemString(item, "address"),
		City:                itemString(item, "city"),
		State:               itemString(item, "state"),
		Zip:                 itemString(item, "zip", "zipCode", "postalCode"),
		Price:               itemString(item, "price"),
		Bedrooms:            itemString(item, "bedrooms", "beds"),
		Bathrooms:           itemString(item, "bathrooms", "baths"),
		SquareFootage:       itemString(item, "squareFootage", "square_footage", "sqft"),
		YearBuilt:           itemString(item, "yearBuilt", "year_built"),
		LotSize:             itemString(item, "lotSize", "lot_size"),
		PropertyType:        itemString(item, "propertyType", "property_type"),
		HOAFee:              itemString(item, "hoaFee", "hoa"),
		TaxAmount:           itemString(item, "taxAmount", "taxes"),
		Rent:                itemString(item, "rent", "monthlyRent"),
		Description:         itemString(item, "description"),
		DetailedDescription: itemString(item, "detailedDescription"),
		Features:            itemStrings(item, "features", "amenities"),
	}

	for _, u := range itemStrings(item, "images", "imageUrls") {
		raw.Images = append(raw.Images, models.PropertyImage{URL: u, IsPrimary: len(raw.Images) == 0})
	}
	return raw
}

// recordFromClean builds the relational row for a cleaned detail.
func recordFromClean(c models.CleanDetail, listingURL string) models.PropertyRecord {
	return models.PropertyRecord{
		Address:       c.Address,
		City:          c.City,
		State:         c.State,
		Zip:           c.Zip,
		Price:         deref(c.Price),
		Bedrooms:      c.Bedrooms,
		Bathrooms:     c.Bathrooms,
		SquareFootage: c.SquareFootage,
		YearBuilt:     c.YearBuilt,
		LotSize:       c.LotSize,
		PropertyType:  c.PropertyType,
		HOAFee:        deref(c.HOAFee),
		TaxAmount:     c.TaxAmount,
		Description:   c.Description,
		ListingURL:    listingURL,
	}
}

// documentFromRaw builds the document-store side of a property, keyed by the
// relational row id.
func documentFromRaw(raw *models.RawDetail, propertyID int64, source string) *models.PropertyDocument {
	return &models.PropertyDocument{
		PropertyID:          propertyID,
		Images:              raw.Images,
		Features:            raw.Features,
		DetailedDescription: raw.DetailedDescription,
		Metadata: models.DocumentMetadata{
			Source:    source,
			ScrapedAt: time.Now(),
		},
	}
}

// defaultExpenses fills the expense assumptions for a property: scraped tax
// and HOA figures when present, standard percentages otherwise.
func defaultExpenses(c models.CleanDetail, price float64) models.PropertyExpenses {
	tax := deref(c.TaxAmount)
	if tax == 0 && price > 0 {
		tax = price * 0.01
	}
	return models.PropertyExpenses{
		PropertyTax:        tax,
		Insurance:          price * 0.0035,
		MaintenancePercent: 1,
		VacancyPercent:     5,
		ManagementPercent:  8,
		Utilities:          0,
		HOA:                deref(c.HOAFee),
	}
}

// itemString returns the first present key rendered as a trimmed string.
func itemString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}

// itemStrings flattens an array value into strings, reading the url field of
// object entries.
func itemStrings(item map[string]any, keys ...string) []string {
	for _, key := range keys {
		arr, ok := item[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			switch t := v.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if u := itemString(t, "url"); u != "" {
					out = append(out, u)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
