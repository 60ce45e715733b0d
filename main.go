package main

import (
	"context"
	"flag"
	"os"
	"time"

	"realestate-scraper/config"
	"realestate-scraper/estimator"
	"realestate-scraper/models"
	"realestate-scraper/scraper/browser"
	"realestate-scraper/scraper/extract"
	"realestate-scraper/services"
	"realestate-scraper/storage"
	"realestate-scraper/utils"
	"realestate-scraper/workflow"
)

func main() {
	mode := flag.String("mode", "scrape", "run mode: scrape, train or report")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()
	ctx := context.Background()

	logger.Info("=== Real Estate Scraping System starting (mode: %s) ===", *mode)
	logger.Info("Config — extractor: %s | concurrency: %d | rate: %dms | retries: %d",
		cfg.ExtractorMode, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)

	props, err := storage.NewPropertyStore(cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		os.Exit(1)
	}
	defer props.Close()

	docs, err := storage.NewDocumentStore(ctx, cfg.MongoURI, cfg.MongoDB, logger)
	if err != nil {
		logger.Error("Failed to connect to MongoDB: %v", err)
		os.Exit(1)
	}
	defer docs.Close(ctx)

	engine := estimator.NewEngine(
		&estimator.FileSnapshotRepo{Path: cfg.ModelPath},
		docs,
		estimator.NewMathRNG(time.Now().UnixNano()),
		logger,
	)

	switch *mode {
	case "scrape":
		runScrape(ctx, cfg, props, docs, engine, logger)
	case "train":
		runTrain(ctx, engine, docs, logger)
	case "report":
		runReport(ctx, props, logger)
	default:
		logger.Error("Unknown mode %q — use scrape, train or report", *mode)
		os.Exit(1)
	}
}

func runScrape(
	ctx context.Context,
	cfg *config.Config,
	props *storage.PropertyStore,
	docs *storage.DocumentStore,
	engine *estimator.Engine,
	logger *utils.Logger,
) {
	var extractor workflow.Extractor
	switch cfg.ExtractorMode {
	case "browser":
		extractor = browser.New(cfg.ChromeBin, cfg.MaxRetries, logger)
	default:
		extractor = extract.NewClient(cfg.ExtractorURL, cfg.MaxRetries, logger)
	}

	var csvWriter *storage.CandidateCSVWriter
	if cfg.CSVOutputPath != "" {
		csvWriter = storage.NewCandidateCSVWriter(cfg.CSVOutputPath, logger)
	}

	manager := workflow.NewManager(
		extractor,
		services.NewCleaner(logger),
		services.StubGeocoder{},
		props,
		docs,
		workflow.NewTracker(docs, logger),
		engine,
		csvWriter,
		time.Duration(cfg.ScrapeDelayMin)*time.Millisecond,
		time.Duration(cfg.ScrapeDelayMax)*time.Millisecond,
		logger,
	)

	propertySources, rentalSources := defaultSources()

	pool := utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs)
	for _, src := range propertySources {
		src := src
		pool.Submit(func() {
			job := manager.RunPropertyJob(ctx, src)
			logJob(logger, job)
		})
	}
	for _, src := range rentalSources {
		src := src
		pool.Submit(func() {
			job := manager.RunRentalJob(ctx, src)
			logJob(logger, job)
		})
	}
	pool.Wait()

	logger.Info("All scraping jobs finished")
	runReport(ctx, props, logger)
}

func runTrain(ctx context.Context, engine *estimator.Engine, docs *storage.DocumentStore, logger *utils.Logger) {
	model, err := engine.Train(ctx)
	if err != nil {
		logger.Error("Training failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Model trained on %d samples (%d bedroom tiers, %d locations, %d property types)",
		model.TrainingSize, len(model.BedroomBaseRent), len(model.LocationFactors), len(model.PropertyTypeFactors))

	records, err := docs.LoadTrainingRecords(ctx)
	if err != nil {
		logger.Warn("Could not load records for evaluation: %v", err)
	} else if len(records) > 0 {
		eval := engine.Evaluate(records)
		logger.Info("Evaluation — samples: %d | mean error: %.2f | MAE: %.2f | RMSE: %.2f | R²: %.4f",
			eval.Samples, eval.MeanError, eval.MeanAbsError, eval.RMSE, eval.RSquared)
	}

	sample := engine.Predict(estimator.Subject{
		Bedrooms:      3,
		Bathrooms:     2,
		SquareFootage: 1500,
		YearBuilt:     2010,
		PropertyType:  "Single Family",
		City:          "San Francisco",
		State:         "CA",
	})
	logger.Info("Sample prediction (3bd/2ba/1500sqft SF single family): $%.0f/mo at %.0f%% confidence",
		sample.EstimatedRent, sample.ConfidenceScore)
}

func runReport(ctx context.Context, props *storage.PropertyStore, logger *utils.Logger) {
	summaries, err := props.FetchInvestmentSummaries(ctx)
	if err != nil {
		logger.Error("Failed to fetch investment summaries: %v", err)
		return
	}
	if len(summaries) == 0 {
		logger.Warn("No properties stored yet — run a scrape first")
		return
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(summaries))
}

func logJob(logger *utils.Logger, job *models.ScrapingJob) {
	if job.Status == models.JobStatusFailed {
		logger.Error("Job %s (%s %s) failed: %s", job.ID, job.JobType, job.Source, job.Error)
		return
	}
	logger.Info("Job %s (%s %s): %d/%d items succeeded, %d failed",
		job.ID, job.JobType, job.Source,
		job.Results.SuccessItems, job.Results.TotalItems, job.Results.FailedItems)
}

// defaultSources is the built-in scrape target list. Selector-directive
// sources also work in browser mode; prompt-directive sources need the
// extraction service.
func defaultSources() (properties, rentals []workflow.SourceConfig) {
	properties = []workflow.SourceConfig{
		{
			Name:    "zillow",
			URL:     "https://www.zillow.com/austin-tx/",
			Filters: map[string]any{"city": "Austin", "state": "TX"},
			ListingDirective: extract.PromptDirective(
				"Extract every property listing on this search results page as a JSON array. " +
					"For each listing include: url (link to the detail page), price, bedrooms, " +
					"bathrooms, squareFootage, address."),
			DetailDirective: extract.PromptDirective(
				"Extract this property listing as a single JSON object with: address, city, " +
					"state, zip, price, bedrooms, bathrooms, squareFootage, yearBuilt, lotSize, " +
					"propertyType, hoaFee, taxAmount, description, features (array), images (array of urls)."),
		},
		{
			Name:    "realtor",
			URL:     "https://www.realtor.com/realestateandhomes-search/Austin_TX",
			Filters: map[string]any{"city": "Austin", "state": "TX"},
			ListingDirective: extract.SelectorDirective{
				BaseSelector: "[data-testid='property-card']",
				Fields: map[string]string{
					"url":           "a[href*='/realestateandhomes-detail/']",
					"price":         "[data-testid='card-price']",
					"bedrooms":      "[data-testid='property-meta-beds']",
					"bathrooms":     "[data-testid='property-meta-baths']",
					"squareFootage": "[data-testid='property-meta-sqft']",
					"address":       "[data-testid='card-address']",
				},
			},
			DetailDirective: extract.SelectorDirective{
				Fields: map[string]string{
					"address":       "[data-testid='address']",
					"price":         "[data-testid='list-price']",
					"bedrooms":      "[data-testid='property-meta-beds']",
					"bathrooms":     "[data-testid='property-meta-baths']",
					"squareFootage": "[data-testid='property-meta-sqft']",
					"yearBuilt":     "[data-testid='year-built']",
					"propertyType":  "[data-testid='property-type']",
					"description":   "[data-testid='description-text']",
				},
			},
		},
	}

	rentals = []workflow.SourceConfig{
		{
			Name:    "apartments",
			URL:     "https://www.apartments.com/austin-tx/",
			Filters: map[string]any{"city": "Austin", "state": "TX"},
			ListingDirective: extract.PromptDirective(
				"Extract every rental listing on this page as a JSON array. For each include: " +
					"url, price, bedrooms, bathrooms, squareFootage, address."),
			DetailDirective: extract.PromptDirective(
				"Extract this rental listing as a single JSON object with: address, city, state, " +
					"zip, rent (monthly), bedrooms, bathrooms, squareFootage, yearBuilt, " +
					"propertyType, features (array)."),
		},
	}

	return properties, rentals
}
