package estimator

import (
	"context"
	"fmt"
	"sync"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

// TrainingSource supplies historical rental observations, normally the
// document store's rental_training_data collection.
type TrainingSource interface {
	LoadTrainingRecords(ctx context.Context) ([]models.RentalTrainingRecord, error)
}

// Engine ties the pure prediction and training functions to a snapshot
// repository and a training-data source. The snapshot is loaded lazily
// before the first prediction and cached until the next training run.
type Engine struct {
	repo   SnapshotRepo
	source TrainingSource
	rng    RNG
	logger *utils.Logger

	mu    sync.Mutex
	model *models.EstimationModel
}

// NewEngine creates an Engine. source may be nil when training is not needed.
func NewEngine(repo SnapshotRepo, source TrainingSource, rng RNG, logger *utils.Logger) *Engine {
	return &Engine{repo: repo, source: source, rng: rng, logger: logger}
}

// Model returns the active snapshot, loading it from the repository on
// first use and falling back to the default model when none is persisted.
func (e *Engine) Model() *models.EstimationModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modelLocked()
}

func (e *Engine) modelLocked() *models.EstimationModel {
	if e.model != nil {
		return e.model
	}

	snapshot, err := e.repo.Load()
	if err != nil {
		e.logger.Warn("[estimator] Could not load model snapshot: %v — using default model", err)
	}
	if snapshot == nil {
		snapshot = DefaultModel()
	} else {
		e.logger.Info("[estimator] Loaded model snapshot trained on %d samples", snapshot.TrainingSize)
	}

	e.model = snapshot
	return e.model
}

// Predict estimates rent for the subject under the active model. When the
// model carries no bedroom base rents at all, the price-percentage fallback
// is used instead.
func (e *Engine) Predict(s Subject) *models.RentalEstimate {
	model := e.Model()
	if len(model.BedroomBaseRent) == 0 {
		e.logger.Warn("[estimator] Model has no bedroom base rents — using fallback estimate")
		return FallbackEstimate(s.Price)
	}
	return Predict(model, s, e.rng)
}

// Train loads all training records, recomputes the model, persists the new
// snapshot and makes it the active one.
func (e *Engine) Train(ctx context.Context) (*models.EstimationModel, error) {
	if e.source == nil {
		return nil, fmt.Errorf("estimator: no training source configured")
	}

	records, err := e.source.LoadTrainingRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("estimator: load training data: %w", err)
	}
	if len(records) == 0 {
		e.logger.Warn("[estimator] No training data available — model unchanged")
		return e.Model(), nil
	}

	e.logger.Info("[estimator] Training model on %d samples", len(records))
	trained := Train(e.Model(), records)

	if err := e.repo.Save(trained); err != nil {
		return nil, fmt.Errorf("estimator: persist snapshot: %w", err)
	}

	e.mu.Lock()
	e.model = trained
	e.mu.Unlock()

	return trained, nil
}

// Evaluate scores the active model against the given test set.
func (e *Engine) Evaluate(testSet []models.RentalTrainingRecord) Evaluation {
	return Evaluate(e.Model(), testSet, e.rng)
}
