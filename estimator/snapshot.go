package estimator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"realestate-scraper/models"
)

// SnapshotRepo loads and saves estimation-model snapshots. Load returns
// (nil, nil) when no snapshot exists yet.
type SnapshotRepo interface {
	Load() (*models.EstimationModel, error)
	Save(*models.EstimationModel) error
}

// FileSnapshotRepo persists the model as a JSON file.
type FileSnapshotRepo struct {
	Path string
}

func (r *FileSnapshotRepo) Load() (*models.EstimationModel, error) {
	data, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("model snapshot: read %q: %w", r.Path, err)
	}

	var model models.EstimationModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("model snapshot: decode %q: %w", r.Path, err)
	}
	return &model, nil
}

func (r *FileSnapshotRepo) Save(model *models.EstimationModel) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return fmt.Errorf("model snapshot: create dir: %w", err)
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("model snapshot: encode: %w", err)
	}

	if err := os.WriteFile(r.Path, data, 0644); err != nil {
		return fmt.Errorf("model snapshot: write %q: %w", r.Path, err)
	}
	return nil
}
