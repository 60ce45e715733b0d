package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

// CandidateCSVWriter dumps discovered listing candidates to a CSV file for
// offline inspection. It is an optional tap on discovery, not a store.
type CandidateCSVWriter struct {
	path   string
	mu     sync.Mutex
	logger *utils.Logger
}

// NewCandidateCSVWriter creates a writer targeting path. The file and its
// directory are created on first write.
func NewCandidateCSVWriter(path string, logger *utils.Logger) *CandidateCSVWriter {
	return &CandidateCSVWriter{path: path, logger: logger}
}

var candidateHeader = []string{
	"url", "price", "bedrooms", "bathrooms", "square_footage", "address", "discovered_at",
}

// WriteCandidates appends the candidates to the CSV file, writing the header
// first when the file is new.
func (w *CandidateCSVWriter) WriteCandidates(candidates []models.ListingCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	info, statErr := os.Stat(w.path)
	writeHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(candidateHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	now := time.Now().Format(time.RFC3339)
	for _, c := range candidates {
		row := []string{c.URL, c.Price, c.Bedrooms, c.Bathrooms, c.SquareFootage, c.Address, now}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	w.logger.Debug("[csv] Wrote %d candidates to %s", len(candidates), w.path)
	return nil
}
