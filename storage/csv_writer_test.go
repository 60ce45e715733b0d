package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

func TestWriteCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "candidates.csv")
	w := NewCandidateCSVWriter(path, utils.NewLogger())

	candidates := []models.ListingCandidate{
		{URL: "https://example.com/p1", Price: "$300,000", Bedrooms: "3", Address: "123 Main St"},
		{URL: "https://example.com/p2", Price: "$250,000"},
	}
	if err := w.WriteCandidates(candidates); err != nil {
		t.Fatalf("WriteCandidates: %v", err)
	}
	// Second batch appends without repeating the header.
	if err := w.WriteCandidates(candidates[:1]); err != nil {
		t.Fatalf("WriteCandidates append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows; want header + 3 candidates", len(rows))
	}
	if rows[0][0] != "url" || rows[0][6] != "discovered_at" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "https://example.com/p1" || rows[1][1] != "$300,000" {
		t.Errorf("first row = %v", rows[1])
	}
}

func TestWriteCandidatesEmptyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.csv")
	w := NewCandidateCSVWriter(path, utils.NewLogger())

	if err := w.WriteCandidates(nil); err != nil {
		t.Fatalf("WriteCandidates(nil): %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty write must not create the file")
	}
}
