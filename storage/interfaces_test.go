package storage

import (
	"context"
	"testing"

	"realestate-scraper/models"
)

// The concrete stores must keep satisfying the surfaces the workflow and the
// upstream API consume.
var (
	_ PropertyWriter    = (*PropertyStore)(nil)
	_ SummaryReader     = (*PropertyStore)(nil)
	_ NeighborhoodStore = (*PropertyStore)(nil)
	_ DocumentWriter    = (*DocumentStore)(nil)
	_ JobStore          = (*DocumentStore)(nil)
)

// memNeighborhoodStore pins the NeighborhoodStore contract consumers rely
// on: unknown zip yields (nil, nil), and an upsert replaces the earlier row.
type memNeighborhoodStore struct {
	rows map[string]models.NeighborhoodData
}

func (m *memNeighborhoodStore) UpsertNeighborhood(ctx context.Context, n *models.NeighborhoodData) error {
	m.rows[n.Zip] = *n
	return nil
}

func (m *memNeighborhoodStore) GetNeighborhood(ctx context.Context, zip string) (*models.NeighborhoodData, error) {
	n, ok := m.rows[zip]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func TestNeighborhoodStoreContract(t *testing.T) {
	var store NeighborhoodStore = &memNeighborhoodStore{rows: map[string]models.NeighborhoodData{}}
	ctx := context.Background()

	got, err := store.GetNeighborhood(ctx, "78701")
	if err != nil || got != nil {
		t.Fatalf("unknown zip must yield (nil, nil), got (%+v, %v)", got, err)
	}

	rent := 1800.0
	if err := store.UpsertNeighborhood(ctx, &models.NeighborhoodData{
		Zip: "78701", City: "Austin", State: "TX", MedianRent: &rent,
	}); err != nil {
		t.Fatalf("UpsertNeighborhood: %v", err)
	}

	got, err = store.GetNeighborhood(ctx, "78701")
	if err != nil || got == nil {
		t.Fatalf("GetNeighborhood after upsert: (%+v, %v)", got, err)
	}
	if got.City != "Austin" || got.MedianRent == nil || *got.MedianRent != 1800 {
		t.Errorf("row = %+v", got)
	}

	// Same zip again replaces, never duplicates.
	newRent := 1950.0
	if err := store.UpsertNeighborhood(ctx, &models.NeighborhoodData{
		Zip: "78701", City: "Austin", State: "TX", MedianRent: &newRent,
	}); err != nil {
		t.Fatalf("UpsertNeighborhood replace: %v", err)
	}
	got, _ = store.GetNeighborhood(ctx, "78701")
	if got == nil || *got.MedianRent != 1950 {
		t.Errorf("replaced row = %+v", got)
	}
}
