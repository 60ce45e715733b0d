package services

import "context"

// Geocoder resolves an address to a coordinate. The real implementation is
// an external collaborator; the pipeline only depends on this interface.
type Geocoder interface {
	Geocode(ctx context.Context, address, city, state, zip string) (lat, lng float64, err error)
}

// StubGeocoder returns a fixed downtown San Francisco coordinate for every
// address. It stands in until a real geocoding service is wired up.
type StubGeocoder struct{}

func (StubGeocoder) Geocode(ctx context.Context, address, city, state, zip string) (float64, float64, error) {
	return 37.7749, -122.4194, nil
}
