package models

import "time"

// RentalTrainingRecord is one observed rental listing used to train the
// estimation model. Stored in the document store's rental_training_data
// collection.
type RentalTrainingRecord struct {
	Address       string    `bson:"address,omitempty" json:"address,omitempty"`
	City          string    `bson:"city,omitempty" json:"city,omitempty"`
	State         string    `bson:"state,omitempty" json:"state,omitempty"`
	Zip           string    `bson:"zip,omitempty" json:"zip,omitempty"`
	Bedrooms      int       `bson:"bedrooms" json:"bedrooms"`
	Bathrooms     float64   `bson:"bathrooms" json:"bathrooms"`
	SquareFootage float64   `bson:"squareFootage" json:"squareFootage"`
	PropertyType  string    `bson:"propertyType,omitempty" json:"propertyType,omitempty"`
	YearBuilt     int       `bson:"yearBuilt,omitempty" json:"yearBuilt,omitempty"`
	Amenities     []string  `bson:"amenities,omitempty" json:"amenities,omitempty"`
	ActualRent    float64   `bson:"actualRent" json:"actualRent"`
	ListingDate   time.Time `bson:"listingDate" json:"listingDate"`
	Source        string    `bson:"source,omitempty" json:"source,omitempty"`
	ScrapedAt     time.Time `bson:"scrapedAt" json:"scrapedAt"`
}

// Coefficients are the linear terms of the estimation model.
type Coefficients struct {
	Intercept     float64 `json:"intercept"`
	BedroomCoef   float64 `json:"bedroomCoef"`
	BathroomCoef  float64 `json:"bathroomCoef"`
	SqftCoef      float64 `json:"sqftCoef"`
	YearBuiltCoef float64 `json:"yearBuiltCoef"`
}

// EstimationModel is a versioned coefficient snapshot driving the rent
// predictor. It is a plain value: prediction never mutates it, and training
// returns a new snapshot.
type EstimationModel struct {
	BedroomBaseRent     map[int]float64    `json:"bedroomBaseRent"`
	LocationFactors     map[string]float64 `json:"locationFactors"`
	PropertyTypeFactors map[string]float64 `json:"propertyTypeFactors"`
	Coefficients        Coefficients       `json:"coefficients"`
	TrainedAt           time.Time          `json:"trainedAt"`
	TrainingSize        int                `json:"trainingDataSize"`
}

// Clone returns a deep copy, so training can derive a new snapshot without
// touching the one callers hold.
func (m *EstimationModel) Clone() *EstimationModel {
	out := *m
	out.BedroomBaseRent = make(map[int]float64, len(m.BedroomBaseRent))
	for k, v := range m.BedroomBaseRent {
		out.BedroomBaseRent[k] = v
	}
	out.LocationFactors = make(map[string]float64, len(m.LocationFactors))
	for k, v := range m.LocationFactors {
		out.LocationFactors[k] = v
	}
	out.PropertyTypeFactors = make(map[string]float64, len(m.PropertyTypeFactors))
	for k, v := range m.PropertyTypeFactors {
		out.PropertyTypeFactors[k] = v
	}
	return &out
}
