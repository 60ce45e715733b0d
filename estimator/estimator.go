// Package estimator predicts monthly rent from property attributes using a
// trainable coefficient snapshot, with a hand-tuned formula path as a
// fallback for ad-hoc input.
package estimator

import (
	"math"
	"strings"

	"realestate-scraper/models"
)

// minimumRent floors every prediction.
const minimumRent = 500

// Subject is the feature set a prediction runs on.
type Subject struct {
	Bedrooms      int
	Bathrooms     float64
	SquareFootage float64
	YearBuilt     int
	PropertyType  string
	City          string
	State         string
	Location      string // free-form "City, ST" fallback when City/State are empty
	Price         float64
}

// SubjectFromDetail maps a cleaned detail record onto prediction features.
func SubjectFromDetail(d models.CleanDetail) Subject {
	s := Subject{
		PropertyType: d.PropertyType,
		City:         d.City,
		State:        d.State,
		Location:     d.Location,
	}
	if d.Bedrooms != nil {
		s.Bedrooms = *d.Bedrooms
	}
	if d.Bathrooms != nil {
		s.Bathrooms = *d.Bathrooms
	}
	if d.SquareFootage != nil {
		s.SquareFootage = *d.SquareFootage
	}
	if d.YearBuilt != nil {
		s.YearBuilt = *d.YearBuilt
	}
	if d.Price != nil {
		s.Price = *d.Price
	}
	return s
}

// cityState resolves the subject's city and state, parsing the free-form
// location string only when both explicit fields are empty.
func (s Subject) cityState() (string, string) {
	if s.City != "" || s.State != "" {
		return s.City, s.State
	}
	parts := strings.Split(s.Location, ",")
	if len(parts) < 2 {
		return "", ""
	}
	city := strings.TrimSpace(parts[0])
	state := strings.TrimSpace(parts[len(parts)-1])
	return city, state
}

// Predict estimates monthly rent for the subject under the given model.
// The model is read-only; the rng supplies a uniform perturbation in
// [-100, +100].
func Predict(model *models.EstimationModel, s Subject, rng RNG) *models.RentalEstimate {
	city, state := s.cityState()

	baseRent, ok := model.BedroomBaseRent[s.Bedrooms]
	if !ok {
		baseRent = model.BedroomBaseRent[3]
	}

	locationFactor := 1.0
	cityKnown, stateKnown := false, false
	if f, ok := model.LocationFactors[city]; ok && city != "" {
		locationFactor = f
		cityKnown = true
	} else if f, ok := model.LocationFactors[state]; ok && state != "" {
		locationFactor = f
	}
	if _, ok := model.LocationFactors[state]; ok && state != "" {
		stateKnown = true
	}

	typeFactor := 1.0
	typeKnown := false
	if f, ok := model.PropertyTypeFactors[s.PropertyType]; ok && s.PropertyType != "" {
		typeFactor = f
		typeKnown = true
	}

	yearBuilt := s.YearBuilt
	if yearBuilt == 0 {
		yearBuilt = 2000
	}

	bathroomFactor := s.Bathrooms * model.Coefficients.BathroomCoef
	sqftFactor := s.SquareFootage * model.Coefficients.SqftCoef
	yearBuiltFactor := float64(yearBuilt-1950) * model.Coefficients.YearBuiltCoef

	rent := baseRent*locationFactor*typeFactor + bathroomFactor + sqftFactor + yearBuiltFactor

	jitter := rng.Next()*200 - 100
	final := math.Max(minimumRent, math.Round(rent+jitter))

	confidence := 75.0
	for _, signal := range []bool{
		cityKnown,
		stateKnown,
		typeKnown,
		s.YearBuilt > 0,
		s.SquareFootage > 0,
	} {
		if signal {
			confidence += 5
		}
	}
	confidence = math.Min(confidence, 95)

	return &models.RentalEstimate{
		EstimatedRent:   final,
		ConfidenceScore: confidence,
		Method:          models.MethodSimplifiedML,
		Factors: models.EstimateFactors{
			BaseRent:           baseRent,
			LocationFactor:     locationFactor,
			PropertyTypeFactor: typeFactor,
			BathroomFactor:     bathroomFactor,
			SqftFactor:         sqftFactor,
			YearBuiltFactor:    yearBuiltFactor,
		},
	}
}

// FallbackEstimate is the last-resort estimate when no model-based
// prediction is possible: 0.8% of the purchase price, or $1500 with no
// price at all.
func FallbackEstimate(price float64) *models.RentalEstimate {
	rent := 1500.0
	if price > 0 {
		rent = math.Round(price * 0.008)
	}
	return &models.RentalEstimate{
		EstimatedRent:   rent,
		ConfidenceScore: 60,
		Method:          models.MethodFallback,
	}
}
