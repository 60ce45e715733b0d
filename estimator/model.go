package estimator

import "realestate-scraper/models"

// nationalAverageRent anchors location and property-type multipliers during
// training: a factor is the group's mean rent divided by this value.
const nationalAverageRent = 1500.0

// DefaultModel returns the hand-tuned coefficient snapshot used before any
// training data exists.
func DefaultModel() *models.EstimationModel {
	return &models.EstimationModel{
		BedroomBaseRent: map[int]float64{
			0: 800, // studio
			1: 1000,
			2: 1300,
			3: 1700,
			4: 2200,
			5: 2800,
		},
		LocationFactors: map[string]float64{
			// city factors
			"San Francisco": 2.5,
			"New York":      2.7,
			"Los Angeles":   2.0,
			"Chicago":       1.7,
			"Boston":        2.1,
			"Seattle":       2.0,
			"Washington":    2.0,
			"Miami":         1.8,
			"Austin":        1.7,
			"Denver":        1.7,
			"Portland":      1.6,
			"San Diego":     1.9,

			// state fallbacks
			"CA": 1.8,
			"NY": 2.0,
			"IL": 1.5,
			"MA": 1.8,
			"WA": 1.7,
			"DC": 1.9,
			"FL": 1.5,
			"TX": 1.4,
			"CO": 1.5,
			"OR": 1.4,
		},
		PropertyTypeFactors: map[string]float64{
			"Single Family": 1.2,
			"Condo":         1.0,
			"Townhouse":     1.1,
			"Multi-Family":  1.3,
			"Apartment":     0.9,
		},
		Coefficients: models.Coefficients{
			Intercept:     500,
			BedroomCoef:   300,
			BathroomCoef:  200,
			SqftCoef:      0.5,
			YearBuiltCoef: 0.5,
		},
	}
}
