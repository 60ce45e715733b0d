package estimator

import (
	"math"
	"strings"

	"realestate-scraper/models"
)

// FormulaInput is the ad-hoc feature set for the hand-tuned formula path,
// accepting a free-form location string instead of structured city/state.
type FormulaInput struct {
	Bedrooms      int
	Bathrooms     float64
	SquareFootage float64
	YearBuilt     int
	PropertyType  string
	Location      string
	Amenities     []string
}

// amenityBonus is added per amenity, up to amenityBonusCap.
const (
	amenityBonus    = 50.0
	amenityBonusCap = 250.0
)

// FormulaEstimate produces a rent estimate from hand-tuned constants with
// no persisted state: a location step-function base, per-room add-ons, a
// flat property-type adjustment, a year-built bracket and a capped amenity
// bonus. It backs the ad-hoc estimator endpoint where no trained model or
// purchase price is available.
func FormulaEstimate(in FormulaInput) *models.RentalEstimate {
	base := locationBaseRent(in.Location)

	rent := base +
		float64(in.Bedrooms)*350 +
		in.Bathrooms*200 +
		in.SquareFootage*0.5 +
		propertyTypeAdjustment(in.PropertyType) +
		yearBuiltAdjustment(in.YearBuilt) +
		math.Min(float64(len(in.Amenities))*amenityBonus, amenityBonusCap)

	return &models.RentalEstimate{
		EstimatedRent:   math.Max(minimumRent, math.Round(rent)),
		ConfidenceScore: 70,
		Method:          models.MethodFormulaBased,
	}
}

// locationBaseRent is a step function over the free-form location string.
func locationBaseRent(location string) float64 {
	loc := strings.ToLower(location)
	switch {
	case strings.Contains(loc, "new york"):
		return 3500
	case strings.Contains(loc, "san francisco"):
		return 3000
	case strings.Contains(loc, "los angeles"):
		return 2500
	case strings.Contains(loc, "boston"):
		return 2200
	case strings.Contains(loc, "chicago"):
		return 2000
	default:
		return 1200
	}
}

func propertyTypeAdjustment(propertyType string) float64 {
	switch propertyType {
	case "Single Family":
		return 250
	case "Multi-Family":
		return 300
	case "Townhouse":
		return 150
	case "Condo":
		return 50
	default:
		return 0
	}
}

func yearBuiltAdjustment(yearBuilt int) float64 {
	switch {
	case yearBuilt == 0:
		return 0
	case yearBuilt >= 2010:
		return 200
	case yearBuilt >= 1990:
		return 100
	case yearBuilt >= 1970:
		return 0
	default:
		return -100
	}
}
