package estimator

import (
	"math"
	"time"

	"realestate-scraper/models"
)

// minGroupSamples is the smallest group that may move a coefficient during
// training. Groups below it keep their previous value.
const minGroupSamples = 5

type groupStats struct {
	sum   float64
	count int
}

func (g groupStats) mean() float64 { return g.sum / float64(g.count) }

// Train recomputes model coefficients from observed rents. For each group of
// {bedroom count, city, state, property type} with at least minGroupSamples
// samples, the bedroom base rent becomes the group mean and the location and
// property-type multipliers become group mean over the national average.
// The input model is untouched; a new snapshot is returned. Training is a
// pure recomputation: training twice on identical data yields identical
// coefficients.
func Train(model *models.EstimationModel, samples []models.RentalTrainingRecord) *models.EstimationModel {
	out := model.Clone()
	out.TrainedAt = time.Now()
	out.TrainingSize = len(samples)

	byBedrooms := make(map[int]groupStats)
	byCity := make(map[string]groupStats)
	byState := make(map[string]groupStats)
	byType := make(map[string]groupStats)

	for _, s := range samples {
		accumulate(byBedrooms, s.Bedrooms, s.ActualRent)
		if s.City != "" {
			accumulate(byCity, s.City, s.ActualRent)
		}
		if s.State != "" {
			accumulate(byState, s.State, s.ActualRent)
		}
		if s.PropertyType != "" {
			accumulate(byType, s.PropertyType, s.ActualRent)
		}
	}

	for bedrooms, g := range byBedrooms {
		if g.count >= minGroupSamples {
			out.BedroomBaseRent[bedrooms] = math.Round(g.mean())
		}
	}
	for city, g := range byCity {
		if g.count >= minGroupSamples {
			out.LocationFactors[city] = g.mean() / nationalAverageRent
		}
	}
	for state, g := range byState {
		if g.count >= minGroupSamples {
			out.LocationFactors[state] = g.mean() / nationalAverageRent
		}
	}
	for propertyType, g := range byType {
		if g.count >= minGroupSamples {
			out.PropertyTypeFactors[propertyType] = g.mean() / nationalAverageRent
		}
	}

	return out
}

func accumulate[K comparable](groups map[K]groupStats, key K, rent float64) {
	g := groups[key]
	g.sum += rent
	g.count++
	groups[key] = g
}

// Evaluation summarizes prediction error against actual rents.
type Evaluation struct {
	Samples      int     `json:"samples"`
	MeanError    float64 `json:"meanError"`
	MeanAbsError float64 `json:"meanAbsError"`
	RMSE         float64 `json:"rmse"`
	RSquared     float64 `json:"rSquared"`
}

// Evaluate runs Predict over each test record and reports mean error, mean
// absolute error, RMSE and R² against the actual rents. The model is not
// mutated.
func Evaluate(model *models.EstimationModel, testSet []models.RentalTrainingRecord, rng RNG) Evaluation {
	if len(testSet) == 0 {
		return Evaluation{}
	}

	n := float64(len(testSet))
	var totalErr, totalAbsErr, totalSqErr, totalActual float64

	for _, rec := range testSet {
		pred := Predict(model, subjectFromTraining(rec), rng)
		diff := pred.EstimatedRent - rec.ActualRent
		totalErr += diff
		totalAbsErr += math.Abs(diff)
		totalSqErr += diff * diff
		totalActual += rec.ActualRent
	}

	meanActual := totalActual / n
	var totalSS float64
	for _, rec := range testSet {
		d := rec.ActualRent - meanActual
		totalSS += d * d
	}

	rSquared := 0.0
	if totalSS > 0 {
		rSquared = 1 - totalSqErr/totalSS
	}

	return Evaluation{
		Samples:      len(testSet),
		MeanError:    totalErr / n,
		MeanAbsError: totalAbsErr / n,
		RMSE:         math.Sqrt(totalSqErr / n),
		RSquared:     rSquared,
	}
}

func subjectFromTraining(rec models.RentalTrainingRecord) Subject {
	return Subject{
		Bedrooms:      rec.Bedrooms,
		Bathrooms:     rec.Bathrooms,
		SquareFootage: rec.SquareFootage,
		YearBuilt:     rec.YearBuilt,
		PropertyType:  rec.PropertyType,
		City:          rec.City,
		State:         rec.State,
	}
}
