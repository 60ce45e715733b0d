package models

import (
	"strconv"
	"time"
)

// ListingCandidate is a minimal reference to a not-yet-fetched listing,
// discovered on a search results page. Candidates are ephemeral and never
// persisted; one without a detail URL is invalid.
type ListingCandidate struct {
	URL           string
	Price         string
	Bedrooms      string
	Bathrooms     string
	SquareFootage string
	Address       string
}

// PropertyImage is one image attached to a property document.
type PropertyImage struct {
	URL       string `bson:"url" json:"url"`
	Caption   string `bson:"caption,omitempty" json:"caption,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

// HistoryEvent is one entry in a property's listing history.
type HistoryEvent struct {
	Date  time.Time `bson:"date" json:"date"`
	Price float64   `bson:"price" json:"price"`
	Event string    `bson:"event" json:"event"`
}

// RawDetail is fully fetched, unnormalized page data for one listing.
// Scalar fields are raw strings exactly as extracted; unstructured fields
// (images, features, long description) pass through untouched.
type RawDetail struct {
	SourceURL string
	Source    string

	Address       string
	City          string
	State         string
	Zip           string
	Price         string
	Bedrooms      string
	Bathrooms     string
	SquareFootage string
	YearBuilt     string
	LotSize       string
	PropertyType  string
	HOAFee        string
	TaxAmount     string
	Rent          string
	Description   string

	DetailedDescription string
	Images              []PropertyImage
	Features            []string
}

// CleanDetail is the typed, normalized form of a RawDetail. Numeric fields
// are nil when the raw input was missing or unparseable.
type CleanDetail struct {
	Address       string
	City          string
	State         string
	Zip           string
	Location      string
	Price         *float64
	Bedrooms      *int
	Bathrooms     *float64
	SquareFootage *float64
	YearBuilt     *int
	LotSize       *float64
	PropertyType  string
	HOAFee        *float64
	TaxAmount     *float64
	Rent          *float64
	Description   string
}

// Raw renders the clean detail back into raw string form. Cleaning the
// result reproduces the same CleanDetail, which is how cleaning idempotence
// is stated and tested.
func (c *CleanDetail) Raw() RawDetail {
	return RawDetail{
		Address:       c.Address,
		City:          c.City,
		State:         c.State,
		Zip:           c.Zip,
		Price:         formatFloat(c.Price),
		Bedrooms:      formatInt(c.Bedrooms),
		Bathrooms:     formatFloat(c.Bathrooms),
		SquareFootage: formatFloat(c.SquareFootage),
		YearBuilt:     formatInt(c.YearBuilt),
		LotSize:       formatFloat(c.LotSize),
		PropertyType:  c.PropertyType,
		HOAFee:        formatFloat(c.HOAFee),
		TaxAmount:     formatFloat(c.TaxAmount),
		Rent:          formatFloat(c.Rent),
		Description:   c.Description,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// PropertyRecord is the structured row owned by the relational store.
// ID is generated on insert and joins every other table and the property
// document.
type PropertyRecord struct {
	ID            int64     `db:"id"`
	Address       string    `db:"address"`
	City          string    `db:"city"`
	State         string    `db:"state"`
	Zip           string    `db:"zip"`
	Latitude      float64   `db:"latitude"`
	Longitude     float64   `db:"longitude"`
	Price         float64   `db:"price"`
	Bedrooms      *int      `db:"bedrooms"`
	Bathrooms     *float64  `db:"bathrooms"`
	SquareFootage *float64  `db:"square_footage"`
	YearBuilt     *int      `db:"year_built"`
	LotSize       *float64  `db:"lot_size"`
	PropertyType  string    `db:"property_type"`
	HOAFee        float64   `db:"hoa_fees"`
	TaxAmount     *float64  `db:"tax_amount"`
	Description   string    `db:"description"`
	ListingURL    string    `db:"listing_url"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// DocumentMetadata tags a property document with its provenance.
type DocumentMetadata struct {
	Source    string    `bson:"source" json:"source"`
	ScrapedAt time.Time `bson:"scrapedAt" json:"scrapedAt"`
}

// PropertyDocument holds the unstructured, variable-shaped fields for one
// property, keyed by the relational row's generated identifier.
type PropertyDocument struct {
	PropertyID          int64            `bson:"pgPropertyId" json:"pgPropertyId"`
	Images              []PropertyImage  `bson:"images,omitempty" json:"images,omitempty"`
	Features            []string         `bson:"features,omitempty" json:"features,omitempty"`
	DetailedDescription string           `bson:"detailedDescription,omitempty" json:"detailedDescription,omitempty"`
	History             []HistoryEvent   `bson:"history,omitempty" json:"history,omitempty"`
	AIInsights          string           `bson:"aiInsights,omitempty" json:"aiInsights,omitempty"`
	Metadata            DocumentMetadata `bson:"metadata" json:"metadata"`
	UpdatedAt           time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// Rental estimation methods.
const (
	MethodFormulaBased = "formula-based"
	MethodSimplifiedML = "simplified-ml"
	MethodManual       = "manual"
	MethodFallback     = "fallback"
)

// EstimateFactors breaks a prediction down into its components.
type EstimateFactors struct {
	BaseRent           float64 `json:"baseRent"`
	LocationFactor     float64 `json:"locationFactor"`
	PropertyTypeFactor float64 `json:"propertyTypeFactor"`
	BathroomFactor     float64 `json:"bathroomFactor"`
	SqftFactor         float64 `json:"sqftFactor"`
	YearBuiltFactor    float64 `json:"yearBuiltFactor"`
}

// RentalEstimate is one rent prediction for a property. At most one row
// exists per property; writes are upserts.
type RentalEstimate struct {
	PropertyID      int64           `db:"property_id"`
	EstimatedRent   float64         `db:"estimated_rent"`
	Method          string          `db:"estimation_method"`
	ConfidenceScore float64         `db:"confidence_score"`
	Factors         EstimateFactors `db:"-"`
}

// PropertyExpenses is the expense breakdown used for metrics. Tax and
// insurance are annual amounts; maintenance, vacancy and management are
// percentages; utilities and HOA are monthly amounts.
type PropertyExpenses struct {
	PropertyTax        float64 `db:"property_tax"`
	Insurance          float64 `db:"insurance"`
	MaintenancePercent float64 `db:"maintenance_percent"`
	VacancyPercent     float64 `db:"vacancy_percent"`
	ManagementPercent  float64 `db:"property_management_percent"`
	Utilities          float64 `db:"utilities"`
	HOA                float64 `db:"hoa"`
}

// InvestmentMetrics holds the derived investment ratios for a property.
type InvestmentMetrics struct {
	RentToPriceRatio float64 `db:"rent_to_price_ratio"`
	SqftToPriceRatio float64 `db:"sqft_to_price_ratio"`
	MonthlyExpenses  float64 `db:"estimated_monthly_expenses"`
	CashFlow         float64 `db:"cash_flow"`
	CapRate          float64 `db:"cap_rate"`
	CashOnCashReturn float64 `db:"cash_on_cash_return"`
}

// NeighborhoodData is market context keyed by zip, independent of any
// single property.
type NeighborhoodData struct {
	Zip             string   `db:"zip"`
	City            string   `db:"city"`
	State           string   `db:"state"`
	MedianHomeValue *float64 `db:"median_home_value"`
	MedianRent      *float64 `db:"median_rent"`
	Population      *int     `db:"population"`
	MedianIncome    *float64 `db:"median_income"`
	WalkScore       *int     `db:"walk_score"`
	TransitScore    *int     `db:"transit_score"`
}

// InvestmentSummary is one row of the portfolio report, joining a property
// with its estimate and metrics.
type InvestmentSummary struct {
	PropertyID    int64    `db:"property_id"`
	Address       string   `db:"address"`
	City          string   `db:"city"`
	State         string   `db:"state"`
	Price         float64  `db:"price"`
	EstimatedRent *float64 `db:"estimated_rent"`
	CashFlow      *float64 `db:"cash_flow"`
	CapRate       *float64 `db:"cap_rate"`
}
