package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

var (
	// numberRegexp keeps only the digits and decimal point of a raw value
	numberRegexp = regexp.MustCompile(`[^0-9.]`)
	// integerRegexp captures the first integer in a string ("3 bd" → 3)
	integerRegexp = regexp.MustCompile(`(\d+)`)
	// decimalRegexp captures the first decimal number ("2.5 ba" → 2.5)
	decimalRegexp = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	// yearRegexp captures a 4-digit year in the 1900–2099 range
	yearRegexp = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Cleaner normalizes raw extracted details into typed records. Every rule is
// applied independently per field: missing or unparseable input produces a
// nil field, never an error. Cleaning is idempotent — cleaning the rendered
// output of a CleanDetail reproduces it.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean converts one raw detail record into its normalized form.
func (c *Cleaner) Clean(raw *models.RawDetail) models.CleanDetail {
	clean := models.CleanDetail{
		Address:       normaliseText(raw.Address),
		City:          normaliseText(raw.City),
		State:         normaliseText(raw.State),
		Zip:           normaliseText(raw.Zip),
		PropertyType:  normaliseText(raw.PropertyType),
		Description:   normaliseText(raw.Description),
		Price:         parseNumber(raw.Price),
		Bedrooms:      parseInteger(raw.Bedrooms),
		Bathrooms:     parseDecimal(raw.Bathrooms),
		SquareFootage: parseNumber(raw.SquareFootage),
		YearBuilt:     parseYear(raw.YearBuilt),
		LotSize:       parseNumber(raw.LotSize),
		HOAFee:        parseNumber(raw.HOAFee),
		TaxAmount:     parseNumber(raw.TaxAmount),
		Rent:          parseNumber(raw.Rent),
	}

	clean.Location = joinLocation(clean.Address, clean.City, clean.State, clean.Zip)
	return clean
}

// parseNumber strips everything except digits and the decimal point, then
// parses the remainder. Empty or non-numeric input yields nil.
func parseNumber(raw string) *float64 {
	cleaned := numberRegexp.ReplaceAllString(raw, "")
	if cleaned == "" {
		return nil
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &val
}

// parseInteger extracts the first integer in the string ("3 bd" → 3).
func parseInteger(raw string) *int {
	match := integerRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	val, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &val
}

// parseDecimal extracts the first decimal number in the string ("2.5 ba" → 2.5).
func parseDecimal(raw string) *float64 {
	match := decimalRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &val
}

// parseYear extracts a 4-digit year token matching 19xx or 20xx.
func parseYear(raw string) *int {
	match := yearRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	val, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &val
}

// joinLocation joins the non-empty address components with ", ".
func joinLocation(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
