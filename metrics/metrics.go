// Package metrics computes investment ratios from price, rent and expenses.
// Every function is pure and returns 0 when a required input is missing or
// zero; none of them error.
package metrics

import (
	"math"

	"realestate-scraper/models"
)

// RentToPriceRatio returns (monthlyRent / price) × 100, as a percentage.
func RentToPriceRatio(monthlyRent, price float64) float64 {
	if monthlyRent <= 0 || price <= 0 {
		return 0
	}
	return round2(monthlyRent / price * 100)
}

// SqftToPriceRatio returns squareFootage / price.
func SqftToPriceRatio(squareFootage, price float64) float64 {
	if squareFootage <= 0 || price <= 0 {
		return 0
	}
	return round6(squareFootage / price)
}

// MonthlyExpenses totals the monthly carrying cost of a property. Tax and
// insurance are annual amounts; maintenance is a percentage of the property
// value per year; vacancy and management are percentages of rent; utilities
// and HOA are already monthly.
func MonthlyExpenses(e models.PropertyExpenses, price, monthlyRent float64) float64 {
	if price <= 0 || monthlyRent <= 0 {
		return 0
	}

	total := e.PropertyTax/12 +
		e.Insurance/12 +
		price*e.MaintenancePercent/100/12 +
		monthlyRent*e.VacancyPercent/100 +
		monthlyRent*e.ManagementPercent/100 +
		e.Utilities +
		e.HOA

	return round2(total)
}

// CashFlow returns monthly rent minus monthly expenses.
func CashFlow(monthlyRent, monthlyExpenses float64) float64 {
	if monthlyRent <= 0 || monthlyExpenses <= 0 {
		return 0
	}
	return round2(monthlyRent - monthlyExpenses)
}

// CapRate returns annual net operating income over price, as a percentage.
func CapRate(monthlyRent, monthlyExpenses, price float64) float64 {
	if monthlyRent <= 0 || monthlyExpenses <= 0 || price <= 0 {
		return 0
	}
	annualNOI := (monthlyRent - monthlyExpenses) * 12
	return round2(annualNOI / price * 100)
}

// CashOnCashReturn returns annual cash flow over total cash invested
// (down payment + closing costs + rehab costs), as a percentage.
func CashOnCashReturn(monthlyRent, monthlyExpenses, downPayment, closingCosts, rehabCosts float64) float64 {
	if monthlyRent <= 0 || monthlyExpenses <= 0 || downPayment <= 0 {
		return 0
	}

	totalInvested := downPayment + closingCosts + rehabCosts
	if totalInvested == 0 {
		return 0
	}

	annualCashFlow := (monthlyRent - monthlyExpenses) * 12
	return round2(annualCashFlow / totalInvested * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
