package services

import (
	"fmt"
	"sort"
	"strings"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

// InvestmentReport aggregates the portfolio into headline figures.
type InvestmentReport struct {
	TotalProperties int
	WithEstimates   int
	AveragePrice    float64
	AverageRent     float64
	TotalCashFlow   float64
	BestCashFlow    *models.InvestmentSummary
	BestCapRate     *models.InvestmentSummary
	ByCity          map[string]int
}

// ReportService turns persisted investment summaries into a portfolio report.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(summaries []models.InvestmentSummary) *InvestmentReport {
	report := &InvestmentReport{
		ByCity: make(map[string]int),
	}

	if len(summaries) == 0 {
		return report
	}

	report.TotalProperties = len(summaries)

	var totalPrice, totalRent float64
	var priced, rented int

	for i := range summaries {
		sum := &summaries[i]
		if sum.Price > 0 {
			totalPrice += sum.Price
			priced++
		}
		if sum.EstimatedRent != nil && *sum.EstimatedRent > 0 {
			totalRent += *sum.EstimatedRent
			rented++
			report.WithEstimates++
		}
		if sum.CashFlow != nil {
			report.TotalCashFlow += *sum.CashFlow
			if report.BestCashFlow == nil || *sum.CashFlow > *report.BestCashFlow.CashFlow {
				report.BestCashFlow = sum
			}
		}
		if sum.CapRate != nil {
			if report.BestCapRate == nil || *sum.CapRate > *report.BestCapRate.CapRate {
				report.BestCapRate = sum
			}
		}
		if sum.City != "" {
			report.ByCity[sum.City]++
		}
	}

	if priced > 0 {
		report.AveragePrice = round2(totalPrice / float64(priced))
	}
	if rented > 0 {
		report.AverageRent = round2(totalRent / float64(rented))
	}
	report.TotalCashFlow = round2(report.TotalCashFlow)

	return report
}

func (s *ReportService) Print(r *InvestmentReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 PORTFOLIO INVESTMENT REPORT\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Properties tracked   : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Printf("  With rent estimates  : \033[1m%d\033[0m\n", r.WithEstimates)
	fmt.Println()

	// Market stats
	fmt.Printf("\033[1;33m  Market Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price        : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	if r.AverageRent > 0 {
		fmt.Printf("  Average rent estimate: \033[1;32m$%.2f/mo\033[0m\n", r.AverageRent)
	}
	fmt.Printf("  Portfolio cash flow  : \033[1;32m$%.2f/mo\033[0m\n", r.TotalCashFlow)
	fmt.Println()

	// Best performers
	if r.BestCashFlow != nil {
		fmt.Printf("\033[1;33m  Best Cash Flow\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.BestCashFlow.Address, 50))
		fmt.Printf("  Location  : %s, %s\n", r.BestCashFlow.City, r.BestCashFlow.State)
		fmt.Printf("  Cash flow : \033[1;32m$%.2f/mo\033[0m\n", *r.BestCashFlow.CashFlow)
		fmt.Println()
	}
	if r.BestCapRate != nil {
		fmt.Printf("\033[1;33m  Best Cap Rate\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.BestCapRate.Address, 50))
		fmt.Printf("  Location : %s, %s\n", r.BestCapRate.City, r.BestCapRate.State)
		fmt.Printf("  Cap rate : \033[1;32m%.2f%%\033[0m\n", *r.BestCapRate.CapRate)
		fmt.Println()
	}

	// Properties by city
	fmt.Printf("\033[1;33m  Properties by City\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByCity) == 0 {
		fmt.Printf("  No location data\n")
	} else {
		type cityCount struct {
			city  string
			count int
		}
		var cities []cityCount
		for city, cnt := range r.ByCity {
			cities = append(cities, cityCount{city, cnt})
		}
		sort.Slice(cities, func(i, j int) bool {
			return cities[i].count > cities[j].count
		})
		for _, cc := range cities {
			bar := strings.Repeat("█", cc.count)
			fmt.Printf("  %-30s %s (%d)\n", truncate(cc.city, 28), bar, cc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
