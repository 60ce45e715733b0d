package metrics

import (
	"testing"

	"realestate-scraper/models"
)

func TestRentToPriceRatio(t *testing.T) {
	tests := []struct {
		rent, price float64
		want        float64
	}{
		{3000, 500000, 0.60},
		{2000, 300000, 0.67},
		{0, 500000, 0},
		{3000, 0, 0},
		{-100, 500000, 0},
	}

	for _, tt := range tests {
		got := RentToPriceRatio(tt.rent, tt.price)
		if got != tt.want {
			t.Errorf("RentToPriceRatio(%.0f, %.0f) = %.2f; want %.2f", tt.rent, tt.price, got, tt.want)
		}
	}
}

func TestSqftToPriceRatio(t *testing.T) {
	if got := SqftToPriceRatio(1500, 300000); got != 0.005 {
		t.Errorf("SqftToPriceRatio(1500, 300000) = %v; want 0.005", got)
	}
	if got := SqftToPriceRatio(0, 300000); got != 0 {
		t.Errorf("zero sqft should yield 0, got %v", got)
	}
	if got := SqftToPriceRatio(1500, 0); got != 0 {
		t.Errorf("zero price should yield 0, got %v", got)
	}
}

// Values from the worked example: $300k price, $2000 rent, $3000/yr tax,
// $1050/yr insurance, 1% maintenance, 5% vacancy, 8% management.
func TestEndToEndExample(t *testing.T) {
	expenses := models.PropertyExpenses{
		PropertyTax:        3000,
		Insurance:          1050,
		MaintenancePercent: 1,
		VacancyPercent:     5,
		ManagementPercent:  8,
		Utilities:          0,
		HOA:                0,
	}

	monthly := MonthlyExpenses(expenses, 300000, 2000)
	if monthly != 847.50 {
		t.Fatalf("MonthlyExpenses = %.2f; want 847.50", monthly)
	}

	flow := CashFlow(2000, monthly)
	if flow != 1152.50 {
		t.Errorf("CashFlow = %.2f; want 1152.50", flow)
	}

	cap := CapRate(2000, monthly, 300000)
	if cap != 4.61 {
		t.Errorf("CapRate = %.2f; want 4.61", cap)
	}
}

func TestZeroInputsReturnZero(t *testing.T) {
	expenses := models.PropertyExpenses{PropertyTax: 3000, Insurance: 1050}

	for _, price := range []float64{0, -1} {
		if got := MonthlyExpenses(expenses, price, 2000); got != 0 {
			t.Errorf("MonthlyExpenses with price %.0f = %v; want 0", price, got)
		}
		if got := CapRate(2000, 800, price); got != 0 {
			t.Errorf("CapRate with price %.0f = %v; want 0", price, got)
		}
	}

	for _, rent := range []float64{0, -50} {
		if got := MonthlyExpenses(expenses, 300000, rent); got != 0 {
			t.Errorf("MonthlyExpenses with rent %.0f = %v; want 0", rent, got)
		}
		if got := CashFlow(rent, 800); got != 0 {
			t.Errorf("CashFlow with rent %.0f = %v; want 0", rent, got)
		}
		if got := CapRate(rent, 800, 300000); got != 0 {
			t.Errorf("CapRate with rent %.0f = %v; want 0", rent, got)
		}
		if got := CashOnCashReturn(rent, 800, 60000, 9000, 0); got != 0 {
			t.Errorf("CashOnCashReturn with rent %.0f = %v; want 0", rent, got)
		}
	}
}

func TestCashOnCashReturn(t *testing.T) {
	// Annual cash flow (2000-800)*12 = 14400; invested 60000+9000+3000 = 72000.
	got := CashOnCashReturn(2000, 800, 60000, 9000, 3000)
	if got != 20.0 {
		t.Errorf("CashOnCashReturn = %.2f; want 20.00", got)
	}

	if got := CashOnCashReturn(2000, 800, 0, 9000, 3000); got != 0 {
		t.Errorf("zero down payment should yield 0, got %v", got)
	}
}
