package bill

import (
	"fmt"
	"math"
)

// totalTolerance is the rounding slack allowed between the sum of item
// prices and the declared total, in currency units.
const totalTolerance = 0.01

// TotalCheck is the result of validating a bill's declared total
// against the sum of its item prices.
type TotalCheck struct {
	Valid         bool
	CalculatedSum float64
	DeclaredTotal float64
	Difference    float64
}

// ValidateTotal sums the bill's item prices (formula prices use their
// evaluated amount) and compares against the declared total with a
// one-cent tolerance.
func ValidateTotal(r Record) (TotalCheck, error) {
	if len(r.Items) == 0 {
		return TotalCheck{}, fmt.Errorf("bill has no items")
	}

	var sum float64
	for _, it := range r.Items {
		sum += it.Price.Amount()
	}

	diff := math.Abs(sum - r.Total)
	return TotalCheck{
		Valid:         diff < totalTolerance,
		CalculatedSum: round2(sum),
		DeclaredTotal: round2(r.Total),
		Difference:    round2(diff),
	}, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
