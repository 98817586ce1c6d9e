package advice

import "math"

// DaysPerMonth is the canonical month length used to scale window totals.
const DaysPerMonth = 30.0

// EstimateMonthly scales a total observed over days to a 30-day month,
// assuming a uniform daily rate. Non-positive days return total unchanged.
func EstimateMonthly(total float64, days int) float64 {
	if days <= 0 {
		return total
	}
	return total * (DaysPerMonth / float64(days))
}

// AnnualSaving is twelve months of a monthly saving.
func AnnualSaving(monthly float64) float64 {
	return monthly * 12
}

// FutureValue returns the value after years of monthly contributions compounded
// monthly at annualRate.
func FutureValue(monthly, annualRate float64, years int) float64 {
	if annualRate <= -1 {
		return 0
	}
	r := annualRate / 12
	n := float64(years * 12)
	if r == 0 {
		return monthly * n
	}
	return monthly * ((math.Pow(1+r, n) - 1) / r)
}
