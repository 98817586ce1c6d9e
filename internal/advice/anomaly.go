package advice

import "math"

// AnomalyDeviation is the relative distance from the group mean that marks an outlier.
const AnomalyDeviation = 0.5

// DetectDuplicatesAndAnomalies reports whether amounts contain a repeated value
// and whether any amount deviates from the mean by more than AnomalyDeviation.
func DetectDuplicatesAndAnomalies(amounts []float64) (duplicate, anomaly bool) {
	if len(amounts) < 2 {
		return false, false
	}

	seen := make(map[float64]struct{}, len(amounts))
	var sum float64
	for _, a := range amounts {
		if _, ok := seen[a]; ok {
			duplicate = true
		}
		seen[a] = struct{}{}
		sum += a
	}

	mean := sum / float64(len(amounts))
	for _, a := range amounts {
		if math.Abs(a-mean) > mean*AnomalyDeviation {
			anomaly = true
			break
		}
	}
	return duplicate, anomaly
}

func mean(amounts []float64) float64 {
	if len(amounts) == 0 {
		return 0
	}
	var sum float64
	for _, a := range amounts {
		sum += a
	}
	return sum / float64(len(amounts))
}
