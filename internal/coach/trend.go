package coach

// Trend returns the ordinary least squares slope of values against
// their 1-based index. Fewer than two values have no trend.
func Trend(values []float64) float64 {
	n := float64(len(values))
	if len(values) < 2 {
		return 0
	}

	sumX := n * (n + 1) / 2
	sumX2 := n * (n + 1) * (2*n + 1) / 6
	var sumY, sumXY float64
	for i, y := range values {
		sumY += y
		sumXY += float64(i+1) * y
	}

	return (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)
}
