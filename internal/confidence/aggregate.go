package confidence

// Aggregate returns the arithmetic mean of the given per-field confidences,
// or 0 when there are none.
func Aggregate(factors []float64) float64 {
	if len(factors) == 0 {
		return 0
	}
	var sum float64
	for _, f := range factors {
		sum += float64(Clamp(f))
	}
	return sum / float64(len(factors))
}

// Combine merges two independent scores with the geometric mean.
func Combine(a, b Score) Score {
	return a.CombineWith(b)
}
