package calc

// Fit returns a copy of vec with exactly n entries. Shorter input is
// zero-padded on the right, longer input is truncated on the right.
func Fit(vec []float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	copy(out, vec)
	return out
}
