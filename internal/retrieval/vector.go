package retrieval

import "math"

// L2Distance returns the Euclidean distance between two vectors. The
// second return is false when the vectors are empty or of different
// lengths, in which case the pair cannot be compared.
func L2Distance(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), true
}
