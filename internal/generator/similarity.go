package generator

import "math"

// cosine returns the cosine similarity of a and b, or 0 when either is
// empty, zero, or the dimensions differ.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// maxCosine returns the highest similarity between v and any vector in set.
func maxCosine(v []float32, set [][]float32) float64 {
	best := math.Inf(-1)
	for _, s := range set {
		if sim := cosine(v, s); sim > best {
			best = sim
		}
	}
	return best
}
