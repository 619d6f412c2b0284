package aggregate

import "math"

// welford accumulates mean and variance in a single numerically stable
// pass. Sample counts can reach tens of thousands per evaluation, where the
// naive sum-of-squares approach is both slower and prone to catastrophic
// cancellation.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

// variance returns the sample variance (n-1 denominator); 0 for n < 2.
func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n-1)
}

func (w *welford) stddev() float64 {
	return math.Sqrt(w.variance())
}
