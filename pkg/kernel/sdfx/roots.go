package sdfx

import "math"

const rootEpsilon = 1e-14

// solveQuadratic solves a*x^2 + b*x + c = 0 and returns the real roots in
// [0, 1].
func solveQuadratic(a, b, c float64) []float64 {
	if math.Abs(a) < rootEpsilon {
		if math.Abs(b) < rootEpsilon {
			return nil
		}
		return unitRoots([]float64{-c / b})
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	s := math.Sqrt(disc)
	return unitRoots([]float64{(-b + s) / (2 * a), (-b - s) / (2 * a)})
}

func unitRoots(roots []float64) []float64 {
	out := roots[:0]
	for _, r := range roots {
		if r >= 0 && r <= 1 && !math.IsNaN(r) {
			out = append(out, r)
		}
	}
	return out
}
