// Package density estimates smoothed distributions of tag counts.
package density

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultGridSize is the number of points the curve is evaluated at.
	DefaultGridSize = 200
	// DefaultCut extends the grid this many bandwidths past the data range.
	DefaultCut = 3.0
)

// Curve is a density evaluated on an evenly spaced grid.
type Curve struct {
	X         []float64
	Y         []float64
	Bandwidth float64
}

// Log10p1 returns log10(1 + v) for every count.
func Log10p1(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log10(1 + float64(v))
	}
	return out
}

// ScottBandwidth returns the Gaussian kernel bandwidth for samples using
// Scott's rule, std * n^(-1/5). Degenerate samples get a unit spread.
func ScottBandwidth(samples []float64) float64 {
	n := float64(len(samples))
	std := 0.0
	if len(samples) > 1 {
		std = stat.StdDev(samples, nil)
	}
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return std * math.Pow(n, -1.0/5.0)
}

// KDE evaluates a Gaussian kernel density estimate of samples on gridSize
// points spanning the data range extended by cut bandwidths on each side.
// Empty input yields an empty curve.
func KDE(samples []float64, gridSize int, cut float64) Curve {
	if len(samples) == 0 {
		return Curve{}
	}
	if gridSize < 2 {
		gridSize = DefaultGridSize
	}

	bw := ScottBandwidth(samples)
	lo := floats.Min(samples) - cut*bw
	hi := floats.Max(samples) + cut*bw

	xs := floats.Span(make([]float64, gridSize), lo, hi)
	ys := make([]float64, gridSize)

	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	n := float64(len(samples))
	for i, x := range xs {
		sum := 0.0
		for _, s := range samples {
			sum += kernel.Prob(x - s)
		}
		ys[i] = sum / n
	}

	return Curve{X: xs, Y: ys, Bandwidth: bw}
}

// Of log-scales counts and estimates their density with the defaults.
func Of(counts []int) Curve {
	return KDE(Log10p1(counts), DefaultGridSize, DefaultCut)
}
