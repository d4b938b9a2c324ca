package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shape summarizes the shape of the RSSI distribution. Kurtosis is
// reported in total form, where 3 marks a normal distribution.
type Shape struct {
	Skewness float64
	Kurtosis float64
	PValue   float64
	Normal   bool
}

// DistributionShape computes skewness, kurtosis, and a moment-based
// normality screen over the sample. Small or degenerate samples yield
// zero moments and fail the screen.
func DistributionShape(data []float64) Shape {
	sh := Shape{
		Skewness: skewness(data),
		Kurtosis: kurtosis(data),
	}
	if len(data) < 8 {
		return sh
	}
	// Combined moment statistic scored against chi-squared with two
	// degrees of freedom.
	stat := math.Abs(sh.Skewness) + math.Abs(sh.Kurtosis-3)/2
	dist := distuv.ChiSquared{K: 2}
	sh.PValue = 1 - dist.CDF(stat*stat)
	sh.Normal = sh.PValue > 0.05
	return sh
}

// skewness is the adjusted Fisher-Pearson standardized third moment.
func skewness(data []float64) float64 {
	n := float64(len(data))
	if n < 3 {
		return 0
	}
	mean, _ := stats.Mean(data)
	sd, _ := stats.StandardDeviation(data)
	if sd == 0 {
		return 0
	}
	var sum float64
	for _, x := range data {
		sum += math.Pow((x-mean)/sd, 3)
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// kurtosis is the bias-corrected standardized fourth moment in total
// form.
func kurtosis(data []float64) float64 {
	n := float64(len(data))
	if n < 4 {
		return 0
	}
	mean, _ := stats.Mean(data)
	sd, _ := stats.StandardDeviation(data)
	if sd == 0 {
		return 0
	}
	var sum float64
	for _, x := range data {
		sum += math.Pow((x-mean)/sd, 4)
	}
	excess := sum/n - 3
	correction := (n - 1) / ((n - 2) * (n - 3))
	return correction*((n+1)*excess+6) + 3
}
