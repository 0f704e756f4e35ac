package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides unified access to the statistical distributions
// the inspector needs. Numeric stability and exact CDF algorithms are
// delegated to gonum rather than reimplemented.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// NormalCDF computes the cumulative distribution function for the standard normal
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes the quantile function for the standard normal
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// ChiSquarePValue computes the upper-tail p-value for a chi-square statistic
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}
	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return 1 - chiDist.CDF(chiSquare)
}

// MannWhitneyPValue computes the two-tailed p-value for a Mann-Whitney U
// statistic using the normal approximation with a tie correction.
// tieTerm is sum(t^3 - t) over tie groups of size t; pass 0 when untied.
func (d *Distributions) MannWhitneyPValue(u float64, n1, n2 int, tieTerm float64) float64 {
	if n1 <= 0 || n2 <= 0 {
		return 1.0
	}

	n := float64(n1 + n2)
	meanU := float64(n1*n2) / 2.0

	variance := (float64(n1*n2) / 12.0) * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		return 1.0
	}

	z := (u - meanU) / math.Sqrt(variance)
	return 2 * (1 - d.NormalCDF(math.Abs(z)))
}
