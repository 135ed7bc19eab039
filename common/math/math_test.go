package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleReturns(t *testing.T) {
	t.Parallel()
	assert.Nil(t, SimpleReturns([]float64{1}))
	r := SimpleReturns([]float64{100, 110, 99, 0, 5})
	assert.Len(t, r, 4)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)
	assert.InDelta(t, -1, r[2], 1e-12)
	assert.Zero(t, r[3])
}

func TestCalculateCompoundAnnualGrowthRate(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 10.0, CalculateCompoundAnnualGrowthRate(100, 110, 1, 1), 1e-9)
	assert.InDelta(t, 100.0, CalculateCompoundAnnualGrowthRate(100, 400, 1, 2), 1e-9)
	assert.Zero(t, CalculateCompoundAnnualGrowthRate(0, 400, 1, 2))
	assert.Zero(t, CalculateCompoundAnnualGrowthRate(100, 400, 1, 0))
	// two hourly samples doubling in value annualise past float64 range
	assert.Zero(t, CalculateCompoundAnnualGrowthRate(100, 200, 8760, 1))
	assert.InDelta(t, -100.0, CalculateCompoundAnnualGrowthRate(100, 50, 8760, 1), 1e-9)
}

func TestStandardDeviation(t *testing.T) {
	t.Parallel()
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, math.Sqrt(32.0/7.0), SampleStandardDeviation(vals), 1e-12)
	assert.Zero(t, SampleStandardDeviation([]float64{1}))
	assert.Zero(t, ArithmeticAverage(nil))
	assert.Equal(t, 5.0, ArithmeticAverage(vals))
}

func TestCalculateSharpeRatio(t *testing.T) {
	t.Parallel()
	assert.Zero(t, CalculateSharpeRatio([]float64{0.1}, 0, 252))
	assert.Zero(t, CalculateSharpeRatio([]float64{0.1, 0.1, 0.1}, 0, 252))

	r := []float64{0.01, 0.02, -0.01, 0.03}
	expected := ArithmeticAverage(r) / SampleStandardDeviation(r) * math.Sqrt(252)
	assert.InDelta(t, expected, CalculateSharpeRatio(r, 0, 252), 1e-12)
}

func TestCalculateSortinoRatio(t *testing.T) {
	t.Parallel()
	assert.Zero(t, CalculateSortinoRatio([]float64{0.1, 0.2}, 0, 252))
	r := []float64{0.02, -0.01, 0.03, -0.02}
	dd := math.Sqrt((0.0001 + 0.0004) / 4)
	expected := ArithmeticAverage(r) / dd * math.Sqrt(252)
	assert.InDelta(t, expected, CalculateSortinoRatio(r, 0, 252), 1e-9)
}

func TestCalculateMaxDrawdown(t *testing.T) {
	t.Parallel()
	assert.Zero(t, CalculateMaxDrawdown(nil))
	assert.Zero(t, CalculateMaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, -0.5, CalculateMaxDrawdown([]float64{100, 200, 100, 150}), 1e-12)
	assert.InDelta(t, -0.25, CalculateMaxDrawdown([]float64{100, 75, 90}), 1e-12)
}

func TestCalculateCalmarRatio(t *testing.T) {
	t.Parallel()
	assert.Zero(t, CalculateCalmarRatio(10, 0))
	assert.Equal(t, 40.0, CalculateCalmarRatio(10, -0.25))
}
