package math

import (
	"math"
)

// SimpleReturns converts a value series into period over period fractional
// returns. A zero previous value yields a zero return for that period
func SimpleReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	resp := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		resp[i-1] = values[i]/values[i-1] - 1
	}
	return resp
}

// CalculateCompoundAnnualGrowthRate Calculates CAGR.
// Using years, intervals per year would be 1 and number of intervals would be the number of years
// Using days, intervals per year would be 365 and number of intervals would be the number of days.
// A growth rate too large to represent returns zero
func CalculateCompoundAnnualGrowthRate(openValue, closeValue, intervalsPerYear, numberOfIntervals float64) float64 {
	if openValue <= 0 || numberOfIntervals <= 0 || closeValue < 0 {
		return 0
	}
	k := (math.Pow(closeValue/openValue, intervalsPerYear/numberOfIntervals) - 1) * 100
	if math.IsInf(k, 0) || math.IsNaN(k) {
		return 0
	}
	return k
}

// SampleStandardDeviation is the square root of the variance using n-1
// degrees of freedom
func SampleStandardDeviation(vals []float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	mean := ArithmeticAverage(vals)
	var combined float64
	for i := range vals {
		combined += (vals[i] - mean) * (vals[i] - mean)
	}
	return math.Sqrt(combined / float64(len(vals)-1))
}

// ArithmeticAverage is the basic form of calculating an average.
// Divide the sum of all values by the length of values
func ArithmeticAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumOfValues float64
	for x := range values {
		sumOfValues += values[x]
	}
	return sumOfValues / float64(len(values))
}

// CalculateSharpeRatio returns the annualised sharpe ratio of per period
// returns. Fewer than two returns or a flat series returns zero
func CalculateSharpeRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := make([]float64, len(returns))
	for i := range returns {
		excess[i] = returns[i] - riskFreeRate
	}
	std := SampleStandardDeviation(excess)
	if std == 0 {
		return 0
	}
	return ArithmeticAverage(excess) / std * math.Sqrt(periodsPerYear)
}

// CalculateSortinoRatio returns the annualised sortino ratio, penalising only
// returns below the risk free rate. No downside returns zero
func CalculateSortinoRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var downside float64
	for x := range returns {
		if d := returns[x] - riskFreeRate; d < 0 {
			downside += d * d
		}
	}
	if downside == 0 {
		return 0
	}
	deviation := math.Sqrt(downside / float64(len(returns)))
	return (ArithmeticAverage(returns) - riskFreeRate) / deviation * math.Sqrt(periodsPerYear)
}

// CalculateMaxDrawdown returns the largest peak to trough decline of a value
// series as a non-positive fraction, eg -0.25 for a 25% drawdown
func CalculateMaxDrawdown(values []float64) float64 {
	var peak, maxDD float64
	for i := range values {
		if i == 0 || values[i] > peak {
			peak = values[i]
		}
		if peak <= 0 {
			continue
		}
		if dd := values[i]/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// CalculateCalmarRatio is the annualised growth rate versus the maximum drawdown
func CalculateCalmarRatio(cagr, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return cagr / math.Abs(maxDrawdown)
}
