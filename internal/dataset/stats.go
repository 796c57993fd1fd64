// File: internal/dataset/stats.go
package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Describe summarises a numeric column the way pandas describe() does.
type Describe struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"25%"`
	P50   float64 `json:"50%"`
	P75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// DescribeColumn computes summary statistics over the non-null cells. ok is
// false for non-numeric or empty columns.
func DescribeColumn(s *Series) (Describe, bool) {
	if !s.IsNumeric() {
		return Describe{}, false
	}
	vals := s.Floats()
	if len(vals) == 0 {
		return Describe{}, false
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	d := Describe{
		Count: len(vals),
		Mean:  stat.Mean(vals, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P25:   quantileLinear(sorted, 0.25),
		P50:   quantileLinear(sorted, 0.50),
		P75:   quantileLinear(sorted, 0.75),
	}
	if len(vals) > 1 {
		d.Std = stat.StdDev(vals, nil)
	}
	return d, true
}

// Mean returns the mean of the non-null cells; ok is false when empty.
func Mean(s *Series) (float64, bool) {
	vals := s.Floats()
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

// Median returns the median of the non-null cells; ok is false when empty.
// Even-count columns interpolate between the two middle values.
func Median(s *Series) (float64, bool) {
	return Quantile(s, 0.5)
}

// Quantile returns the p-quantile (0..1) of the non-null cells.
func Quantile(s *Series, p float64) (float64, bool) {
	vals := s.Floats()
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	return quantileLinear(vals, p), true
}

// quantileLinear interpolates order statistics the way pandas quantile()
// does (method "linear"): the p-quantile sits at rank (n-1)*p, with
// fractional ranks blending the two bracketing values. gonum's cumulant
// kinds interpolate the empirical CDF instead, which returns a data point
// for the even-count median rather than the midpoint.
func quantileLinear(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	i := int(math.Floor(h))
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-float64(i))*(sorted[i+1]-sorted[i])
}

// Skew returns the sample skewness of the non-null cells; zero for columns
// with fewer than three values or no spread.
func Skew(s *Series) float64 {
	vals := s.Floats()
	if len(vals) < 3 {
		return 0
	}
	sk := stat.Skew(vals, nil)
	if math.IsNaN(sk) || math.IsInf(sk, 0) {
		return 0
	}
	return sk
}

// Mode returns the most frequent rendered value of the non-null cells,
// breaking ties by first appearance; ok is false when the column is all null.
func Mode(s *Series) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		v := s.String(i)
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, v := range order {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

// IQRBounds returns the Tukey fences mean for outlier treatment: [q1-k*iqr,
// q3+k*iqr]. ok is false for empty or non-numeric columns.
func IQRBounds(s *Series, k float64) (lo, hi float64, ok bool) {
	q1, ok1 := Quantile(s, 0.25)
	q3, ok2 := Quantile(s, 0.75)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr, true
}
