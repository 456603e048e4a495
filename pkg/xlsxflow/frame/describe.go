package frame

import (
	"math"
	"strconv"
)

// ColumnStats summarizes one column.
type ColumnStats struct {
	Name string `json:"name"`
	// Count is the number of non-empty values.
	Count int `json:"count"`
	// Numeric is the number of values that parsed as numbers.
	Numeric int     `json:"numeric"`
	Sum     float64 `json:"sum"`
	Mean    float64 `json:"mean"`
	// Std is the sample standard deviation; zero with fewer than two numbers.
	Std float64 `json:"std"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Describe computes per-column statistics. Non-numeric values count toward
// Count only.
func (f *Frame) Describe() []ColumnStats {
	out := make([]ColumnStats, len(f.Columns))
	for i, name := range f.Columns {
		st := ColumnStats{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
		var nums []float64
		for _, r := range f.Rows {
			v := r[i]
			if v == nil || v == "" {
				continue
			}
			st.Count++
			if x, ok := toFloat(v); ok {
				nums = append(nums, x)
			}
		}
		st.Numeric = len(nums)
		if st.Numeric == 0 {
			st.Min, st.Max = 0, 0
			out[i] = st
			continue
		}
		for _, x := range nums {
			st.Sum += x
			st.Min = math.Min(st.Min, x)
			st.Max = math.Max(st.Max, x)
		}
		st.Mean = st.Sum / float64(st.Numeric)
		if st.Numeric > 1 {
			var ss float64
			for _, x := range nums {
				ss += (x - st.Mean) * (x - st.Mean)
			}
			st.Std = math.Sqrt(ss / float64(st.Numeric-1))
		}
		out[i] = st
	}
	return out
}

// StatsFrame renders describe output as a frame, one row per column.
func StatsFrame(stats []ColumnStats) *Frame {
	rows := make([][]interface{}, len(stats))
	for i, st := range stats {
		rows[i] = []interface{}{st.Name, int64(st.Count), int64(st.Numeric), st.Sum, st.Mean, st.Std, st.Min, st.Max}
	}
	return New([]string{"column", "count", "numeric", "sum", "mean", "std", "min", "max"}, rows)
}

func toFloat(v interface{}) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	case float64:
		x = n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}
