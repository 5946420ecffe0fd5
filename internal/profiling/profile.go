// Package profiling summarizes the values in each column of a sheet.
package profiling

import (
	"math"
	"sort"

	"sheetview/domain/sheet"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ColumnProfile counts cell kinds in one column and, when the column holds
// numbers, summarizes them
type ColumnProfile struct {
	Name     string          `json:"name"`
	Key      int             `json:"key"`
	Cells    int             `json:"cells"`
	Empty    int             `json:"empty"`
	Numbers  int             `json:"numbers"`
	Strings  int             `json:"strings"`
	Bools    int             `json:"bools"`
	Distinct int             `json:"distinct"`
	Numeric  *NumericSummary `json:"numeric,omitempty"`
}

// NumericSummary describes the numeric cells of a column
type NumericSummary struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// ProfileSheet profiles every column of a sheet. Row 0 is counted as data.
func ProfileSheet(rows []sheet.Row, columns []sheet.ColumnDescriptor) []ColumnProfile {
	profiles := make([]ColumnProfile, len(columns))
	for i, col := range columns {
		profiles[i] = ProfileColumn(rows, col)
	}
	return profiles
}

// ProfileColumn profiles the cells at col.Key across rows
func ProfileColumn(rows []sheet.Row, col sheet.ColumnDescriptor) ColumnProfile {
	p := ColumnProfile{Name: col.Name, Key: col.Key, Cells: len(rows)}
	distinct := make(map[string]struct{})
	var numbers []float64

	for _, row := range rows {
		c := row.At(col.Key)
		switch c.Kind {
		case sheet.KindEmpty:
			p.Empty++
			continue
		case sheet.KindNumber:
			p.Numbers++
			numbers = append(numbers, c.Num)
		case sheet.KindBool:
			p.Bools++
		default:
			p.Strings++
		}
		distinct[c.Text] = struct{}{}
	}
	p.Distinct = len(distinct)

	if summary, err := Summarize(numbers); err == nil {
		p.Numeric = summary
	}
	return p
}

// Summarize computes the numeric summary of data; it fails on empty input
func Summarize(data []float64) (*NumericSummary, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	return &NumericSummary{
		Min:      min,
		Max:      max,
		Mean:     mean,
		Median:   median,
		StdDev:   stdDev,
		Q25:      q25,
		Q75:      q75,
		Skewness: skewness(data),
		Outliers: countOutliers(data, q25, q75),
	}, nil
}

// skewness is zero for fewer than three values or a constant column
func skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	s := stat.Skew(data, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// countOutliers uses the 1.5 IQR rule
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	n := 0
	for _, x := range data {
		if x < lower || x > upper {
			n++
		}
	}
	return n
}
