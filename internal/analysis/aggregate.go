package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/AgyeDark/galamsey-sentinel/internal/properties"
)

// nanMean averages the finite values, NaN when none are.
func nanMean(vals []float64) float64 {
	var sum float64
	var n int
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// SortSeries orders estimates by acquisition date ascending. Equal dates
// keep their existing order.
func SortSeries(series []SceneEstimate) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
}

// SeasonalMean averages the per-scene means. Every usable scene counts
// once, a huge clear scene never outvotes a small muddy one.
func SeasonalMean(series []SceneEstimate) float64 {
	vals := make([]float64, len(series))
	for i, e := range series {
		vals[i] = e.Turbidity
	}
	return stat.Mean(vals, nil)
}

// Classify maps the seasonal mean onto the preset's labels. Both cuts
// are strict, a mean sitting exactly on a threshold takes the milder
// label.
func Classify(mean float64, th properties.StatusThresholds) string {
	switch {
	case mean > th.Critical:
		return th.CriticalLabel
	case mean > th.Moderate:
		return th.ModerateLabel
	default:
		return th.ClearLabel
	}
}

// Summarize produces the season verdict, nil when nothing was usable.
func Summarize(series []SceneEstimate, th properties.StatusThresholds) *AnalysisSummary {
	if len(series) == 0 {
		return nil
	}
	mean := SeasonalMean(series)
	return &AnalysisSummary{
		MeanTurbidity: mean,
		Status:        Classify(mean, th),
		ScenesUsed:    len(series),
	}
}
