package analytics

import (
	"sort"
	"time"

	"github.com/lumina-health/lumina-ai-go/internal/models"
)

// DefaultMinOverlapDays is the minimum paired observations required before a
// metric pair is eligible for any downstream analysis.
const DefaultMinOverlapDays = 5

// AlignedWindow is a set of metric series mapped onto one contiguous calendar
// axis. Dates are strictly increasing with no duplicates; missing days are
// absent, never interpolated. Immutable after construction.
type AlignedWindow struct {
	StartDate time.Time
	EndDate   time.Time
	Days      []time.Time

	values  map[string][]float64
	present map[string][]bool
	domains map[string]models.MetricDomain
}

// TimeSeriesAligner merges per-domain daily series onto a common date axis.
type TimeSeriesAligner struct {
	minOverlapDays int
}

// NewTimeSeriesAligner creates an aligner with the given minimum pair overlap.
// Non-positive values fall back to DefaultMinOverlapDays.
func NewTimeSeriesAligner(minOverlapDays int) *TimeSeriesAligner {
	if minOverlapDays <= 0 {
		minOverlapDays = DefaultMinOverlapDays
	}
	return &TimeSeriesAligner{minOverlapDays: minOverlapDays}
}

// MinOverlapDays returns the configured minimum pair overlap.
func (a *TimeSeriesAligner) MinOverlapDays() int {
	return a.minOverlapDays
}

// truncateToDay normalizes a timestamp to midnight UTC so that series from
// different timezones land on the same calendar axis.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Align builds an AlignedWindow covering the `days` calendar days ending at
// endDate inclusive. Every calendar day in the window gets a slot regardless
// of data presence. Observations outside the window are dropped; duplicate
// dates within a series keep the last value seen.
func (a *TimeSeriesAligner) Align(series []models.MetricSeries, days int, endDate time.Time) *AlignedWindow {
	if days < 1 {
		days = 1
	}
	end := truncateToDay(endDate)
	start := end.AddDate(0, 0, -(days - 1))

	axis := make([]time.Time, days)
	index := make(map[time.Time]int, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		axis[i] = day
		index[day] = i
	}

	w := &AlignedWindow{
		StartDate: start,
		EndDate:   end,
		Days:      axis,
		values:    make(map[string][]float64, len(series)),
		present:   make(map[string][]bool, len(series)),
		domains:   make(map[string]models.MetricDomain, len(series)),
	}

	for _, s := range series {
		vals := make([]float64, days)
		mask := make([]bool, days)
		for _, p := range s.Points {
			if i, ok := index[truncateToDay(p.Date)]; ok {
				vals[i] = p.Value
				mask[i] = true
			}
		}
		w.values[s.MetricID] = vals
		w.present[s.MetricID] = mask
		w.domains[s.MetricID] = s.Domain
	}

	return w
}

// WindowDays returns the length of the calendar axis.
func (w *AlignedWindow) WindowDays() int {
	return len(w.Days)
}

// MetricIDs returns the aligned metric ids in sorted order so that iteration
// over the window is deterministic.
func (w *AlignedWindow) MetricIDs() []string {
	ids := make([]string, 0, len(w.values))
	for id := range w.values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Domain returns the domain a metric was aligned under.
func (w *AlignedWindow) Domain(metricID string) models.MetricDomain {
	return w.domains[metricID]
}

// Value returns the observation for a metric on day index i, if present.
func (w *AlignedWindow) Value(metricID string, i int) (float64, bool) {
	mask, ok := w.present[metricID]
	if !ok || i < 0 || i >= len(mask) || !mask[i] {
		return 0, false
	}
	return w.values[metricID][i], true
}

// DaysAvailable counts the days a metric has data within the window.
func (w *AlignedWindow) DaysAvailable(metricID string) int {
	count := 0
	for _, ok := range w.present[metricID] {
		if ok {
			count++
		}
	}
	return count
}

// SeriesValues returns the metric's present values in day order, with their
// day indexes on the axis. The returned slices are fresh copies.
func (w *AlignedWindow) SeriesValues(metricID string) ([]float64, []int) {
	mask, ok := w.present[metricID]
	if !ok {
		return nil, nil
	}
	vals := make([]float64, 0, len(mask))
	idx := make([]int, 0, len(mask))
	for i, p := range mask {
		if p {
			vals = append(vals, w.values[metricID][i])
			idx = append(idx, i)
		}
	}
	return vals, idx
}

// OverlapCount counts days where both metrics have data.
func (w *AlignedWindow) OverlapCount(metricA, metricB string) int {
	ma, mb := w.present[metricA], w.present[metricB]
	if ma == nil || mb == nil {
		return 0
	}
	count := 0
	for i := range ma {
		if ma[i] && mb[i] {
			count++
		}
	}
	return count
}

// PairQualityScore is the fraction of the window where both metrics had
// usable data.
func (w *AlignedWindow) PairQualityScore(metricA, metricB string) float64 {
	if len(w.Days) == 0 {
		return 0
	}
	return float64(w.OverlapCount(metricA, metricB)) / float64(len(w.Days))
}

// PairedValues extracts the overlapping observations of a[t] against b[t+lag].
// A positive lag pairs each day of A with a later day of B.
func (w *AlignedWindow) PairedValues(metricA, metricB string, lag int) (x, y []float64, dates []time.Time) {
	ma, mb := w.present[metricA], w.present[metricB]
	if ma == nil || mb == nil || lag < 0 {
		return nil, nil, nil
	}
	for i := 0; i+lag < len(ma); i++ {
		if ma[i] && mb[i+lag] {
			x = append(x, w.values[metricA][i])
			y = append(y, w.values[metricB][i+lag])
			dates = append(dates, w.Days[i])
		}
	}
	return x, y, dates
}
