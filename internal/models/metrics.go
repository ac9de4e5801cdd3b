package models

import (
	"time"
)

// MetricDomain identifies which data source a metric series comes from.
type MetricDomain string

const (
	DomainWearable   MetricDomain = "wearable"
	DomainNutrition  MetricDomain = "nutrition"
	DomainSymptom    MetricDomain = "symptom"
	DomainMedication MetricDomain = "medication"
)

// MetricDirection captures whether a rising value is good or bad for the user.
// A falling resting heart rate is an improvement; a falling sleep score is not.
type MetricDirection string

const (
	HigherIsBetter MetricDirection = "higher_better"
	LowerIsBetter  MetricDirection = "lower_better"
)

// DataPoint is a single daily observation.
type DataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MetricSeries is an ordered daily series for one metric. One value per
// calendar date, no duplicate dates. Built fresh per request and treated as
// immutable once aligned.
type MetricSeries struct {
	MetricID string       `json:"metric_id"`
	Domain   MetricDomain `json:"domain"`
	Points   []DataPoint  `json:"points"`
}

// MetricInfo describes a known metric for labeling and trend interpretation.
type MetricInfo struct {
	ID        string
	Label     string
	Unit      string
	Domain    MetricDomain
	Direction MetricDirection
}

// metricCatalog holds the metrics the analytics engine knows how to label.
// Unknown metric ids still flow through analysis with a default entry.
var metricCatalog = map[string]MetricInfo{
	"sleep_score":        {ID: "sleep_score", Label: "Sleep Score", Unit: "score", Domain: DomainWearable, Direction: HigherIsBetter},
	"readiness_score":    {ID: "readiness_score", Label: "Readiness Score", Unit: "score", Domain: DomainWearable, Direction: HigherIsBetter},
	"resting_heart_rate": {ID: "resting_heart_rate", Label: "Resting Heart Rate", Unit: "bpm", Domain: DomainWearable, Direction: LowerIsBetter},
	"hrv":                {ID: "hrv", Label: "Heart Rate Variability", Unit: "ms", Domain: DomainWearable, Direction: HigherIsBetter},
	"steps":              {ID: "steps", Label: "Daily Steps", Unit: "steps", Domain: DomainWearable, Direction: HigherIsBetter},
	"calories":           {ID: "calories", Label: "Calorie Intake", Unit: "kcal", Domain: DomainNutrition, Direction: HigherIsBetter},
	"protein_g":          {ID: "protein_g", Label: "Protein Intake", Unit: "g", Domain: DomainNutrition, Direction: HigherIsBetter},
	"carbs_g":            {ID: "carbs_g", Label: "Carbohydrate Intake", Unit: "g", Domain: DomainNutrition, Direction: HigherIsBetter},
	"fat_g":              {ID: "fat_g", Label: "Fat Intake", Unit: "g", Domain: DomainNutrition, Direction: HigherIsBetter},
	"fiber_g":            {ID: "fiber_g", Label: "Fiber Intake", Unit: "g", Domain: DomainNutrition, Direction: HigherIsBetter},
	"sugar_g":            {ID: "sugar_g", Label: "Sugar Intake", Unit: "g", Domain: DomainNutrition, Direction: LowerIsBetter},
	"magnesium_mg":       {ID: "magnesium_mg", Label: "Magnesium Intake", Unit: "mg", Domain: DomainNutrition, Direction: HigherIsBetter},
	"caffeine_mg":        {ID: "caffeine_mg", Label: "Caffeine Intake", Unit: "mg", Domain: DomainNutrition, Direction: LowerIsBetter},
	"headache_severity":  {ID: "headache_severity", Label: "Headache Severity", Unit: "0-10", Domain: DomainSymptom, Direction: LowerIsBetter},
	"fatigue_severity":   {ID: "fatigue_severity", Label: "Fatigue Severity", Unit: "0-10", Domain: DomainSymptom, Direction: LowerIsBetter},
	"mood_severity":      {ID: "mood_severity", Label: "Low Mood Severity", Unit: "0-10", Domain: DomainSymptom, Direction: LowerIsBetter},
	"med_adherence":      {ID: "med_adherence", Label: "Medication Adherence", Unit: "%", Domain: DomainMedication, Direction: HigherIsBetter},
}

// LookupMetric returns catalog information for a metric id. Unknown metrics
// get a best-effort entry so analysis never fails on an unlabeled series.
func LookupMetric(metricID string) MetricInfo {
	if info, ok := metricCatalog[metricID]; ok {
		return info
	}
	return MetricInfo{
		ID:        metricID,
		Label:     metricID,
		Unit:      "",
		Domain:    DomainWearable,
		Direction: HigherIsBetter,
	}
}

// KnownMetricIDs returns the ids of all catalogued metrics.
func KnownMetricIDs() []string {
	ids := make([]string, 0, len(metricCatalog))
	for id := range metricCatalog {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of observations in the series.
func (s *MetricSeries) Len() int {
	return len(s.Points)
}
