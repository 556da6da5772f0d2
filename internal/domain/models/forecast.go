package models

// FeatureVector is an ordered set of named feature values.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Get returns the value for name.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector keyed by feature name.
func (v FeatureVector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		out[n] = v.Values[i]
	}
	return out
}

// ForecastResult holds the recursive predictions in step order and the
// trend of the last step against the last actual price.
type ForecastResult struct {
	Key             SeriesKey
	Forecast        []float64
	TrendPercent    float64
	LastActualPrice float64
	HistorySource   HistorySourceKind
	HistoryPoints   int
}
