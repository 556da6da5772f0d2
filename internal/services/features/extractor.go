package features

import (
	"time"

	"AgriIntel/internal/domain/models"
)

// Forecast feature names, as declared by the trained price model.
const (
	ModalPrice     = "Modal_Price"
	Lag1           = "Modal_Price_lag_1"
	Lag2           = "Modal_Price_lag_2"
	Lag3           = "Modal_Price_lag_3"
	Lag7           = "Modal_Price_lag_7"
	RollingMean3   = "Modal_Price_rolling_mean_3"
	RollingMean7   = "Modal_Price_rolling_mean_7"
	RollingStd7    = "Modal_Price_rolling_std_7"
	RollingMin7    = "Modal_Price_rolling_min_7"
	RollingMax7    = "Modal_Price_rolling_max_7"
	PriceChange1   = "price_change_1"
	PriceChange3   = "price_change_3"
	PercentChange1 = "percent_change_1"
	PercentChange3 = "percent_change_3"
	DayOfWeek      = "day_of_week"
	Month          = "month"
	WeekOfYear     = "week_of_year"
	Trend7D        = "Modal_Price_trend_7D"
	Trend14D       = "Modal_Price_trend_14D"
)

// DefaultFeatureColumns lists every computed feature in canonical order.
var DefaultFeatureColumns = []string{
	ModalPrice, Lag1, Lag2, Lag3, Lag7,
	RollingMean3, RollingMean7, RollingStd7, RollingMin7, RollingMax7,
	PriceChange1, PriceChange3, PercentChange1, PercentChange3,
	DayOfWeek, Month, WeekOfYear,
	Trend7D, Trend14D,
}

// LastRowFeatures computes the features of the last row of the series.
// Values that cannot be computed from the available history are omitted.
func LastRowFeatures(w *WorkingSeries) map[string]float64 {
	out := make(map[string]float64, len(DefaultFeatureColumns))
	n := w.Len()
	if n == 0 {
		return out
	}
	last := n - 1

	price, hasPrice := w.observed(last)
	if hasPrice {
		out[ModalPrice] = price
	}

	lags := map[int]string{1: Lag1, 2: Lag2, 3: Lag3, 7: Lag7}
	lagVals := make(map[int]float64, len(lags))
	for k, name := range lags {
		if v, ok := w.observed(last - k); ok {
			out[name] = v
			lagVals[k] = v
		}
	}

	if v, ok := Mean(w.window(last, 3), 1); ok {
		out[RollingMean3] = v
	}
	win7 := w.window(last, 7)
	if v, ok := Mean(win7, 1); ok {
		out[RollingMean7] = v
	}
	if v, ok := SampleStd(win7); ok {
		out[RollingStd7] = v
	} else {
		out[RollingStd7] = 0
	}
	if lo, hi, ok := MinMax(win7); ok {
		out[RollingMin7] = lo
		out[RollingMax7] = hi
	}

	if lag1, ok := lagVals[1]; ok && hasPrice {
		out[PriceChange1] = price - lag1
		out[PercentChange1] = percentChange(price-lag1, lag1)
	}
	if lag3, ok := lagVals[3]; ok && hasPrice {
		out[PriceChange3] = price - lag3
		out[PercentChange3] = percentChange(price-lag3, lag3)
	}

	date := w.rows[last].date
	out[DayOfWeek] = float64((int(date.Weekday()) + 6) % 7)
	out[Month] = float64(date.Month())
	_, week := date.ISOWeek()
	out[WeekOfYear] = float64(week)

	if v, ok := Slope(w.window(last, 7)); ok {
		out[Trend7D] = v
	} else {
		out[Trend7D] = 0
	}
	if v, ok := Slope(w.window(last, 14)); ok {
		out[Trend14D] = v
	} else {
		out[Trend14D] = 0
	}
	return out
}

// BuildLastRowFeatures selects the required columns, in order, from the last
// row's features. Unknown columns and values that could not be computed are 0.
func BuildLastRowFeatures(w *WorkingSeries, required []string) models.FeatureVector {
	computed := LastRowFeatures(w)
	fv := models.FeatureVector{
		Names:  make([]string, len(required)),
		Values: make([]float64, len(required)),
	}
	copy(fv.Names, required)
	for i, name := range required {
		fv.Values[i] = computed[name]
	}
	return fv
}

// NextDate is the day after the latest date in the series.
func NextDate(w *WorkingSeries) (time.Time, bool) {
	last, ok := w.MaxDate()
	if !ok {
		return time.Time{}, false
	}
	return last.AddDate(0, 0, 1), true
}

func percentChange(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base * 100
}
