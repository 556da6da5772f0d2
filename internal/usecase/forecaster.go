package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	domsvc "AgriIntel/internal/domain/service"
	"AgriIntel/internal/services/features"
	applogger "AgriIntel/pkg/logger"
	"AgriIntel/pkg/metrics"
)

// ForecastHorizon is the number of one-day-ahead steps per forecast.
const ForecastHorizon = 3

// ForecastModels resolves the forecast contract and its declared columns.
type ForecastModels interface {
	Forecast() (domsvc.ForecastModel, []string, error)
}

// HistoryFetcher supplies price history for a key.
type HistoryFetcher interface {
	Fetch(ctx context.Context, region, commodity string) (models.HistorySeries, error)
}

// Forecaster runs the recursive multi-step price forecast. Each step's
// prediction is written back into the working series before the next
// step's features are built, so steps run strictly in order.
type Forecaster struct {
	models  ForecastModels
	history HistoryFetcher
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewForecaster(m ForecastModels, history HistoryFetcher, mt domrepo.Metrics, l *applogger.Logger) *Forecaster {
	if mt == nil {
		mt = metrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Forecaster{models: m, history: history, metrics: mt, l: l}
}

// ForecastFor fetches history for the key and forecasts from it.
func (f *Forecaster) ForecastFor(ctx context.Context, region, commodity string) (models.ForecastResult, error) {
	if _, _, err := f.models.Forecast(); err != nil {
		return models.ForecastResult{}, err
	}
	series, err := f.history.Fetch(ctx, region, commodity)
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("fetch history: %w", err)
	}
	return f.Forecast(ctx, series)
}

// Forecast predicts ForecastHorizon prices following the series.
func (f *Forecaster) Forecast(ctx context.Context, series models.HistorySeries) (models.ForecastResult, error) {
	model, columns, err := f.models.Forecast()
	if err != nil {
		return models.ForecastResult{}, err
	}
	if series.Len() == 0 {
		return models.ForecastResult{}, errs.Invalid("history", fmt.Sprintf("no price history for %s", series.Key))
	}

	start := time.Now()
	w := features.NewWorkingSeries(series)
	observed := w.Points()
	lastActual := observed[len(observed)-1].Price

	out := make([]float64, 0, ForecastHorizon)
	for step := 1; step <= ForecastHorizon; step++ {
		if err := ctx.Err(); err != nil {
			return models.ForecastResult{}, err
		}
		next, _ := features.NextDate(w)
		if err := w.AppendPending(next); err != nil {
			return models.ForecastResult{}, fmt.Errorf("forecast step %d: %w", step, err)
		}
		w.Sort()

		row := features.BuildLastRowFeatures(w, columns)
		pred, err := model.Predict(ctx, row)
		if err != nil {
			f.metrics.RecordError("forecast_predict")
			return models.ForecastResult{}, fmt.Errorf("forecast step %d: %w", step, err)
		}
		if math.IsNaN(pred) || math.IsInf(pred, 0) {
			f.metrics.RecordError("forecast_predict")
			return models.ForecastResult{}, fmt.Errorf("forecast step %d: non-finite prediction", step)
		}
		if err := w.Resolve(pred); err != nil {
			return models.ForecastResult{}, fmt.Errorf("forecast step %d: %w", step, err)
		}
		f.l.Debug("forecast step",
			applogger.String("key", series.Key.String()),
			applogger.Int("step", step),
			applogger.String("date", next.Format(time.DateOnly)),
			applogger.Float64("prediction", pred),
		)
		out = append(out, pred)
	}

	f.metrics.RecordForecast(series.Key.Commodity, len(out))
	f.metrics.RecordLatency("forecast", time.Since(start).Seconds())

	return models.ForecastResult{
		Key:             series.Key,
		Forecast:        out,
		TrendPercent:    TrendPercent(out[len(out)-1], lastActual),
		LastActualPrice: lastActual,
		HistorySource:   series.Source,
		HistoryPoints:   series.Len(),
	}, nil
}

// TrendPercent is the percent move from lastActual to final, 0 when lastActual is 0.
func TrendPercent(final, lastActual float64) float64 {
	if lastActual == 0 {
		return 0
	}
	return (final - lastActual) / lastActual * 100
}
