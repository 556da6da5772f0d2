package usecase

import (
	"context"
	"sync"
	"time"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/models"
	domsvc "AgriIntel/internal/domain/service"
	"AgriIntel/internal/services/features"
)

type fakeStore struct {
	mu       sync.Mutex
	points   []models.PricePoint
	err      error
	queries  int
	inserted []models.PriceRow
}

func (s *fakeStore) LatestPrices(_ context.Context, _, _ string, _ int) ([]models.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.PricePoint(nil), s.points...), nil
}

func (s *fakeStore) InsertPrices(_ context.Context, rows []models.PriceRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, rows...)
	return nil
}

func (s *fakeStore) Health(context.Context) error { return s.err }
func (s *fakeStore) Close() error                 { return nil }

type fakeModels struct {
	forecast domsvc.ForecastModel
	columns  []string
	spoilage domsvc.SpoilageModel
}

func (m fakeModels) Forecast() (domsvc.ForecastModel, []string, error) {
	if m.forecast == nil {
		return nil, nil, errs.NotLoaded("forecast model")
	}
	if len(m.columns) == 0 {
		return nil, nil, errs.NotLoaded("feature columns")
	}
	return m.forecast, m.columns, nil
}

func (m fakeModels) Spoilage() (domsvc.SpoilageModel, error) {
	if m.spoilage == nil {
		return nil, errs.NotLoaded("spoilage model")
	}
	return m.spoilage, nil
}

type staticHistory struct {
	series models.HistorySeries
	calls  int
}

func (h *staticHistory) Fetch(_ context.Context, region, commodity string) (models.HistorySeries, error) {
	h.calls++
	s := h.series
	s.Key = models.SeriesKey{Region: region, Commodity: commodity}
	return s, nil
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// ramp returns n daily points priced 1..n starting 2024-01-01.
func ramp(n int) []models.PricePoint {
	pts := make([]models.PricePoint, n)
	for i := range pts {
		pts[i] = models.PricePoint{Date: day(i), Price: float64(i + 1)}
	}
	return pts
}

func series(pts []models.PricePoint) models.HistorySeries {
	return models.HistorySeries{
		Key:    models.SeriesKey{Region: "Punjab", Commodity: "Wheat"},
		Points: pts,
		Source: models.SourceStore,
	}
}

// lagPlusTen predicts the previous price plus 10.
var lagPlusTen = domsvc.ForecastModelFunc(func(_ context.Context, row models.FeatureVector) (float64, error) {
	v, _ := row.Get(features.Lag1)
	return v + 10, nil
})

// sequenceModel returns preds in turn, wrapping around.
func sequenceModel(preds ...float64) domsvc.ForecastModel {
	var mu sync.Mutex
	i := 0
	return domsvc.ForecastModelFunc(func(context.Context, models.FeatureVector) (float64, error) {
		mu.Lock()
		defer mu.Unlock()
		p := preds[i%len(preds)]
		i++
		return p, nil
	})
}

func fixedProbabilities(p ...float64) domsvc.SpoilageModel {
	return domsvc.SpoilageModelFunc(func(context.Context, models.FeatureVector) ([]float64, error) {
		return append([]float64(nil), p...), nil
	})
}
