package usecase

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/models"
	domsvc "AgriIntel/internal/domain/service"
)

func newEngine(forecast domsvc.ForecastModel, spoilage domsvc.SpoilageModel) *DecisionEngine {
	m := fakeModels{forecast: forecast, columns: testColumns, spoilage: spoilage}
	h := &staticHistory{series: series(ramp(30))}
	return NewDecisionEngine(NewForecaster(m, h, nil, nil), NewSpoilageEstimator(m, nil, nil), nil, nil)
}

func scenarioInput(price float64) models.DecisionInput {
	return models.DecisionInput{
		Region:           "Punjab",
		Crop:             "Tomato",
		CurrentPrice:     price,
		Temperature:      30,
		Humidity:         80,
		DaysAfterHarvest: 4,
	}
}

func TestScoreScenario(t *testing.T) {
	v := Score(2000, 2100, 0.1, 0.9)
	if v.Decision != models.DecisionSell || v.WaitDays != 0 {
		t.Fatalf("expected SELL/0, got %s/%d", v.Decision, v.WaitDays)
	}
	if math.Abs(v.ExpectedValue-1890) > 1e-9 {
		t.Fatalf("expected value 1890, got %v", v.ExpectedValue)
	}
	if math.Abs(v.GainScore-0.225) > 1e-9 {
		t.Fatalf("expected gain score 0.225, got %v", v.GainScore)
	}
	if v.ProfitIndex != 45 {
		t.Fatalf("expected profit index 45, got %d", v.ProfitIndex)
	}
}

func TestEvaluateScenario(t *testing.T) {
	var seenDrop float64
	spoil := domsvc.SpoilageModelFunc(func(_ context.Context, row models.FeatureVector) ([]float64, error) {
		seenDrop, _ = row.Get("Price_drop_percent")
		return []float64{0.9, 0, 0.1}, nil
	})
	d := newEngine(sequenceModel(1900, 1950, 2100), spoil)

	res, err := d.Evaluate(context.Background(), scenarioInput(2000))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !reflect.DeepEqual(res.Forecast, []float64{1900, 1950, 2100}) {
		t.Fatalf("unexpected forecast %v", res.Forecast)
	}
	if math.Abs(seenDrop-5) > 1e-9 || math.Abs(res.PriceDropPercent-5) > 1e-9 {
		t.Fatalf("expected price drop 5%%, got %v/%v", seenDrop, res.PriceDropPercent)
	}
	if res.Decision != models.DecisionSell || res.WaitDays != 0 || res.ProfitIndex != 45 {
		t.Fatalf("unexpected decision %+v", res)
	}
	if res.SpoilageClass != models.NoSpoilage || res.ModelConfidence != 0.9 || res.SpoilageProbability != 0.1 {
		t.Fatalf("unexpected spoilage fields %+v", res)
	}
	if res.HistorySource != models.SourceStore {
		t.Fatalf("unexpected history source %q", res.HistorySource)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	d := newEngine(sequenceModel(1900, 1950, 2100), fixedProbabilities(0.6, 0.3, 0.1))
	first, err := d.Evaluate(context.Background(), scenarioInput(1800))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	second, err := d.Evaluate(context.Background(), scenarioInput(1800))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results:\n%+v\n%+v", first, second)
	}
}

func TestEvaluateZeroPrice(t *testing.T) {
	d := newEngine(sequenceModel(1900, 1950, 2100), fixedProbabilities(0.9, 0, 0.1))
	res, err := d.Evaluate(context.Background(), scenarioInput(0))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.PriceDropPercent != 0 {
		t.Fatalf("expected zero drop, got %v", res.PriceDropPercent)
	}
	if res.Decision != models.DecisionWait || res.WaitDays != models.WaitHorizonDays {
		t.Fatalf("expected WAIT/3, got %s/%d", res.Decision, res.WaitDays)
	}
	// gain score 0.5: round((0.6*0.5 + 0.4*0.9) * 0.9 * 100)
	if res.ProfitIndex != 59 {
		t.Fatalf("expected profit index 59, got %d", res.ProfitIndex)
	}
}

func TestEvaluateWaitWhenExpectedValueExceedsPrice(t *testing.T) {
	d := newEngine(sequenceModel(2000, 2100, 2300), fixedProbabilities(0.95, 0.05, 0))
	res, err := d.Evaluate(context.Background(), scenarioInput(2000))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Decision != models.DecisionWait || res.WaitDays != 3 {
		t.Fatalf("expected WAIT, got %+v", res)
	}
	if res.PriceDropPercent != 0 {
		t.Fatalf("rise must clamp drop to 0, got %v", res.PriceDropPercent)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	d := newEngine(sequenceModel(1), fixedProbabilities(1, 0, 0))
	for _, in := range []models.DecisionInput{
		scenarioInput(-1),
		scenarioInput(math.NaN()),
		scenarioInput(math.Inf(1)),
		{Crop: "Tomato"},
		{Region: "Punjab"},
	} {
		if _, err := d.Evaluate(context.Background(), in); !errs.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestEvaluateReturnsCollaboratorErrorsUnchanged(t *testing.T) {
	d := newEngine(nil, fixedProbabilities(1, 0, 0))
	_, err := d.Evaluate(context.Background(), scenarioInput(100))
	var ce *errs.ConfigurationError
	if !errors.As(err, &ce) || ce.Component != "forecast model" {
		t.Fatalf("expected forecast configuration error, got %v", err)
	}

	d = newEngine(sequenceModel(1), nil)
	_, err = d.Evaluate(context.Background(), scenarioInput(100))
	if !errors.As(err, &ce) || ce.Component != "spoilage model" {
		t.Fatalf("expected spoilage configuration error, got %v", err)
	}
}

func TestGainScoreBounds(t *testing.T) {
	for _, g := range []float64{-5, -0.1, -0.055, 0, 0.03, 0.1, 7, math.Inf(1), math.Inf(-1), math.NaN()} {
		s := GainScore(g)
		if s < 0 || s > 1 {
			t.Fatalf("gain score %v out of range for %v", s, g)
		}
	}
	if GainScore(0) != 0.5 || GainScore(1) != 1 || GainScore(-1) != 0 {
		t.Fatalf("unexpected clamp endpoints")
	}
}

func TestProfitIndexBounds(t *testing.T) {
	prices := []float64{0, 1, 1000, 2000}
	day3s := []float64{0, 500, 2100, 1e9}
	risks := []float64{0, 0.1, 0.5, 1}
	confs := []float64{0, 0.4, 0.9, 1}
	for _, p := range prices {
		for _, d3 := range day3s {
			for _, r := range risks {
				for _, c := range confs {
					v := Score(p, d3, r, c)
					if v.ProfitIndex < 0 || v.ProfitIndex > 100 {
						t.Fatalf("profit index %d out of range for %v/%v/%v/%v", v.ProfitIndex, p, d3, r, c)
					}
				}
			}
		}
	}
	if profitIndex(math.NaN()) != 0 || profitIndex(3) != 100 || profitIndex(-1) != 0 {
		t.Fatalf("unexpected profit index clamps")
	}
}

func TestPriceDropPercentNeverNegative(t *testing.T) {
	for _, c := range []struct{ cur, d1, want float64 }{
		{2000, 1900, 5},
		{2000, 2500, 0},
		{0, 100, 0},
		{100, 0, 100},
	} {
		if got := PriceDropPercent(c.cur, c.d1); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("PriceDropPercent(%v, %v) = %v, want %v", c.cur, c.d1, got, c.want)
		}
	}
}
