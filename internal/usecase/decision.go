package usecase

import (
	"context"
	"math"
	"time"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	applogger "AgriIntel/pkg/logger"
	"AgriIntel/pkg/metrics"
)

// Scoring constants for the profit index.
const (
	gainClamp   = 0.10
	gainWeight  = 0.6
	riskWeight  = 0.4
	maxIndex    = 100
	percentBase = 100.0
)

// Verdict is the outcome of the scoring formula.
type Verdict struct {
	Decision      models.Decision
	WaitDays      int
	ExpectedValue float64
	GainScore     float64
	ProfitIndex   int
}

// DecisionEngine fuses the price forecast and spoilage risk into a
// sell-or-wait recommendation.
type DecisionEngine struct {
	forecaster *Forecaster
	spoilage   *SpoilageEstimator
	metrics    domrepo.Metrics
	l          *applogger.Logger
}

func NewDecisionEngine(f *Forecaster, s *SpoilageEstimator, mt domrepo.Metrics, l *applogger.Logger) *DecisionEngine {
	if mt == nil {
		mt = metrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &DecisionEngine{forecaster: f, spoilage: s, metrics: mt, l: l}
}

// Evaluate runs forecast, spoilage and scoring. Collaborator errors are
// returned as-is.
func (d *DecisionEngine) Evaluate(ctx context.Context, in models.DecisionInput) (models.DecisionResult, error) {
	if in.Region == "" {
		return models.DecisionResult{}, errs.Invalid("region", "is required")
	}
	if in.Crop == "" {
		return models.DecisionResult{}, errs.Invalid("crop", "is required")
	}
	if math.IsNaN(in.CurrentPrice) || math.IsInf(in.CurrentPrice, 0) || in.CurrentPrice < 0 {
		return models.DecisionResult{}, errs.Invalid("current_market_price", "must be a finite non-negative number")
	}

	start := time.Now()
	fr, err := d.forecaster.ForecastFor(ctx, in.Region, in.Crop)
	if err != nil {
		return models.DecisionResult{}, err
	}
	day1, day3 := fr.Forecast[0], fr.Forecast[len(fr.Forecast)-1]

	drop := PriceDropPercent(in.CurrentPrice, day1)
	sp, err := d.spoilage.Estimate(ctx, models.SpoilageConditions{
		Crop:             in.Crop,
		Temperature:      in.Temperature,
		Humidity:         in.Humidity,
		DaysAfterHarvest: in.DaysAfterHarvest,
		PriceDropPercent: drop,
	})
	if err != nil {
		return models.DecisionResult{}, err
	}

	v := Score(in.CurrentPrice, day3, sp.RiskProbability, sp.Confidence)

	d.metrics.RecordDecision(string(v.Decision), v.ProfitIndex)
	d.metrics.RecordLatency("decision", time.Since(start).Seconds())
	d.l.Info("decision evaluated",
		applogger.String("region", in.Region),
		applogger.String("crop", in.Crop),
		applogger.String("decision", string(v.Decision)),
		applogger.Int("profit_index", v.ProfitIndex),
		applogger.String("history_source", string(fr.HistorySource)),
	)

	return models.DecisionResult{
		Decision:            v.Decision,
		WaitDays:            v.WaitDays,
		ExpectedValue:       v.ExpectedValue,
		ProfitIndex:         v.ProfitIndex,
		Forecast:            fr.Forecast,
		TrendPercent:        fr.TrendPercent,
		SpoilageProbability: sp.RiskProbability,
		SpoilageClass:       sp.Class,
		ModelConfidence:     sp.Confidence,
		PriceDropPercent:    drop,
		HistorySource:       fr.HistorySource,
	}, nil
}

// PriceDropPercent is the expected day-one drop as a percent of current.
// Rises clamp to 0.
func PriceDropPercent(current, day1 float64) float64 {
	if current <= 0 {
		return 0
	}
	return math.Max(0, (current-day1)/current*percentBase)
}

// Score applies the profit index formula to unrounded inputs.
func Score(current, day3, risk, confidence float64) Verdict {
	expected := day3 * (1 - risk)

	v := Verdict{Decision: models.DecisionSell, ExpectedValue: expected}
	if expected > current {
		v.Decision = models.DecisionWait
		v.WaitDays = models.WaitHorizonDays
	}

	var gain float64
	if current > 0 {
		gain = (expected - current) / current
	}
	v.GainScore = GainScore(gain)

	raw := gainWeight*v.GainScore + riskWeight*(1-risk)
	v.ProfitIndex = profitIndex(raw * confidence)
	return v
}

// GainScore clamps the gain ratio to ±10% and rescales it to [0,1].
func GainScore(gain float64) float64 {
	if math.IsNaN(gain) {
		gain = 0
	}
	gain = math.Max(-gainClamp, math.Min(gainClamp, gain))
	return (gain + gainClamp) / (2 * gainClamp)
}

func profitIndex(adjusted float64) int {
	idx := math.Round(adjusted * percentBase)
	if math.IsNaN(idx) || idx < 0 {
		return 0
	}
	if idx > maxIndex {
		return maxIndex
	}
	return int(idx)
}
