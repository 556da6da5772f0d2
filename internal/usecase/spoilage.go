package usecase

import (
	"context"
	"fmt"
	"math"

	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	domsvc "AgriIntel/internal/domain/service"
	"AgriIntel/internal/services/features"
	applogger "AgriIntel/pkg/logger"
	"AgriIntel/pkg/metrics"
)

// Risk weights per class. Severe counts fully, moderate counts half.
const (
	moderateRiskWeight = 0.5
	severeRiskWeight   = 1.0
)

// SpoilageModels resolves the spoilage classification contract.
type SpoilageModels interface {
	Spoilage() (domsvc.SpoilageModel, error)
}

type SpoilageEstimator struct {
	models  SpoilageModels
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewSpoilageEstimator(m SpoilageModels, mt domrepo.Metrics, l *applogger.Logger) *SpoilageEstimator {
	if mt == nil {
		mt = metrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &SpoilageEstimator{models: m, metrics: mt, l: l}
}

// Estimate classifies spoilage for the conditions. Unknown crops are scored
// with every crop indicator at 0.
func (s *SpoilageEstimator) Estimate(ctx context.Context, c models.SpoilageConditions) (models.SpoilageResult, error) {
	model, err := s.models.Spoilage()
	if err != nil {
		return models.SpoilageResult{}, err
	}
	if !features.IsKnownCrop(c.Crop) {
		s.l.Debug("unknown crop, scoring without crop indicator", applogger.String("crop", c.Crop))
	}

	probs, err := model.PredictProbabilities(ctx, features.BuildSpoilageFeatures(c))
	if err != nil {
		s.metrics.RecordError("spoilage_predict")
		return models.SpoilageResult{}, fmt.Errorf("spoilage predict: %w", err)
	}
	if len(probs) != models.SpoilageClassCount {
		s.metrics.RecordError("spoilage_predict")
		return models.SpoilageResult{}, fmt.Errorf("spoilage predict: expected %d probabilities, got %d", models.SpoilageClassCount, len(probs))
	}
	return ClassifySpoilage(probs), nil
}

// ClassifySpoilage maps ordered {no, moderate, severe} probabilities to a
// result. Ties go to the lower class.
func ClassifySpoilage(probs []float64) models.SpoilageResult {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	risk := moderateRiskWeight*probs[models.ModerateSpoilage] + severeRiskWeight*probs[models.SevereSpoilage]
	return models.SpoilageResult{
		Class:           models.SpoilageClass(best),
		RiskProbability: clamp01(risk),
		Confidence:      clamp01(probs[best]),
		Probabilities:   append([]float64(nil), probs...),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
