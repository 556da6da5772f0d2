package service

import (
	"context"

	"AgriIntel/internal/domain/models"
)

// ForecastModel scores one feature row into a one-day-ahead price.
type ForecastModel interface {
	Predict(ctx context.Context, row models.FeatureVector) (float64, error)
}

// SpoilageModel returns class probabilities ordered {no, moderate, severe}.
type SpoilageModel interface {
	PredictProbabilities(ctx context.Context, row models.FeatureVector) ([]float64, error)
}

// ForecastModelFunc adapts a function to ForecastModel.
type ForecastModelFunc func(ctx context.Context, row models.FeatureVector) (float64, error)

func (f ForecastModelFunc) Predict(ctx context.Context, row models.FeatureVector) (float64, error) {
	return f(ctx, row)
}

// SpoilageModelFunc adapts a function to SpoilageModel.
type SpoilageModelFunc func(ctx context.Context, row models.FeatureVector) ([]float64, error)

func (f SpoilageModelFunc) PredictProbabilities(ctx context.Context, row models.FeatureVector) ([]float64, error) {
	return f(ctx, row)
}
