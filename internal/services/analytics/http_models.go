package analytics

import (
	"context"
	"fmt"

	"AgriIntel/internal/domain/models"
	domsvc "AgriIntel/internal/domain/service"
)

type predictRequest struct {
	Columns  []string           `json:"columns"`
	Features map[string]float64 `json:"features"`
}

func newPredictRequest(row models.FeatureVector) predictRequest {
	return predictRequest{Columns: row.Names, Features: row.Map()}
}

// HTTPForecastModel scores forecast rows on the remote model service.
type HTTPForecastModel struct{ base *HTTPServiceBase }

func NewHTTPForecastModel(base *HTTPServiceBase) *HTTPForecastModel {
	return &HTTPForecastModel{base: base}
}

type forecastResponse struct {
	Prediction *float64 `json:"prediction"`
}

func (m *HTTPForecastModel) Predict(ctx context.Context, row models.FeatureVector) (float64, error) {
	var fr forecastResponse
	if err := m.base.PostJSON(ctx, "/forecast/predict", newPredictRequest(row), &fr); err != nil {
		return 0, fmt.Errorf("post forecast: %w", err)
	}
	if fr.Prediction == nil {
		return 0, fmt.Errorf("post forecast: response has no prediction")
	}
	return *fr.Prediction, nil
}

type featuresResponse struct {
	Columns []string `json:"columns"`
}

// FetchFeatureColumns asks the model service which columns the forecast model expects.
func (m *HTTPForecastModel) FetchFeatureColumns(ctx context.Context) ([]string, error) {
	var fr featuresResponse
	if err := m.base.GetJSON(ctx, "/forecast/features", &fr); err != nil {
		return nil, fmt.Errorf("get feature columns: %w", err)
	}
	if len(fr.Columns) == 0 {
		return nil, fmt.Errorf("get feature columns: empty column list")
	}
	return fr.Columns, nil
}

// HTTPSpoilageModel scores spoilage rows on the remote model service.
type HTTPSpoilageModel struct{ base *HTTPServiceBase }

func NewHTTPSpoilageModel(base *HTTPServiceBase) *HTTPSpoilageModel {
	return &HTTPSpoilageModel{base: base}
}

type spoilageResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

func (m *HTTPSpoilageModel) PredictProbabilities(ctx context.Context, row models.FeatureVector) ([]float64, error) {
	var sr spoilageResponse
	if err := m.base.PostJSON(ctx, "/spoilage/predict_proba", newPredictRequest(row), &sr); err != nil {
		return nil, fmt.Errorf("post spoilage: %w", err)
	}
	if len(sr.Probabilities) != models.SpoilageClassCount {
		return nil, fmt.Errorf("post spoilage: expected %d probabilities, got %d", models.SpoilageClassCount, len(sr.Probabilities))
	}
	return sr.Probabilities, nil
}

var (
	_ domsvc.ForecastModel = (*HTTPForecastModel)(nil)
	_ domsvc.SpoilageModel = (*HTTPSpoilageModel)(nil)
)
