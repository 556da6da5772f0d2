package analytics

import (
	"context"
	"fmt"
	"math"
	"os"

	"AgriIntel/internal/domain/models"
	domsvc "AgriIntel/internal/domain/service"

	"gopkg.in/yaml.v3"
)

// LinearModel is a linear regressor exported to YAML:
//
//	intercept: 12.5
//	weights:
//	  lag_1: 0.8
//	  rolling_mean_7: 0.15
//
// Features without a weight contribute nothing.
type LinearModel struct {
	Intercept float64            `yaml:"intercept"`
	Weights   map[string]float64 `yaml:"weights"`
}

func (m *LinearModel) score(row models.FeatureVector) float64 {
	s := m.Intercept
	for i, name := range row.Names {
		s += m.Weights[name] * row.Values[i]
	}
	return s
}

func (m *LinearModel) Predict(_ context.Context, row models.FeatureVector) (float64, error) {
	return m.score(row), nil
}

// SoftmaxModel is a multinomial logistic classifier, one linear score per
// class in {no, moderate, severe} order.
type SoftmaxModel struct {
	Classes []LinearModel `yaml:"classes"`
}

func (m *SoftmaxModel) PredictProbabilities(_ context.Context, row models.FeatureVector) ([]float64, error) {
	if len(m.Classes) != models.SpoilageClassCount {
		return nil, fmt.Errorf("softmax model has %d classes, want %d", len(m.Classes), models.SpoilageClassCount)
	}
	logits := make([]float64, len(m.Classes))
	top := math.Inf(-1)
	for i := range m.Classes {
		logits[i] = m.Classes[i].score(row)
		if logits[i] > top {
			top = logits[i]
		}
	}
	var sum float64
	for i, z := range logits {
		logits[i] = math.Exp(z - top)
		sum += logits[i]
	}
	for i := range logits {
		logits[i] /= sum
	}
	return logits, nil
}

type columnsFile struct {
	Columns []string `yaml:"columns"`
}

// LoadLinearModel reads a forecast artifact.
func LoadLinearModel(path string) (*LinearModel, error) {
	var m LinearModel
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadSoftmaxModel reads a spoilage artifact.
func LoadSoftmaxModel(path string) (*SoftmaxModel, error) {
	var m SoftmaxModel
	if err := readYAML(path, &m); err != nil {
		return nil, err
	}
	if len(m.Classes) != models.SpoilageClassCount {
		return nil, fmt.Errorf("%s: expected %d classes, got %d", path, models.SpoilageClassCount, len(m.Classes))
	}
	return &m, nil
}

// LoadFeatureColumns reads the ordered column list the forecast model was trained on.
func LoadFeatureColumns(path string) ([]string, error) {
	var f columnsFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("%s: empty column list", path)
	}
	return f.Columns, nil
}

func readYAML(path string, dest interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := yaml.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return nil
}

var (
	_ domsvc.ForecastModel = (*LinearModel)(nil)
	_ domsvc.SpoilageModel = (*SoftmaxModel)(nil)
)
