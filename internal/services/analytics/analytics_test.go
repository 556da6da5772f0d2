package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/models"
	"AgriIntel/pkg/config"
)

func row() models.FeatureVector {
	return models.FeatureVector{Names: []string{"lag_1", "month"}, Values: []float64{100, 3}}
}

func TestLinearModelPredict(t *testing.T) {
	m := &LinearModel{Intercept: 10, Weights: map[string]float64{"lag_1": 0.5}}
	got, err := m.Predict(context.Background(), row())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got != 60 {
		t.Fatalf("expected 60, got %v", got)
	}
}

func TestSoftmaxModelProbabilities(t *testing.T) {
	m := &SoftmaxModel{Classes: []LinearModel{
		{Intercept: 1},
		{Intercept: 1},
		{Intercept: 0, Weights: map[string]float64{"month": 1}},
	}}
	p, err := m.PredictProbabilities(context.Background(), row())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(p) != 3 {
		t.Fatalf("expected 3 probabilities, got %d", len(p))
	}
	if math.Abs(p[0]+p[1]+p[2]-1) > 1e-12 {
		t.Fatalf("probabilities do not sum to 1: %v", p)
	}
	if p[0] != p[1] || p[2] <= p[0] {
		t.Fatalf("unexpected ordering %v", p)
	}

	bad := &SoftmaxModel{Classes: []LinearModel{{}, {}}}
	if _, err := bad.PredictProbabilities(context.Background(), row()); err == nil {
		t.Fatalf("expected error for two classes")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fileConfig(dir string) *config.Config {
	c := &config.Config{}
	c.Models.Dir = dir
	c.Models.FeatureColumns = "feature_columns.yaml"
	c.Models.Forecast.Source = "file"
	c.Models.Forecast.Artifact = "forecast_model.yaml"
	c.Models.Spoilage.Source = "file"
	c.Models.Spoilage.Artifact = "spoilage_model.yaml"
	return c
}

func TestLoadRegistryFromFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "feature_columns.yaml", "columns: [Modal_Price, lag_1]\n")
	writeFile(t, dir, "forecast_model.yaml", "intercept: 1\nweights: {lag_1: 1}\n")
	writeFile(t, dir, "spoilage_model.yaml", "classes:\n  - {intercept: 0}\n  - {intercept: 0}\n  - {intercept: 0}\n")

	r := LoadRegistry(context.Background(), fileConfig(dir), nil)
	if !r.Loaded() {
		t.Fatalf("expected all models loaded")
	}
	m, cols, err := r.Forecast()
	if err != nil || len(cols) != 2 || cols[0] != "Modal_Price" {
		t.Fatalf("unexpected forecast slot: %v %v", cols, err)
	}
	got, _ := m.Predict(context.Background(), models.FeatureVector{Names: cols, Values: []float64{5, 7}})
	if got != 8 {
		t.Fatalf("expected 8, got %v", got)
	}
	if _, err := r.Spoilage(); err != nil {
		t.Fatalf("spoilage: %v", err)
	}

	r.Close()
	if r.Loaded() {
		t.Fatalf("expected registry empty after close")
	}
}

func TestLoadRegistryMissingArtifactsIsNonFatal(t *testing.T) {
	r := LoadRegistry(context.Background(), fileConfig(t.TempDir()), nil)
	if r.Loaded() {
		t.Fatalf("expected nothing loaded")
	}
	_, _, err := r.Forecast()
	if !errors.Is(err, errs.ErrModelNotLoaded) || !errs.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := r.Spoilage(); !errors.Is(err, errs.ErrModelNotLoaded) {
		t.Fatalf("expected not loaded, got %v", err)
	}
}

func TestRegistryMissingColumns(t *testing.T) {
	r := NewRegistry(&LinearModel{}, nil, nil)
	if _, _, err := r.Forecast(); !errors.Is(err, errs.ErrModelNotLoaded) {
		t.Fatalf("expected not loaded for missing columns, got %v", err)
	}
}

func modelServer(t *testing.T, probs []float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/forecast/features", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"columns": []string{"lag_1", "month"}})
	})
	mux.HandleFunc("/forecast/predict", func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"prediction": req.Features["lag_1"] * 2})
	})
	mux.HandleFunc("/spoilage/predict_proba", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"probabilities": probs})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPModels(t *testing.T) {
	srv := modelServer(t, []float64{0.7, 0.2, 0.1})
	c := fileConfig(t.TempDir())
	c.Models.ServiceURL = srv.URL + "/"
	c.Models.Forecast.Source = "http"
	c.Models.Spoilage.Source = "http"

	r := LoadRegistry(context.Background(), c, nil)
	defer r.Close()
	if !r.Loaded() {
		t.Fatalf("expected http registry loaded")
	}
	m, cols, _ := r.Forecast()
	if len(cols) != 2 {
		t.Fatalf("unexpected columns %v", cols)
	}
	got, err := m.Predict(context.Background(), row())
	if err != nil || got != 200 {
		t.Fatalf("expected 200, got %v (%v)", got, err)
	}
	s, _ := r.Spoilage()
	p, err := s.PredictProbabilities(context.Background(), row())
	if err != nil || len(p) != 3 || p[0] != 0.7 {
		t.Fatalf("unexpected probabilities %v (%v)", p, err)
	}
}

func TestHTTPSpoilageRejectsWrongArity(t *testing.T) {
	srv := modelServer(t, []float64{0.5, 0.5})
	m := NewHTTPSpoilageModel(newHTTPServiceBase(srv.URL, 0))
	if _, err := m.PredictProbabilities(context.Background(), row()); err == nil {
		t.Fatalf("expected error for two probabilities")
	}
}

func TestHTTPForecastServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	m := NewHTTPForecastModel(newHTTPServiceBase(srv.URL, 0))
	if _, err := m.Predict(context.Background(), row()); err == nil {
		t.Fatalf("expected error on 500")
	}
}
