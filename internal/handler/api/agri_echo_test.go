package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"AgriIntel/internal/domain/models"
	"AgriIntel/internal/services/analytics"
	"AgriIntel/internal/services/features"
	"AgriIntel/internal/usecase"

	"github.com/labstack/echo/v4"
)

type flatHistory struct{ price float64 }

func (h flatHistory) Fetch(_ context.Context, region, commodity string) (models.HistorySeries, error) {
	pts := make([]models.PricePoint, 20)
	for i := range pts {
		pts[i] = models.PricePoint{Date: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC), Price: h.price}
	}
	return models.HistorySeries{
		Key:    models.SeriesKey{Region: region, Commodity: commodity},
		Points: pts,
		Source: models.SourceStore,
	}, nil
}

func newTestEcho(reg *analytics.Registry) *echo.Echo {
	f := usecase.NewForecaster(reg, flatHistory{price: 100}, nil, nil)
	s := usecase.NewSpoilageEstimator(reg, nil, nil)
	d := usecase.NewDecisionEngine(f, s, nil, nil)
	e := echo.New()
	NewAgriEchoHandler(nil, reg, f, s, d).RegisterRoutes(e)
	return e
}

func loadedRegistry() *analytics.Registry {
	forecast := &analytics.LinearModel{Intercept: 10, Weights: map[string]float64{features.Lag1: 1}}
	flat := analytics.LinearModel{}
	spoilage := &analytics.SoftmaxModel{Classes: []analytics.LinearModel{flat, flat, flat}}
	return analytics.NewRegistry(forecast, []string{features.ModalPrice, features.Lag1}, spoilage)
}

type envelope[T any] struct {
	Status int `json:"status"`
	Data   T   `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestRootReportsModelStatus(t *testing.T) {
	for _, tc := range []struct {
		reg  *analytics.Registry
		want bool
	}{
		{loadedRegistry(), true},
		{analytics.NewRegistry(nil, nil, nil), false},
	} {
		rec := do(t, newTestEcho(tc.reg), http.MethodGet, "/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		got := decode[rootResponse](t, rec)
		if got.Message != "Welcome to AgriIntel AI API" || got.ModelsLoaded != tc.want {
			t.Fatalf("unexpected root %+v", got)
		}
	}
}

func TestForecastEndpoint(t *testing.T) {
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/forecast", `{"region":"Punjab","commodity":"Wheat"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	got := decode[envelope[models.ForecastResponse]](t, rec).Data
	want := []float64{110, 120, 130}
	if len(got.Forecast) != len(want) {
		t.Fatalf("forecast %v", got.Forecast)
	}
	for i := range want {
		if got.Forecast[i] != want[i] {
			t.Fatalf("step %d: got %v want %v", i+1, got.Forecast[i], want[i])
		}
	}
	if got.TrendPercent != 30 || got.HistorySource != "store" {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestAPIResponsesUseEnvelope(t *testing.T) {
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/forecast", `{"region":"Punjab","commodity":"Wheat"}`)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"status", "message", "data"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing %q in %s", k, rec.Body.String())
		}
	}
	if _, ok := raw["forecast"]; ok {
		t.Fatalf("payload must sit under data, got %s", rec.Body.String())
	}
	if string(raw["message"]) != `"OK"` {
		t.Fatalf("unexpected message %s", raw["message"])
	}
}

func TestForecastValidation(t *testing.T) {
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/forecast", `{"region":"Punjab"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"field":"commodity"`) {
		t.Fatalf("expected commodity error, got %s", rec.Body.String())
	}
}

func TestForecastModelNotLoaded(t *testing.T) {
	rec := do(t, newTestEcho(analytics.NewRegistry(nil, nil, nil)), http.MethodPost, "/api/forecast", `{"region":"Punjab","commodity":"Wheat"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ERR_MODEL_NOT_LOADED") {
		t.Fatalf("expected model error code, got %s", rec.Body.String())
	}
}

func TestSpoilageEndpoint(t *testing.T) {
	body := `{"crop":"Tomato","temperature":30,"humidity":80,"days_after_harvest":4}`
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/spoilage", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	got := decode[envelope[models.SpoilageResponse]](t, rec).Data
	if got.Class != "No spoilage" || got.Probability != 0.5 || got.Confidence != 0.3333 {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestSpoilageRejectsHumidity(t *testing.T) {
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/spoilage", `{"crop":"Rice","humidity":140}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDecisionEndpoint(t *testing.T) {
	body := `{"region":"Punjab","crop":"Wheat","current_market_price":200,"temperature":25,"humidity":60,"days_after_harvest":3}`
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/decision", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	got := decode[envelope[models.DecisionResponse]](t, rec).Data
	if got.Decision != "SELL" || got.WaitDays != 0 {
		t.Fatalf("unexpected decision %+v", got)
	}
	// expected = 130 * (1 - 0.5); index = round(0.4 * 0.5 / 3 * 100)
	if got.ExpectedValue != 65 || got.ProfitIndex != 7 {
		t.Fatalf("unexpected score %+v", got)
	}
	if got.SpoilageProbability != 0.5 || got.ModelConfidence != 0.3333 || got.SpoilageClass != "No spoilage" {
		t.Fatalf("unexpected spoilage %+v", got)
	}
}

func TestDecisionRejectsNegativePrice(t *testing.T) {
	body := `{"region":"Punjab","crop":"Wheat","current_market_price":-1}`
	rec := do(t, newTestEcho(loadedRegistry()), http.MethodPost, "/api/decision", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRound(t *testing.T) {
	if got := round(1.23456, 2); got != 1.23 {
		t.Fatalf("round 2dp: %v", got)
	}
	if got := round(0.123449, 4); got != 0.1234 {
		t.Fatalf("round 4dp: %v", got)
	}
	if got := round(2.675, 2); got != 2.68 {
		t.Fatalf("half should round away from zero: %v", got)
	}
	if got := roundAll([]float64{1.04, 2.46}, 1); got[0] != 1 || got[1] != 2.5 {
		t.Fatalf("roundAll %v", got)
	}
}

func TestAPIMiddlewareSkipsRoot(t *testing.T) {
	reg := loadedRegistry()
	f := usecase.NewForecaster(reg, flatHistory{price: 100}, nil, nil)
	s := usecase.NewSpoilageEstimator(reg, nil, nil)
	d := usecase.NewDecisionEngine(f, s, nil, nil)
	deny := func(echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.NoContent(http.StatusTooManyRequests) }
	}
	e := echo.New()
	NewAgriEchoHandler(nil, reg, f, s, d).Use(deny).RegisterRoutes(e)

	if rec := do(t, e, http.MethodGet, "/", ""); rec.Code != http.StatusOK {
		t.Fatalf("root should bypass api middleware, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodPost, "/api/forecast", `{"region":"a","commodity":"b"}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("api group should use middleware, got %d", rec.Code)
	}
}
