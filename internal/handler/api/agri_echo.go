package api

import (
	"math"
	"net/http"
	"time"

	models "AgriIntel/internal/domain/models"
	svcmetrics "AgriIntel/internal/service/metrics"
	"AgriIntel/internal/usecase"
	xhttp "AgriIntel/pkg/http"
	xlogger "AgriIntel/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var _ xhttp.Handler = (*AgriEchoHandler)(nil)

// ModelStatus reports whether every model contract was loaded.
type ModelStatus interface {
	Loaded() bool
}

// AgriEchoHandler serves the forecast, spoilage and decision endpoints.
type AgriEchoHandler struct {
	logger     *xlogger.Logger
	status     ModelStatus
	forecaster *usecase.Forecaster
	spoilage   *usecase.SpoilageEstimator
	decision   *usecase.DecisionEngine
	apiMw      []echo.MiddlewareFunc
}

func NewAgriEchoHandler(logger *xlogger.Logger, status ModelStatus, f *usecase.Forecaster, s *usecase.SpoilageEstimator, d *usecase.DecisionEngine) *AgriEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AgriEchoHandler{logger: logger, status: status, forecaster: f, spoilage: s, decision: d}
}

// Use adds middleware to the /api group only.
func (h *AgriEchoHandler) Use(mw ...echo.MiddlewareFunc) *AgriEchoHandler {
	h.apiMw = append(h.apiMw, mw...)
	return h
}

func (h *AgriEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	g := e.Group("/api", h.apiMw...)
	g.POST("/forecast", h.Forecast)
	g.POST("/spoilage", h.Spoilage)
	g.POST("/decision", h.Decision)
}

type rootResponse struct {
	Message      string `json:"message"`
	ModelsLoaded bool   `json:"models_loaded"`
}

func (h *AgriEchoHandler) Root(c echo.Context) error {
	loaded := h.status != nil && h.status.Loaded()
	return c.JSON(http.StatusOK, rootResponse{Message: "Welcome to AgriIntel AI API", ModelsLoaded: loaded})
}

func (h *AgriEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("forecast", start, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecaster.ForecastFor(c.Request().Context(), req.Region, req.Commodity)
	if err != nil {
		return h.fail(c, "forecast", start, err)
	}
	svcmetrics.Observe("forecast", start, "")
	return xhttp.SuccessResponse(c, models.ForecastResponse{
		Forecast:      roundAll(res.Forecast, 2),
		TrendPercent:  round(res.TrendPercent, 2),
		HistorySource: string(res.HistorySource),
	})
}

func (h *AgriEchoHandler) Spoilage(c echo.Context) error {
	start := time.Now()
	req := &models.SpoilageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("spoilage", start, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.spoilage.Estimate(c.Request().Context(), req.Conditions())
	if err != nil {
		return h.fail(c, "spoilage", start, err)
	}
	svcmetrics.Observe("spoilage", start, "")
	return xhttp.SuccessResponse(c, models.SpoilageResponse{
		Class:       res.Class.String(),
		Probability: round(res.RiskProbability, 4),
		Confidence:  round(res.Confidence, 4),
	})
}

func (h *AgriEchoHandler) Decision(c echo.Context) error {
	start := time.Now()
	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.Observe("decision", start, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.decision.Evaluate(c.Request().Context(), req.Input())
	if err != nil {
		return h.fail(c, "decision", start, err)
	}
	svcmetrics.Observe("decision", start, "")
	return xhttp.SuccessResponse(c, models.DecisionResponse{
		Decision:            string(res.Decision),
		WaitDays:            res.WaitDays,
		ExpectedValue:       round(res.ExpectedValue, 2),
		ProfitIndex:         res.ProfitIndex,
		Forecast:            roundAll(res.Forecast, 2),
		TrendPercent:        round(res.TrendPercent, 2),
		SpoilageProbability: round(res.SpoilageProbability, 4),
		SpoilageClass:       res.SpoilageClass.String(),
		ModelConfidence:     round(res.ModelConfidence, 4),
		HistorySource:       string(res.HistorySource),
	})
}

func (h *AgriEchoHandler) fail(c echo.Context, endpoint string, start time.Time, err error) error {
	appErr := xhttp.FromDomain(err)
	svcmetrics.Observe(endpoint, start, appErr.Code)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, err)
}

// round rounds half away from zero in decimal, so 2.675 becomes 2.68.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func roundAll(vs []float64, places int32) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = round(v, places)
	}
	return out
}
