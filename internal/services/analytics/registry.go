package analytics

import (
	"context"
	"path/filepath"

	"AgriIntel/internal/domain/errs"
	domsvc "AgriIntel/internal/domain/service"
	"AgriIntel/pkg/config"
	applogger "AgriIntel/pkg/logger"
)

// Registry holds the model contracts loaded at startup. It is read-only
// after construction and shared by all requests.
type Registry struct {
	forecast domsvc.ForecastModel
	columns  []string
	spoilage domsvc.SpoilageModel
	remote   *HTTPServiceBase
}

// NewRegistry wires already-built contracts. Any of them may be nil.
func NewRegistry(forecast domsvc.ForecastModel, columns []string, spoilage domsvc.SpoilageModel) *Registry {
	return &Registry{forecast: forecast, columns: columns, spoilage: spoilage}
}

// LoadRegistry loads every configured model. Failures are logged and leave
// the slot empty; callers get a configuration error on first use.
func LoadRegistry(ctx context.Context, cfg *config.Config, l *applogger.Logger) *Registry {
	if l == nil {
		l = applogger.Nop()
	}
	r := &Registry{}
	mc := cfg.Models

	if mc.Forecast.Source == "http" || mc.Spoilage.Source == "http" {
		r.remote = NewHTTPServiceBase(cfg)
	}

	switch mc.Forecast.Source {
	case "http":
		m := NewHTTPForecastModel(r.remote)
		r.forecast = m
		cols, err := m.FetchFeatureColumns(ctx)
		if err != nil {
			l.Error("feature columns load failed", applogger.String("source", "http"), applogger.Error(err))
		} else {
			r.columns = cols
		}
		l.Info("forecast model registered", applogger.String("source", "http"), applogger.String("url", mc.ServiceURL))
	default:
		path := filepath.Join(mc.Dir, mc.Forecast.Artifact)
		if m, err := LoadLinearModel(path); err != nil {
			l.Error("forecast model load failed", applogger.String("path", path), applogger.Error(err))
		} else {
			r.forecast = m
			l.Info("forecast model loaded", applogger.String("path", path), applogger.Int("weights", len(m.Weights)))
		}
		colPath := filepath.Join(mc.Dir, mc.FeatureColumns)
		if cols, err := LoadFeatureColumns(colPath); err != nil {
			l.Error("feature columns load failed", applogger.String("path", colPath), applogger.Error(err))
		} else {
			r.columns = cols
		}
	}

	switch mc.Spoilage.Source {
	case "http":
		r.spoilage = NewHTTPSpoilageModel(r.remote)
		l.Info("spoilage model registered", applogger.String("source", "http"), applogger.String("url", mc.ServiceURL))
	default:
		path := filepath.Join(mc.Dir, mc.Spoilage.Artifact)
		if m, err := LoadSoftmaxModel(path); err != nil {
			l.Error("spoilage model load failed", applogger.String("path", path), applogger.Error(err))
		} else {
			r.spoilage = m
			l.Info("spoilage model loaded", applogger.String("path", path))
		}
	}

	l.Info("model registry ready",
		applogger.Bool("forecast", r.forecast != nil),
		applogger.Int("feature_columns", len(r.columns)),
		applogger.Bool("spoilage", r.spoilage != nil),
	)
	return r
}

// Forecast returns the forecast contract and its declared feature columns.
func (r *Registry) Forecast() (domsvc.ForecastModel, []string, error) {
	if r == nil || r.forecast == nil {
		return nil, nil, errs.NotLoaded("forecast model")
	}
	if len(r.columns) == 0 {
		return nil, nil, errs.NotLoaded("feature columns")
	}
	return r.forecast, r.columns, nil
}

// Spoilage returns the spoilage classification contract.
func (r *Registry) Spoilage() (domsvc.SpoilageModel, error) {
	if r == nil || r.spoilage == nil {
		return nil, errs.NotLoaded("spoilage model")
	}
	return r.spoilage, nil
}

// Loaded reports whether every contract is present.
func (r *Registry) Loaded() bool {
	return r != nil && r.forecast != nil && len(r.columns) > 0 && r.spoilage != nil
}

// Close drops the loaded contracts.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	if r.remote != nil {
		r.remote.Close()
	}
	r.forecast, r.columns, r.spoilage = nil, nil, nil
}
