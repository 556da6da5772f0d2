package usecase

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"time"

	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	"AgriIntel/internal/service/cache"
	applogger "AgriIntel/pkg/logger"
	"AgriIntel/pkg/metrics"
	"AgriIntel/pkg/util"
)

const (
	DefaultHistoryLimit    = 30
	MinUsableHistoryPoints = 14

	syntheticStart    = 1500.0
	syntheticRise     = 500.0
	syntheticNoiseStd = 50.0
	syntheticNoiseCap = 150.0
)

// HistorySource returns the most recent prices for a (region, commodity)
// key, falling back to a synthetic series when the store has nothing.
type HistorySource struct {
	store     domrepo.PriceStore
	cache     cache.BytesCache
	cacheTTL  time.Duration
	metrics   domrepo.Metrics
	l         *applogger.Logger
	limit     int
	minPoints int
	synthetic bool
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type HistoryOption func(*HistorySource)

// WithHistoryCache caches store-backed series for ttl.
func WithHistoryCache(c cache.BytesCache, ttl time.Duration) HistoryOption {
	return func(h *HistorySource) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

func WithHistoryLimit(limit, minPoints int) HistoryOption {
	return func(h *HistorySource) {
		if limit > 0 {
			h.limit = limit
		}
		if minPoints > 0 {
			h.minPoints = minPoints
		}
	}
}

// WithSyntheticFallback toggles the synthetic placeholder series.
func WithSyntheticFallback(enabled bool) HistoryOption {
	return func(h *HistorySource) { h.synthetic = enabled }
}

func WithClock(now func() time.Time) HistoryOption {
	return func(h *HistorySource) { h.now = now }
}

func WithRandSource(src rand.Source) HistoryOption {
	return func(h *HistorySource) { h.rng = rand.New(src) }
}

func WithHistoryMetrics(m domrepo.Metrics) HistoryOption {
	return func(h *HistorySource) {
		if m != nil {
			h.metrics = m
		}
	}
}

// NewHistorySource builds a history source. store may be nil, in which case
// every lookup is served from the synthetic series.
func NewHistorySource(store domrepo.PriceStore, l *applogger.Logger, opts ...HistoryOption) *HistorySource {
	if l == nil {
		l = applogger.Nop()
	}
	h := &HistorySource{
		store:     store,
		metrics:   metrics.Nop{},
		l:         l,
		limit:     DefaultHistoryLimit,
		minPoints: MinUsableHistoryPoints,
		synthetic: true,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type cachedPoint struct {
	Date  string  `json:"d"`
	Price float64 `json:"p"`
}

func historyCacheKey(k models.SeriesKey) string {
	return "history:" + k.Region + ":" + k.Commodity
}

// Fetch returns up to limit points in ascending date order. It only fails
// when ctx is done; store errors and empty results are reported through
// the series provenance.
func (h *HistorySource) Fetch(ctx context.Context, region, commodity string) (models.HistorySeries, error) {
	key := models.SeriesKey{Region: region, Commodity: commodity}

	if pts, ok := h.fromCache(ctx, key); ok {
		return h.finish(models.HistorySeries{Key: key, Points: pts, Source: models.SourceStore}), nil
	}

	if h.store == nil {
		return h.fallback(key, models.FallbackStoreUnavailable)
	}

	start := time.Now()
	pts, err := h.store.LatestPrices(ctx, region, commodity, h.limit)
	h.metrics.RecordLatency("history_query", time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return models.HistorySeries{Key: key}, ctx.Err()
		}
		h.metrics.RecordError("history_query")
		h.l.Warn("price store query failed",
			applogger.String("key", key.String()),
			applogger.Error(err),
		)
		return h.fallback(key, models.FallbackStoreUnavailable)
	}
	if len(pts) == 0 {
		return h.fallback(key, models.FallbackNoRows)
	}

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	if len(pts) > h.limit {
		pts = pts[len(pts)-h.limit:]
	}
	h.toCache(ctx, key, pts)

	h.l.Info("history loaded",
		applogger.String("key", key.String()),
		applogger.Int("points", len(pts)),
	)
	return h.finish(models.HistorySeries{Key: key, Points: pts, Source: models.SourceStore}), nil
}

// Invalidate drops the cached series for a key.
func (h *HistorySource) Invalidate(ctx context.Context, region, commodity string) {
	if h.cache == nil {
		return
	}
	key := historyCacheKey(models.SeriesKey{Region: region, Commodity: commodity})
	if err := h.cache.Delete(ctx, key); err != nil {
		h.l.Warn("history cache delete failed", applogger.String("cache_key", key), applogger.Error(err))
	}
}

func (h *HistorySource) fallback(key models.SeriesKey, reason models.FallbackReason) (models.HistorySeries, error) {
	s := models.HistorySeries{Key: key, Source: models.SourceSynthetic, FallbackReason: reason}
	if h.synthetic {
		s.Points = h.syntheticPoints()
	}
	h.l.Warn("history fallback",
		applogger.String("key", key.String()),
		applogger.String("reason", string(reason)),
		applogger.Bool("synthetic", h.synthetic),
	)
	return h.finish(s), nil
}

func (h *HistorySource) finish(s models.HistorySeries) models.HistorySeries {
	h.metrics.RecordHistorySource(string(s.Source), string(s.FallbackReason))
	if n := s.Len(); n > 0 && n < h.minPoints {
		h.l.Warn("insufficient history",
			applogger.String("key", s.Key.String()),
			applogger.Int("points", n),
			applogger.Int("min_points", h.minPoints),
		)
	}
	return s
}

// syntheticPoints is a slowly rising placeholder of limit days ending today.
func (h *HistorySource) syntheticPoints() []models.PricePoint {
	n := h.limit
	today := util.Day(h.now())
	pts := make([]models.PricePoint, n)

	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	for i := 0; i < n; i++ {
		base := syntheticStart
		if n > 1 {
			base += syntheticRise * float64(i) / float64(n-1)
		}
		noise := h.rng.NormFloat64() * syntheticNoiseStd
		if noise > syntheticNoiseCap {
			noise = syntheticNoiseCap
		} else if noise < -syntheticNoiseCap {
			noise = -syntheticNoiseCap
		}
		price := base + noise
		if price < 0 {
			price = 0
		}
		pts[i] = models.PricePoint{Date: today.AddDate(0, 0, i-n+1), Price: price}
	}
	return pts
}

func (h *HistorySource) fromCache(ctx context.Context, key models.SeriesKey) ([]models.PricePoint, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(ctx, historyCacheKey(key))
	if err != nil {
		h.l.Warn("history cache read failed", applogger.String("key", key.String()), applogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var cps []cachedPoint
	if err := json.Unmarshal(b, &cps); err != nil || len(cps) == 0 {
		return nil, false
	}
	pts := make([]models.PricePoint, 0, len(cps))
	for _, cp := range cps {
		d, err := util.ParseDate(cp.Date)
		if err != nil {
			return nil, false
		}
		pts = append(pts, models.PricePoint{Date: d, Price: cp.Price})
	}
	return pts, true
}

func (h *HistorySource) toCache(ctx context.Context, key models.SeriesKey, pts []models.PricePoint) {
	if h.cache == nil {
		return
	}
	cps := make([]cachedPoint, len(pts))
	for i, p := range pts {
		cps[i] = cachedPoint{Date: util.FormatDate(p.Date), Price: p.Price}
	}
	b, err := json.Marshal(cps)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(ctx, historyCacheKey(key), b, h.cacheTTL); err != nil {
		h.l.Warn("history cache write failed", applogger.String("key", key.String()), applogger.Error(err))
	}
}
