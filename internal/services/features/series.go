package features

import (
	"fmt"
	"sort"
	"time"

	"AgriIntel/internal/domain/models"
)

type row struct {
	date    time.Time
	price   float64
	pending bool
}

// WorkingSeries is the append-only price log driven by the recursive
// forecaster. At most one row is pending (date known, price not yet
// predicted); it is always the last row and is cleared by Resolve.
type WorkingSeries struct {
	key  models.SeriesKey
	rows []row
}

// NewWorkingSeries copies the history into a working log sorted by date with
// one row per day. When a day repeats, the point given last wins.
func NewWorkingSeries(h models.HistorySeries) *WorkingSeries {
	w := &WorkingSeries{key: h.Key, rows: make([]row, 0, len(h.Points)+3)}
	for _, p := range h.Points {
		w.rows = append(w.rows, row{date: truncateDay(p.Date), price: p.Price})
	}
	w.Sort()
	w.dedupe()
	return w
}

func (w *WorkingSeries) dedupe() {
	if len(w.rows) < 2 {
		return
	}
	out := w.rows[:1]
	for _, r := range w.rows[1:] {
		if r.date.Equal(out[len(out)-1].date) {
			out[len(out)-1] = r
			continue
		}
		out = append(out, r)
	}
	w.rows = out
}

// Key returns the series key.
func (w *WorkingSeries) Key() models.SeriesKey { return w.key }

// Len returns the number of rows including a pending one.
func (w *WorkingSeries) Len() int { return len(w.rows) }

// Pending reports whether the last row is awaiting a price.
func (w *WorkingSeries) Pending() bool {
	return len(w.rows) > 0 && w.rows[len(w.rows)-1].pending
}

// MaxDate returns the latest date in the log.
func (w *WorkingSeries) MaxDate() (time.Time, bool) {
	if len(w.rows) == 0 {
		return time.Time{}, false
	}
	latest := w.rows[0].date
	for _, r := range w.rows[1:] {
		if r.date.After(latest) {
			latest = r.date
		}
	}
	return latest, true
}

// AppendPending adds a row for date with no price yet.
func (w *WorkingSeries) AppendPending(date time.Time) error {
	if w.Pending() {
		return fmt.Errorf("series %s: row %s still pending", w.key, w.rows[len(w.rows)-1].date.Format(time.DateOnly))
	}
	date = truncateDay(date)
	if last, ok := w.MaxDate(); ok && !date.After(last) {
		return fmt.Errorf("series %s: pending date %s not after %s", w.key, date.Format(time.DateOnly), last.Format(time.DateOnly))
	}
	w.rows = append(w.rows, row{date: date, pending: true})
	return nil
}

// Resolve writes price into the pending row.
func (w *WorkingSeries) Resolve(price float64) error {
	if !w.Pending() {
		return fmt.Errorf("series %s: no pending row", w.key)
	}
	last := &w.rows[len(w.rows)-1]
	last.price = price
	last.pending = false
	return nil
}

// Sort orders the rows by date. Stable, so a pending row stays last when
// dates are unique.
func (w *WorkingSeries) Sort() {
	sort.SliceStable(w.rows, func(i, j int) bool { return w.rows[i].date.Before(w.rows[j].date) })
}

// Points returns the observed rows as price points.
func (w *WorkingSeries) Points() []models.PricePoint {
	out := make([]models.PricePoint, 0, len(w.rows))
	for _, r := range w.rows {
		if r.pending {
			continue
		}
		out = append(out, models.PricePoint{Date: r.date, Price: r.price})
	}
	return out
}

func (w *WorkingSeries) observed(i int) (float64, bool) {
	if i < 0 || i >= len(w.rows) || w.rows[i].pending {
		return 0, false
	}
	return w.rows[i].price, true
}

// window returns the observed prices among the trailing n rows ending at end.
func (w *WorkingSeries) window(end, n int) []float64 {
	start := end - n + 1
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, n)
	for i := start; i <= end; i++ {
		if v, ok := w.observed(i); ok {
			out = append(out, v)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
