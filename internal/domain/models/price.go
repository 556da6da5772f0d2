package models

import "time"

// PricePoint is one daily modal price observation.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// SeriesKey identifies a price series.
type SeriesKey struct {
	Region    string
	Commodity string
}

func (k SeriesKey) String() string { return k.Region + ":" + k.Commodity }

// HistorySourceKind tells where a HistorySeries came from.
type HistorySourceKind string

const (
	SourceStore     HistorySourceKind = "store"
	SourceSynthetic HistorySourceKind = "synthetic"
)

// FallbackReason explains why a synthetic series was produced.
type FallbackReason string

const (
	FallbackNone             FallbackReason = ""
	FallbackStoreUnavailable FallbackReason = "store_unavailable"
	FallbackNoRows           FallbackReason = "no_rows"
)

// HistorySeries is an ascending, unique-per-date price series for one key.
type HistorySeries struct {
	Key            SeriesKey
	Points         []PricePoint
	Source         HistorySourceKind
	FallbackReason FallbackReason
}

// Len returns the number of points.
func (s HistorySeries) Len() int { return len(s.Points) }

// Last returns the most recent point.
func (s HistorySeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// PriceRow is a store row for one (state, commodity, date).
type PriceRow struct {
	State     string
	Commodity string
	Date      time.Time
	Price     float64
}

// PriceMessage is the wire form of a PriceRow on the ingest topic.
type PriceMessage struct {
	State      string   `json:"state"`
	Commodity  string   `json:"commodity"`
	PriceDate  string   `json:"price_date"`
	ModalPrice *float64 `json:"modal_price"`
}

// NewPriceMessage renders a row in wire form.
func NewPriceMessage(r PriceRow) PriceMessage {
	p := r.Price
	return PriceMessage{
		State:      r.State,
		Commodity:  r.Commodity,
		PriceDate:  r.Date.UTC().Format(time.DateOnly),
		ModalPrice: &p,
	}
}
