package models

// Decision is the sell-or-wait recommendation.
type Decision string

const (
	DecisionSell Decision = "SELL"
	DecisionWait Decision = "WAIT"
)

// WaitHorizonDays is the wait recommended with a WAIT decision.
const WaitHorizonDays = 3

// DecisionInput is a decision evaluation request.
type DecisionInput struct {
	Region           string
	Crop             string
	CurrentPrice     float64
	Temperature      float64
	Humidity         float64
	DaysAfterHarvest float64
}

// DecisionResult carries unrounded values; rounding is a presentation concern.
type DecisionResult struct {
	Decision            Decision
	WaitDays            int
	ExpectedValue       float64
	ProfitIndex         int
	Forecast            []float64
	TrendPercent        float64
	SpoilageProbability float64
	SpoilageClass       SpoilageClass
	ModelConfidence     float64
	PriceDropPercent    float64
	HistorySource       HistorySourceKind
}
