package models

// Requests for the decision HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Region    string `json:"region" validate:"required"`
	Commodity string `json:"commodity" validate:"required"`
}

type SpoilageRequest struct {
	Crop             string  `json:"crop" validate:"required"`
	Temperature      float64 `json:"temperature"`
	Humidity         float64 `json:"humidity" validate:"gte=0,lte=100"`
	DaysAfterHarvest float64 `json:"days_after_harvest" validate:"gte=0"`
	PriceDropPercent float64 `json:"price_drop_percent" default:"0" validate:"gte=0"`
}

type DecisionRequest struct {
	Region             string  `json:"region" validate:"required"`
	Crop               string  `json:"crop" validate:"required"`
	CurrentMarketPrice float64 `json:"current_market_price" validate:"gte=0"`
	Temperature        float64 `json:"temperature"`
	Humidity           float64 `json:"humidity" validate:"gte=0,lte=100"`
	DaysAfterHarvest   float64 `json:"days_after_harvest" validate:"gte=0"`
}

// Conditions converts the request into classifier input.
func (r SpoilageRequest) Conditions() SpoilageConditions {
	return SpoilageConditions{
		Crop:             r.Crop,
		Temperature:      r.Temperature,
		Humidity:         r.Humidity,
		DaysAfterHarvest: r.DaysAfterHarvest,
		PriceDropPercent: r.PriceDropPercent,
	}
}

// Input converts the request into a decision evaluation input.
func (r DecisionRequest) Input() DecisionInput {
	return DecisionInput{
		Region:           r.Region,
		Crop:             r.Crop,
		CurrentPrice:     r.CurrentMarketPrice,
		Temperature:      r.Temperature,
		Humidity:         r.Humidity,
		DaysAfterHarvest: r.DaysAfterHarvest,
	}
}

type ForecastResponse struct {
	Forecast      []float64 `json:"forecast"`
	TrendPercent  float64   `json:"trend_percent"`
	HistorySource string    `json:"history_source"`
}

type SpoilageResponse struct {
	Class       string  `json:"class"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

type DecisionResponse struct {
	Decision            string    `json:"decision"`
	WaitDays            int       `json:"wait_days"`
	ExpectedValue       float64   `json:"expected_value"`
	ProfitIndex         int       `json:"profit_index"`
	Forecast            []float64 `json:"forecast"`
	TrendPercent        float64   `json:"trend_percent"`
	SpoilageProbability float64   `json:"spoilage_probability"`
	SpoilageClass       string    `json:"spoilage_class"`
	ModelConfidence     float64   `json:"model_confidence"`
	HistorySource       string    `json:"history_source"`
}
