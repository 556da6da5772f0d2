package models

// SpoilageClass is the classifier output, ordered by severity.
type SpoilageClass int

const (
	NoSpoilage SpoilageClass = iota
	ModerateSpoilage
	SevereSpoilage
)

// SpoilageClassCount is the fixed number of classifier outputs.
const SpoilageClassCount = 3

func (c SpoilageClass) String() string {
	switch c {
	case NoSpoilage:
		return "No spoilage"
	case ModerateSpoilage:
		return "Moderate spoilage"
	case SevereSpoilage:
		return "Severe spoilage"
	default:
		return "Unknown"
	}
}

// SpoilageConditions are the storage conditions of a crop batch.
type SpoilageConditions struct {
	Crop             string
	Temperature      float64
	Humidity         float64
	DaysAfterHarvest float64
	PriceDropPercent float64
}

// SpoilageResult is the mapped classifier output.
type SpoilageResult struct {
	Class           SpoilageClass
	RiskProbability float64
	Confidence      float64
	Probabilities   []float64
}
