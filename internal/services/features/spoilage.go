package features

import (
	"strings"

	"AgriIntel/internal/domain/models"
)

// Spoilage feature names in the column order of the trained classifier.
var SpoilageFeatureColumns = []string{
	"Days_after_harvest",
	"Temperature",
	"Relative_Humidity",
	"Price_drop_percent",
	"Days_Temp",
	"Days_Humidity",
	"Temp_Humidity",
	"Days_Squared",
	"Crop_Potato",
	"Crop_Rice",
	"Crop_Tomato",
	"Crop_Wheat",
}

// KnownCrops is the closed crop set with a one-hot indicator.
var KnownCrops = []string{"Potato", "Rice", "Tomato", "Wheat"}

// BuildSpoilageFeatures encodes conditions as the fixed 12-dimensional
// classifier row. An unknown crop leaves every crop indicator at 0.
func BuildSpoilageFeatures(c models.SpoilageConditions) models.FeatureVector {
	days, temp, hum := c.DaysAfterHarvest, c.Temperature, c.Humidity
	values := []float64{
		days,
		temp,
		hum,
		c.PriceDropPercent,
		days * temp,
		days * hum,
		temp * hum,
		days * days,
		0, 0, 0, 0,
	}
	if i := cropIndex(c.Crop); i >= 0 {
		values[8+i] = 1
	}
	names := make([]string, len(SpoilageFeatureColumns))
	copy(names, SpoilageFeatureColumns)
	return models.FeatureVector{Names: names, Values: values}
}

// IsKnownCrop reports whether crop has a one-hot indicator.
func IsKnownCrop(crop string) bool { return cropIndex(crop) >= 0 }

func cropIndex(crop string) int {
	name := capitalize(strings.TrimSpace(crop))
	for i, known := range KnownCrops {
		if name == known {
			return i
		}
	}
	return -1
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
