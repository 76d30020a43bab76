package scoring

import (
	"encoding/json"
	"fmt"
	"os"
)

// Weights are the per-factor sub-score maxima. They must sum to the 0..100
// scale ceiling; the two presets differ only in how the last factors split it.
type Weights struct {
	PriceFit       float64 `json:"price_fit"`
	Age            float64 `json:"age"`
	Mileage        float64 `json:"mileage"`
	Reliability    float64 `json:"reliability"`
	Parts          float64 `json:"parts_availability"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	Preference     float64 `json:"preference_match"`
	Practicality   float64 `json:"practicality"`
}

// Sum returns the scale ceiling the weights add up to.
func (w Weights) Sum() float64 {
	return w.PriceFit + w.Age + w.Mileage + w.Reliability + w.Parts +
		w.FuelEfficiency + w.Preference + w.Practicality
}

// DefaultWeights is the 8-factor split used by the recommendation endpoint.
func DefaultWeights() Weights {
	return Weights{
		PriceFit:       25,
		Age:            15,
		Mileage:        15,
		Reliability:    12,
		Parts:          10,
		FuelEfficiency: 8,
		Preference:     10,
		Practicality:   5,
	}
}

// ChatWeights is the 7-factor split used by the chat search flow: practicality
// is off and its share is spread over reliability, parts and fuel efficiency.
func ChatWeights() Weights {
	return Weights{
		PriceFit:       25,
		Age:            15,
		Mileage:        15,
		Reliability:    14,
		Parts:          11,
		FuelEfficiency: 10,
		Preference:     10,
		Practicality:   0,
	}
}

// LoadWeightsFromFile loads weights from a JSON file, falling back to defaults
// on file read errors.
func LoadWeightsFromFile(path string) (Weights, error) {
	w := DefaultWeights()
	b, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("unmarshal weights: %w", err)
	}
	return w, nil
}
