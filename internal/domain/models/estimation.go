package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EstimationRequest is the cleaned form-boundary input for a yield estimation.
// Soil holds only recognized property keys; values are numeric or string as
// provided by the caller, never coerced here.
type EstimationRequest struct {
	CropType     string         `json:"cropType"`
	PlotSize     float64        `json:"plotSize"`
	Location     string         `json:"location,omitempty"`
	PhotoDataURI string         `json:"photoDataUri,omitempty"`
	Soil         map[string]any `json:"soil,omitempty"`
}

// ConfidenceInterval brackets a yield point estimate.
type ConfidenceInterval struct {
	Lower float64 `json:"lower" bson:"lower"`
	Upper float64 `json:"upper" bson:"upper"`
}

// MarketPrice is the market price tool result for one crop type.
type MarketPrice struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Unit     string  `json:"unit"`
	CropType string  `json:"cropType"`
}

// WeatherForecast is the weather tool result for one location.
type WeatherForecast struct {
	Forecast string `json:"forecast"`
}

// AIEstimate is the model's raw per-acre structured output. It is an
// intermediate value and never leaves the estimation service.
type AIEstimate struct {
	YieldPerAcre      float64            `json:"yieldPerAcre"`
	ConfidencePerAcre ConfidenceInterval `json:"confidenceIntervalPerAcre"`
	MarketPricePerKg  float64            `json:"marketPricePerKg"`
	Currency          string             `json:"currency"`
	PriceUnit         string             `json:"priceUnit"`
	Explanation       string             `json:"explanation"`
	Suggestions       []string           `json:"suggestions"`
}

// EstimationResult is the final plot-scaled estimation returned to callers.
// EstimatedTotalValue is always EstimatedYield * MarketPricePerKg, computed
// by the scaling stage rather than trusted from the model.
type EstimationResult struct {
	EstimatedYield      float64            `json:"estimatedYield" bson:"estimated_yield"`
	ConfidenceInterval  ConfidenceInterval `json:"confidenceInterval" bson:"confidence_interval"`
	MarketPricePerKg    float64            `json:"marketPricePerKg" bson:"market_price_per_kg"`
	Currency            string             `json:"currency" bson:"currency"`
	PriceUnit           string             `json:"priceUnit" bson:"price_unit"`
	EstimatedTotalValue float64            `json:"estimatedTotalValue" bson:"estimated_total_value"`
	Explanation         string             `json:"explanation" bson:"explanation"`
	Suggestions         []string           `json:"suggestions" bson:"suggestions"`
}

// EstimationHistoryRecord is one persisted estimation with its core inputs.
type EstimationHistoryRecord struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EstimationResult `bson:",inline"`
	CropType         string    `json:"cropType" bson:"crop_type"`
	PlotSize         float64   `json:"plotSize" bson:"plot_size"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
}

// CropAdvisoryRequest carries soil/environmental conditions for the crop
// suggestion flow. No crop type or plot size is involved.
type CropAdvisoryRequest struct {
	Location string         `json:"location,omitempty"`
	Soil     map[string]any `json:"soil,omitempty"`
}

// CropSuggestion is one recommended crop with its rationale.
type CropSuggestion struct {
	CropName  string `json:"cropName"`
	Reasoning string `json:"reasoning"`
}
