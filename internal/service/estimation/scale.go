package estimation

import "github.com/mamadbah2/agroyield/internal/domain/models"

// Scale converts the model's per-acre estimate into plot totals. The total
// value is recomputed here from the scaled yield and the tool-sourced price;
// the model's own multiplication is never trusted.
func Scale(estimate models.AIEstimate, plotSize float64) models.EstimationResult {
	estimatedYield := estimate.YieldPerAcre * plotSize

	return models.EstimationResult{
		EstimatedYield: estimatedYield,
		ConfidenceInterval: models.ConfidenceInterval{
			Lower: estimate.ConfidencePerAcre.Lower * plotSize,
			Upper: estimate.ConfidencePerAcre.Upper * plotSize,
		},
		MarketPricePerKg:    estimate.MarketPricePerKg,
		Currency:            estimate.Currency,
		PriceUnit:           estimate.PriceUnit,
		EstimatedTotalValue: estimatedYield * estimate.MarketPricePerKg,
		Explanation:         estimate.Explanation,
		Suggestions:         estimate.Suggestions,
	}
}
