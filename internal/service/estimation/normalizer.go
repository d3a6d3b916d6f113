package estimation

import (
	"strings"

	"github.com/mamadbah2/agroyield/internal/domain/models"
)

// NormalizedRequest is the validated, cleaned input the rest of the pipeline
// operates on. Soil contains only recognized keys with non-empty values.
type NormalizedRequest struct {
	CropType     string
	PlotSize     float64
	Location     string
	PhotoDataURI string
	Soil         map[string]any
}

// Normalize validates the required fields and strips empty or unrecognized
// soil properties. Values are kept exactly as provided; no coercion and no
// silent defaults happen here.
func Normalize(req models.EstimationRequest) (NormalizedRequest, error) {
	cropType := strings.TrimSpace(req.CropType)
	if cropType == "" {
		return NormalizedRequest{}, &models.ValidationError{Field: "cropType", Message: "crop type is required"}
	}

	if req.PlotSize <= 0 {
		return NormalizedRequest{}, &models.ValidationError{Field: "plotSize", Message: "plot size must be a positive number of acres"}
	}

	soil := make(map[string]any, len(req.Soil))
	for key, value := range req.Soil {
		if value == nil {
			continue
		}
		if text, ok := value.(string); ok && strings.TrimSpace(text) == "" {
			continue
		}
		if _, ok := models.RecognizedSoilProperty(key); !ok {
			continue
		}
		soil[key] = value
	}

	return NormalizedRequest{
		CropType:     cropType,
		PlotSize:     req.PlotSize,
		Location:     strings.TrimSpace(req.Location),
		PhotoDataURI: strings.TrimSpace(req.PhotoDataURI),
		Soil:         soil,
	}, nil
}
