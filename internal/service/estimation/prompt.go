package estimation

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

const estimationSystemPrompt = "You are an expert agricultural consultant and market analyst. " +
	"You estimate crop yields per acre from soil and environmental data and always answer with a single valid JSON object."

const estimationInstructions = `Based on the provided crop type, soil properties, and the optional photo and location:
1. Estimate the expected crop yield in kilograms PER ACRE, together with a per-acre confidence interval. Do NOT multiply by the plot size; the plot size is listed for context only.
2. Use the 'getMarketPrice' tool to find the current market price for the specified crop.
   The tool returns 'price' (numeric), 'currency' (string) and 'unit' (string) fields.
   In your final JSON output, 'marketPricePerKg' MUST be the exact numeric 'price' value from the tool,
   'currency' MUST be the exact 'currency' string from the tool, and 'priceUnit' MUST be the exact 'unit' string from the tool.
3. If a location is listed below, use the 'getWeatherForecast' tool for that location and factor the forecast into your estimate.
4. If a photo is attached, analyze it for visual cues about soil quality, plant health, discoloration or pests, and incorporate that analysis into your 'explanation'.
5. The 'explanation' MUST explicitly state the market price, currency and unit exactly as obtained from the getMarketPrice tool.
6. Provide 2 to 3 actionable 'suggestions' for improving soil quality and yield for this crop. For example, if pH is low, suggest adding lime.

Output ONLY a valid JSON object with exactly these fields and no additional text:
{"yieldPerAcre": number, "confidenceIntervalPerAcre": {"lower": number, "upper": number}, "marketPricePerKg": number, "currency": string, "priceUnit": string, "explanation": string, "suggestions": [string, ...]}`

// noPropertiesMarker is emitted instead of an empty property section so the
// model does not invent values for unlisted properties.
const noPropertiesMarker = "No additional soil properties provided."

// PromptPayload is the rendered generation input.
type PromptPayload struct {
	System string
	Parts  []gemini.Part
}

// BuildPrompt renders the instruction set for a normalized request. The
// output is deterministic: properties appear in catalog order and optional
// sections are included only when the corresponding input is present.
func BuildPrompt(req NormalizedRequest) (PromptPayload, error) {
	var b strings.Builder

	b.WriteString(estimationInstructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Crop Type: %s\n", req.CropType)
	fmt.Fprintf(&b, "Plot Size: %g acres\n", req.PlotSize)

	if req.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", req.Location)
	}

	b.WriteString("\nSoil Properties (only provided values are listed):\n")
	b.WriteString(renderSoilProperties(req.Soil))

	parts := []gemini.Part{{Text: b.String()}}

	if req.PhotoDataURI != "" {
		inline, err := parsePhotoDataURI(req.PhotoDataURI)
		if err != nil {
			return PromptPayload{}, err
		}
		parts = append(parts, gemini.Part{InlineData: inline})
	}

	return PromptPayload{System: estimationSystemPrompt, Parts: parts}, nil
}

// renderSoilProperties enumerates the provided properties in catalog order,
// or emits the explicit empty marker.
func renderSoilProperties(soil map[string]any) string {
	var b strings.Builder
	listed := 0

	for _, prop := range models.SoilCatalog {
		value, ok := soil[prop.Key]
		if !ok {
			continue
		}
		if prop.Unit != "" {
			fmt.Fprintf(&b, "- %s (%s): %v\n", prop.Label, prop.Unit, value)
		} else {
			fmt.Fprintf(&b, "- %s: %v\n", prop.Label, value)
		}
		listed++
	}

	if listed == 0 {
		return noPropertiesMarker + "\n"
	}
	return b.String()
}

// parsePhotoDataURI splits a "data:<mime>;base64,<payload>" URI into inline
// data for the model.
func parsePhotoDataURI(uri string) (*gemini.InlineData, error) {
	invalid := &models.ValidationError{Field: "photo", Message: "photo must be a base64 data URI with a MIME type prefix"}

	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, invalid
	}

	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mimeType == "" || payload == "" {
		return nil, invalid
	}

	return &gemini.InlineData{MimeType: mimeType, Data: payload}, nil
}
