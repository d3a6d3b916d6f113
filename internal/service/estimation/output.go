package estimation

import (
	"encoding/json"
	"strings"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

// FinishReasonError maps a candidate's termination reason to the matching
// generation error, or nil when the generation completed normally.
func FinishReasonError(finishReason string) *models.GenerationError {
	switch finishReason {
	case "", gemini.FinishReasonStop:
		return nil
	case gemini.FinishReasonSafety:
		return models.NewGenerationSafetyError()
	case gemini.FinishReasonMaxTokens:
		return models.NewGenerationLengthError()
	default:
		return models.NewGenerationUnknownError()
	}
}

// DecodeStructuredOutput strips markdown fences, checks that the raw text is
// a single JSON object and unmarshals it into v. Any deviation is a format
// error; the raw text itself never travels with the returned error.
func DecodeStructuredOutput(raw string, v any) *models.GenerationError {
	text := stripFences(strings.TrimSpace(raw))

	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return models.NewGenerationFormatError()
	}

	if err := json.Unmarshal([]byte(text), v); err != nil {
		return models.NewGenerationFormatError()
	}

	return nil
}

// stripFences removes a wrapping markdown code block if the model added one.
func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
