package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/internal/service/estimation"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

const advisorSystemPrompt = "You are an expert agricultural consultant. " +
	"You recommend crops suited to the given soil and environmental conditions and always answer with a single valid JSON object."

const advisorInstructions = `Suggest a list of 3 to 5 crops suited to the soil and environmental data below.
Analyze all the provided data points. For each suggested crop, give a clear and concise reasoning explaining why it fits the conditions.

Output ONLY a valid JSON object with exactly this shape and no additional text:
{"suggestions": [{"cropName": string, "reasoning": string}, ...]}`

// Service runs the crop suggestion flow. Unlike the estimation pipeline it
// declares no tools and has no persistence.
type Service struct {
	ai              gemini.Client
	logger          *zap.Logger
	maxOutputTokens int
}

// NewService wires a new advisor service instance.
func NewService(ai gemini.Client, maxOutputTokens int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = 2048
	}
	return &Service{ai: ai, logger: logger, maxOutputTokens: maxOutputTokens}
}

// SuggestCrops recommends crops for the supplied conditions. No field is
// required: an empty request still yields generic recommendations.
func (s *Service) SuggestCrops(ctx context.Context, req models.CropAdvisoryRequest) ([]models.CropSuggestion, error) {
	prompt := buildAdvisoryPrompt(req)

	resp, err := s.ai.GenerateContent(ctx, &gemini.Request{
		Contents:          []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: prompt}}}},
		SystemInstruction: &gemini.SystemInstruction{Parts: []gemini.Part{{Text: advisorSystemPrompt}}},
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     0.2,
			MaxOutputTokens: s.maxOutputTokens,
		},
	})
	if err != nil {
		s.logger.Error("crop suggestion invocation failed", zap.Error(err))
		return nil, models.NewGenerationUnknownError()
	}

	if len(resp.Candidates) == 0 {
		s.logger.Error("crop suggestion returned no candidates")
		return nil, models.NewGenerationUnknownError()
	}

	candidate := resp.Candidates[0]
	raw := candidate.Text()

	if genErr := estimation.FinishReasonError(candidate.FinishReason); genErr != nil {
		s.logger.Error("crop suggestion terminated abnormally",
			zap.String("finish_reason", candidate.FinishReason),
			zap.String("raw_text", raw),
			zap.Any("safety_ratings", candidate.SafetyRatings))
		return nil, genErr
	}

	var out struct {
		Suggestions []models.CropSuggestion `json:"suggestions"`
	}
	if genErr := estimation.DecodeStructuredOutput(raw, &out); genErr != nil {
		s.logger.Error("crop suggestion output was not valid JSON",
			zap.String("raw_text", raw))
		return nil, genErr
	}

	if len(out.Suggestions) == 0 {
		s.logger.Error("crop suggestion output contained no suggestions",
			zap.String("raw_text", raw))
		return nil, models.NewGenerationFormatError()
	}
	for _, suggestion := range out.Suggestions {
		if strings.TrimSpace(suggestion.CropName) == "" {
			s.logger.Error("crop suggestion entry missing crop name",
				zap.String("raw_text", raw))
			return nil, models.NewGenerationFormatError()
		}
	}

	return out.Suggestions, nil
}

func buildAdvisoryPrompt(req models.CropAdvisoryRequest) string {
	var b strings.Builder

	b.WriteString(advisorInstructions)
	b.WriteString("\n\n")

	if location := strings.TrimSpace(req.Location); location != "" {
		fmt.Fprintf(&b, "Location: %s\n\n", location)
	}

	b.WriteString("Soil and Environmental Properties (only provided values are listed):\n")

	listed := 0
	for _, prop := range models.SoilCatalog {
		value, ok := req.Soil[prop.Key]
		if !ok || value == nil {
			continue
		}
		if text, isString := value.(string); isString && strings.TrimSpace(text) == "" {
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
		b.WriteString("No soil or environmental properties were provided.\n")
	}

	return b.String()
}
