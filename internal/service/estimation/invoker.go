package estimation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

// maxToolTurns bounds the function-calling loop so a misbehaving model
// cannot keep the request suspended indefinitely.
const maxToolTurns = 8

// toolCall records one tool round-trip for server-side diagnostics.
type toolCall struct {
	Name     string         `json:"name"`
	Args     map[string]any `json:"args,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}

// invoke runs the tool-augmented generation until the model produces a
// terminal candidate, then validates the structured output.
func (s *Service) invoke(ctx context.Context, payload PromptPayload) (models.AIEstimate, error) {
	contents := []gemini.Content{{Role: "user", Parts: payload.Parts}}
	var history []toolCall

	for turn := 0; turn < maxToolTurns; turn++ {
		req := &gemini.Request{
			Contents:          contents,
			SystemInstruction: &gemini.SystemInstruction{Parts: []gemini.Part{{Text: payload.System}}},
			GenerationConfig: &gemini.GenerationConfig{
				Temperature:     0.2,
				MaxOutputTokens: s.maxOutputTokens,
			},
			Tools: []gemini.Tool{{FunctionDeclarations: s.tools.Declarations()}},
		}

		resp, err := s.ai.GenerateContent(ctx, req)
		if err != nil {
			s.logger.Error("model invocation failed",
				zap.Error(err),
				zap.Any("tool_calls", history))
			return models.AIEstimate{}, models.NewGenerationUnknownError()
		}

		if len(resp.Candidates) == 0 {
			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				s.logger.Error("prompt blocked before generation",
					zap.String("block_reason", resp.PromptFeedback.BlockReason),
					zap.Any("safety_ratings", resp.PromptFeedback.SafetyRatings))
				return models.AIEstimate{}, models.NewGenerationSafetyError()
			}
			s.logger.Error("model returned no candidates", zap.Any("tool_calls", history))
			return models.AIEstimate{}, models.NewGenerationUnknownError()
		}

		candidate := resp.Candidates[0]

		calls := candidate.FunctionCalls()
		if len(calls) == 0 {
			return s.decodeEstimate(candidate, history)
		}

		contents = append(contents, candidate.Content)
		responseParts := make([]gemini.Part, 0, len(calls))
		for _, call := range calls {
			result := s.tools.Execute(ctx, call)
			history = append(history, toolCall{Name: call.Name, Args: call.Args, Response: result})
			responseParts = append(responseParts, gemini.Part{
				FunctionResponse: &gemini.FunctionResponse{Name: call.Name, Response: result},
			})
		}
		contents = append(contents, gemini.Content{Role: "user", Parts: responseParts})
	}

	s.logger.Error("tool-calling loop exceeded maximum turns", zap.Any("tool_calls", history))
	return models.AIEstimate{}, models.NewGenerationUnknownError()
}

// decodeEstimate turns a terminal candidate into a validated AIEstimate.
// Diagnostic detail stays in the logs; only the sanitized error crosses out.
func (s *Service) decodeEstimate(candidate gemini.Candidate, history []toolCall) (models.AIEstimate, error) {
	raw := candidate.Text()

	fail := func(genErr *models.GenerationError, cause error) (models.AIEstimate, error) {
		s.logger.Error("model did not return a valid structured estimate",
			zap.String("finish_reason", candidate.FinishReason),
			zap.String("raw_text", raw),
			zap.Any("safety_ratings", candidate.SafetyRatings),
			zap.Any("tool_calls", history),
			zap.String("error_kind", string(genErr.Kind)),
			zap.Error(cause))
		return models.AIEstimate{}, genErr
	}

	if genErr := FinishReasonError(candidate.FinishReason); genErr != nil {
		return fail(genErr, nil)
	}

	var estimate models.AIEstimate
	if genErr := DecodeStructuredOutput(raw, &estimate); genErr != nil {
		return fail(genErr, nil)
	}

	if err := validateEstimate(estimate); err != nil {
		return fail(models.NewGenerationFormatError(), err)
	}

	return estimate, nil
}

func validateEstimate(estimate models.AIEstimate) error {
	switch {
	case estimate.YieldPerAcre < 0:
		return errors.New("yieldPerAcre must not be negative")
	case estimate.ConfidencePerAcre.Lower > estimate.ConfidencePerAcre.Upper:
		return errors.New("confidence interval bounds are inverted")
	case estimate.MarketPricePerKg < 0:
		return errors.New("marketPricePerKg must not be negative")
	case estimate.Currency == "":
		return errors.New("currency is missing")
	case estimate.PriceUnit == "":
		return errors.New("priceUnit is missing")
	case strings.TrimSpace(estimate.Explanation) == "":
		return errors.New("explanation is missing")
	case len(estimate.Suggestions) < 2:
		return errors.New("at least two suggestions are expected")
	}
	return nil
}
