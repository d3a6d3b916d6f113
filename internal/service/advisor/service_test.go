package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

type scriptedAI struct {
	response *gemini.Response
	err      error
	requests []*gemini.Request
}

func (s *scriptedAI) GenerateContent(_ context.Context, req *gemini.Request) (*gemini.Response, error) {
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func textCandidate(finishReason, text string) *gemini.Response {
	return &gemini.Response{Candidates: []gemini.Candidate{{
		Content:      gemini.Content{Role: "model", Parts: []gemini.Part{{Text: text}}},
		FinishReason: finishReason,
	}}}
}

func TestSuggestCropsParsesValidOutput(t *testing.T) {
	ai := &scriptedAI{response: textCandidate(gemini.FinishReasonStop, `{
		"suggestions": [
			{"cropName": "Rice", "reasoning": "High water content suits paddy cultivation."},
			{"cropName": "Sugarcane", "reasoning": "Thrives in humid conditions with high water availability."},
			{"cropName": "Jute", "reasoning": "Requires standing water during early growth."}
		]
	}`)}
	svc := NewService(ai, 2048, zap.NewNop())

	suggestions, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{
		Location: "Kolkata",
		Soil:     map[string]any{"water": 80.0},
	})
	require.NoError(t, err)

	require.Len(t, suggestions, 3)
	assert.Equal(t, "Rice", suggestions[0].CropName)
	assert.NotEmpty(t, suggestions[0].Reasoning)
}

func TestSuggestCropsPromptListsConditions(t *testing.T) {
	ai := &scriptedAI{response: textCandidate(gemini.FinishReasonStop, `{"suggestions": [{"cropName": "Millet", "reasoning": "Drought tolerant."}]}`)}
	svc := NewService(ai, 2048, zap.NewNop())

	_, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{
		Location: "Jaipur",
		Soil:     map[string]any{"water": 10.0, "sunlight": 9.0},
	})
	require.NoError(t, err)

	require.Len(t, ai.requests, 1)
	req := ai.requests[0]
	prompt := req.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Location: Jaipur")
	assert.Contains(t, prompt, "Water Content")
	assert.Contains(t, prompt, "Sunlight Hours")
	assert.Nil(t, req.Tools, "advisory flow declares no tools")
}

func TestSuggestCropsPromptEmitsMarkerForEmptyInput(t *testing.T) {
	ai := &scriptedAI{response: textCandidate(gemini.FinishReasonStop, `{"suggestions": [{"cropName": "Wheat", "reasoning": "Broadly adaptable."}]}`)}
	svc := NewService(ai, 2048, zap.NewNop())

	_, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{})
	require.NoError(t, err)

	prompt := ai.requests[0].Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "No soil or environmental properties were provided.")
}

func TestSuggestCropsRejectsEmptySuggestionList(t *testing.T) {
	ai := &scriptedAI{response: textCandidate(gemini.FinishReasonStop, `{"suggestions": []}`)}
	svc := NewService(ai, 2048, zap.NewNop())

	_, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{})

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationFormat, genErr.Kind)
}

func TestSuggestCropsRejectsBlankCropName(t *testing.T) {
	ai := &scriptedAI{response: textCandidate(gemini.FinishReasonStop, `{"suggestions": [{"cropName": "  ", "reasoning": "?"}]}`)}
	svc := NewService(ai, 2048, zap.NewNop())

	_, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{})

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationFormat, genErr.Kind)
}

func TestSuggestCropsMapsFinishReasons(t *testing.T) {
	cases := []struct {
		finishReason string
		kind         models.GenerationErrorKind
	}{
		{gemini.FinishReasonSafety, models.GenerationSafety},
		{gemini.FinishReasonMaxTokens, models.GenerationLength},
		{"RECITATION", models.GenerationOther},
	}

	for _, tc := range cases {
		ai := &scriptedAI{response: textCandidate(tc.finishReason, "")}
		svc := NewService(ai, 2048, zap.NewNop())

		_, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{})

		var genErr *models.GenerationError
		require.True(t, errors.As(err, &genErr), "finishReason=%s", tc.finishReason)
		assert.Equal(t, tc.kind, genErr.Kind, "finishReason=%s", tc.finishReason)
	}
}

func TestSuggestCropsMapsTransportFailure(t *testing.T) {
	ai := &scriptedAI{err: errors.New("connection reset")}
	svc := NewService(ai, 2048, zap.NewNop())

	_, err := svc.SuggestCrops(context.Background(), models.CropAdvisoryRequest{})

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationOther, genErr.Kind)
}
