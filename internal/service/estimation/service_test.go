package estimation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/config"
	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/internal/service/tools"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

const wheatEstimateJSON = `{
	"yieldPerAcre": 500,
	"confidenceIntervalPerAcre": {"lower": 450, "upper": 550},
	"marketPricePerKg": 20,
	"currency": "INR",
	"priceUnit": "kg",
	"explanation": "Based on the getMarketPrice tool the price is 20 INR per kg.",
	"suggestions": ["Add nitrogen-rich fertilizer.", "Maintain irrigation at current levels."]
}`

// fakeAI replays scripted responses and records every request it saw.
type fakeAI struct {
	responses []*gemini.Response
	err       error

	mu       sync.Mutex
	requests []*gemini.Request
}

func (f *fakeAI) GenerateContent(_ context.Context, req *gemini.Request) (*gemini.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeHistory records writes and signals each one on a channel.
type fakeHistory struct {
	err error

	mu      sync.Mutex
	records []models.EstimationHistoryRecord
	saved   chan struct{}
}

func newFakeHistory(err error) *fakeHistory {
	return &fakeHistory{err: err, saved: make(chan struct{}, 4)}
}

func (f *fakeHistory) SaveEstimation(_ context.Context, record models.EstimationHistoryRecord) error {
	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()
	f.saved <- struct{}{}
	return f.err
}

func (f *fakeHistory) waitForSave(t *testing.T) models.EstimationHistoryRecord {
	t.Helper()
	select {
	case <-f.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for history write")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

func textResponse(finishReason, text string) *gemini.Response {
	return &gemini.Response{Candidates: []gemini.Candidate{{
		Content:      gemini.Content{Role: "model", Parts: []gemini.Part{{Text: text}}},
		FinishReason: finishReason,
	}}}
}

func toolCallResponse(name string, args map[string]any) *gemini.Response {
	return &gemini.Response{Candidates: []gemini.Candidate{{
		Content: gemini.Content{Role: "model", Parts: []gemini.Part{{
			FunctionCall: &gemini.FunctionCall{Name: name, Args: args},
		}}},
	}}}
}

func newTestService(ai gemini.Client, history HistoryRepository) *Service {
	market := tools.NewMarketPriceAdapter(config.MarketConfig{Currency: "INR", Unit: "kg"}, zap.NewNop())
	weather := tools.NewWeatherAdapter(config.WeatherConfig{}, zap.NewNop())
	registry := tools.NewRegistry(market, weather, zap.NewNop())

	svc := NewService(ai, registry, history, 2048, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return svc
}

func wheatRequest() models.EstimationRequest {
	return models.EstimationRequest{
		CropType: "Wheat",
		PlotSize: 2,
		Soil:     map[string]any{"water": 25.0, "sunlight": 6.0},
	}
}

func TestEstimateScalesPerAcreOutputExactly(t *testing.T) {
	ai := &fakeAI{responses: []*gemini.Response{
		toolCallResponse(tools.MarketPriceToolName, map[string]any{"cropType": "Wheat"}),
		textResponse(gemini.FinishReasonStop, wheatEstimateJSON),
	}}
	history := newFakeHistory(nil)
	svc := newTestService(ai, history)

	result, err := svc.Estimate(context.Background(), wheatRequest())
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.EstimatedYield)
	assert.Equal(t, models.ConfidenceInterval{Lower: 900, Upper: 1100}, result.ConfidenceInterval)
	assert.Equal(t, 20.0, result.MarketPricePerKg)
	assert.Equal(t, 20000.0, result.EstimatedTotalValue)
	assert.Equal(t, "INR", result.Currency)
	assert.Equal(t, "kg", result.PriceUnit)
	assert.Len(t, result.Suggestions, 2)

	// The tool round-trip is fed back to the model as a function response.
	require.Equal(t, 2, ai.callCount())
	secondCall := ai.requests[1]
	lastContent := secondCall.Contents[len(secondCall.Contents)-1]
	require.Len(t, lastContent.Parts, 1)
	toolPart := lastContent.Parts[0].FunctionResponse
	require.NotNil(t, toolPart)
	assert.Equal(t, tools.MarketPriceToolName, toolPart.Name)
	assert.Equal(t, 20.0, toolPart.Response["price"])

	history.waitForSave(t)
}

func TestEstimateIsIdempotentForIdenticalModelOutput(t *testing.T) {
	run := func() models.EstimationResult {
		ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonStop, wheatEstimateJSON)}}
		svc := newTestService(ai, nil)
		result, err := svc.Estimate(context.Background(), wheatRequest())
		require.NoError(t, err)
		return result
	}

	assert.Equal(t, run(), run())
}

func TestEstimateZeroWaterShortCircuitsModel(t *testing.T) {
	ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonStop, wheatEstimateJSON)}}
	history := newFakeHistory(nil)
	svc := newTestService(ai, history)

	req := wheatRequest()
	req.Soil["water"] = 0.0

	result, err := svc.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.EstimatedYield)
	assert.Equal(t, models.ConfidenceInterval{Lower: 0, Upper: 0}, result.ConfidenceInterval)
	assert.Equal(t, 0.0, result.EstimatedTotalValue)
	assert.Contains(t, result.Explanation, "water")
	assert.Equal(t, "INR", result.Currency)
	assert.Equal(t, 20.0, result.MarketPricePerKg, "fallback wheat price")
	assert.Zero(t, ai.callCount(), "model must not be invoked")

	record := history.waitForSave(t)
	assert.Equal(t, "Wheat", record.CropType)
	assert.Equal(t, 2.0, record.PlotSize)
}

func TestEstimateZeroSunlightShortCircuitsModel(t *testing.T) {
	ai := &fakeAI{}
	svc := newTestService(ai, nil)

	req := wheatRequest()
	req.Soil["sunlight"] = 0.0

	result, err := svc.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.EstimatedYield)
	assert.Contains(t, result.Explanation, "sunlight")
	assert.Zero(t, ai.callCount())
}

func TestEstimateValidatesBeforeModelCall(t *testing.T) {
	ai := &fakeAI{}
	svc := newTestService(ai, nil)

	for _, req := range []models.EstimationRequest{
		{CropType: "", PlotSize: 2},
		{CropType: "Wheat", PlotSize: 0},
	} {
		_, err := svc.Estimate(context.Background(), req)

		var validationErr *models.ValidationError
		require.True(t, errors.As(err, &validationErr))
	}

	assert.Zero(t, ai.callCount())
}

func TestEstimateMapsTruncatedOutputToLengthError(t *testing.T) {
	rawText := `{"yieldPerAcre": 500, "confid`
	ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonMaxTokens, rawText)}}
	svc := newTestService(ai, nil)

	_, err := svc.Estimate(context.Background(), wheatRequest())

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationLength, genErr.Kind)
	assert.NotContains(t, genErr.Message, rawText, "raw model text must not leak to the caller")
}

func TestEstimateMapsSafetyBlockToSafetyError(t *testing.T) {
	ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonSafety, "")}}
	svc := newTestService(ai, nil)

	_, err := svc.Estimate(context.Background(), wheatRequest())

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationSafety, genErr.Kind)
}

func TestEstimateMapsNonJSONOutputToFormatError(t *testing.T) {
	ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonStop, "Sorry, here is my estimate: plenty!")}}
	svc := newTestService(ai, nil)

	_, err := svc.Estimate(context.Background(), wheatRequest())

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationFormat, genErr.Kind)
}

func TestEstimateRejectsSchemaViolations(t *testing.T) {
	tooFewSuggestions := `{
		"yieldPerAcre": 500,
		"confidenceIntervalPerAcre": {"lower": 450, "upper": 550},
		"marketPricePerKg": 20,
		"currency": "INR",
		"priceUnit": "kg",
		"explanation": "ok",
		"suggestions": ["only one"]
	}`
	ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonStop, tooFewSuggestions)}}
	svc := newTestService(ai, nil)

	_, err := svc.Estimate(context.Background(), wheatRequest())

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationFormat, genErr.Kind)
}

func TestEstimateMapsUnknownFinishReason(t *testing.T) {
	ai := &fakeAI{responses: []*gemini.Response{textResponse("RECITATION", "")}}
	svc := newTestService(ai, nil)

	_, err := svc.Estimate(context.Background(), wheatRequest())

	var genErr *models.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, models.GenerationOther, genErr.Kind)
}

func TestEstimateSurvivesHistoryWriteFailure(t *testing.T) {
	ai := &fakeAI{responses: []*gemini.Response{textResponse(gemini.FinishReasonStop, wheatEstimateJSON)}}
	history := newFakeHistory(errors.New("mongo unavailable"))
	svc := newTestService(ai, history)

	result, err := svc.Estimate(context.Background(), wheatRequest())
	require.NoError(t, err, "persistence failure must not fail the request")
	assert.Equal(t, 1000.0, result.EstimatedYield)

	history.waitForSave(t)
}

func TestScaleArithmeticIsExact(t *testing.T) {
	estimate := models.AIEstimate{
		YieldPerAcre:      123.25,
		ConfidencePerAcre: models.ConfidenceInterval{Lower: 100.5, Upper: 150.75},
		MarketPricePerKg:  42.5,
		Currency:          "INR",
		PriceUnit:         "kg",
	}

	for _, plotSize := range []float64{0.5, 1, 2, 3.25, 10} {
		result := Scale(estimate, plotSize)

		assert.Equal(t, estimate.YieldPerAcre*plotSize, result.EstimatedYield)
		assert.Equal(t, estimate.ConfidencePerAcre.Lower*plotSize, result.ConfidenceInterval.Lower)
		assert.Equal(t, estimate.ConfidencePerAcre.Upper*plotSize, result.ConfidenceInterval.Upper)
		assert.Equal(t, result.EstimatedYield*estimate.MarketPricePerKg, result.EstimatedTotalValue)
	}
}
