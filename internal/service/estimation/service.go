package estimation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/internal/service/tools"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

// HistoryRepository is the sink for completed estimations.
type HistoryRepository interface {
	SaveEstimation(ctx context.Context, record models.EstimationHistoryRecord) error
}

// Service runs the estimation pipeline: normalize, prompt, invoke the model
// with tools, validate, scale, and persist fire-and-forget.
type Service struct {
	ai              gemini.Client
	tools           *tools.Registry
	history         HistoryRepository
	logger          *zap.Logger
	maxOutputTokens int
	persistTimeout  time.Duration
	now             func() time.Time
}

// NewService wires a new estimation service instance.
func NewService(ai gemini.Client, registry *tools.Registry, history HistoryRepository, maxOutputTokens int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = 2048
	}
	return &Service{
		ai:              ai,
		tools:           registry,
		history:         history,
		logger:          logger,
		maxOutputTokens: maxOutputTokens,
		persistTimeout:  10 * time.Second,
		now:             time.Now,
	}
}

// Estimate produces a plot-scaled yield and market value estimation for the
// request. Validation failures and generation failures come back as the
// typed errors from the domain package; history write failures never do.
func (s *Service) Estimate(ctx context.Context, req models.EstimationRequest) (models.EstimationResult, error) {
	normalized, err := Normalize(req)
	if err != nil {
		return models.EstimationResult{}, err
	}

	// A zero growth-critical input makes the outcome certain; the model is
	// never consulted for it.
	if key, ok := zeroGrowthInput(normalized.Soil); ok {
		s.logger.Info("growth-critical input is zero, skipping model invocation",
			zap.String("property", key),
			zap.String("crop_type", normalized.CropType))
		result := s.zeroYieldResult(ctx, normalized, key)
		s.persistAsync(result, normalized)
		return result, nil
	}

	payload, err := BuildPrompt(normalized)
	if err != nil {
		return models.EstimationResult{}, err
	}

	estimate, err := s.invoke(ctx, payload)
	if err != nil {
		return models.EstimationResult{}, err
	}

	result := Scale(estimate, normalized.PlotSize)
	s.persistAsync(result, normalized)
	return result, nil
}

// zeroGrowthInput reports the first growth-critical property supplied with a
// numeric zero.
func zeroGrowthInput(soil map[string]any) (string, bool) {
	for _, key := range models.GrowthCriticalProperties {
		value, ok := soil[key]
		if !ok {
			continue
		}
		if num, ok := numericValue(value); ok && num == 0 {
			return key, true
		}
	}
	return "", false
}

func numericValue(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// zeroYieldResult builds the deterministic zero estimate. Price fields still
// come from the market adapter so the record is complete.
func (s *Service) zeroYieldResult(ctx context.Context, req NormalizedRequest, key string) models.EstimationResult {
	price := s.tools.MarketPrice(ctx, req.CropType)

	label := key
	if prop, ok := models.RecognizedSoilProperty(key); ok {
		label = strings.ToLower(prop.Label)
	}

	return models.EstimationResult{
		EstimatedYield:      0,
		ConfidenceInterval:  models.ConfidenceInterval{Lower: 0, Upper: 0},
		MarketPricePerKg:    price.Price,
		Currency:            price.Currency,
		PriceUnit:           price.Unit,
		EstimatedTotalValue: 0,
		Explanation: fmt.Sprintf(
			"The supplied %s is 0, so no %s can grow on this plot and the expected yield is zero regardless of the other soil parameters. The current market price for %s is %.2f %s per %s.",
			label, req.CropType, req.CropType, price.Price, price.Currency, price.Unit),
		Suggestions: []string{
			fmt.Sprintf("Raise the %s above zero before planting %s.", label, req.CropType),
			"Re-run the estimation once all growth-critical inputs are available.",
		},
	}
}

// persistAsync appends the result to history without blocking the response
// path. Failures are logged and never alter the outcome already returned.
func (s *Service) persistAsync(result models.EstimationResult, req NormalizedRequest) {
	if s.history == nil {
		return
	}

	record := models.EstimationHistoryRecord{
		EstimationResult: result,
		CropType:         req.CropType,
		PlotSize:         req.PlotSize,
		CreatedAt:        s.now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		if err := s.history.SaveEstimation(ctx, record); err != nil {
			s.logger.Error("estimation history write failed",
				zap.Error(&models.PersistenceError{Err: err}),
				zap.String("crop_type", record.CropType))
		}
	}()
}
