package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
)

// Estimator runs the yield estimation pipeline.
type Estimator interface {
	Estimate(ctx context.Context, req models.EstimationRequest) (models.EstimationResult, error)
}

// Advisor runs the crop suggestion flow.
type Advisor interface {
	SuggestCrops(ctx context.Context, req models.CropAdvisoryRequest) ([]models.CropSuggestion, error)
}

// HistoryReader lists persisted estimations, most recent first.
type HistoryReader interface {
	ListEstimations(ctx context.Context) ([]models.EstimationHistoryRecord, error)
}

// EstimationHandler adapts the HTTP form boundary to the services.
type EstimationHandler struct {
	estimator Estimator
	advisor   Advisor
	history   HistoryReader
	logger    *zap.Logger
}

// NewEstimationHandler constructs the HTTP handler adapter.
func NewEstimationHandler(estimator Estimator, advisor Advisor, history HistoryReader, logger *zap.Logger) *EstimationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EstimationHandler{estimator: estimator, advisor: advisor, history: history, logger: logger}
}

// Estimate handles the form submission boundary: a flat key/value object
// with cropType, plotSize and the optional soil/environmental properties.
func (h *EstimationHandler) Estimate(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.logger.Warn("invalid estimation payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := decodeEstimationRequest(raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.estimator.Estimate(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SuggestCrops handles the crop advisory boundary: the same flat bag minus
// crop type and plot size.
func (h *EstimationHandler) SuggestCrops(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.logger.Warn("invalid advisory payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req := models.CropAdvisoryRequest{Soil: make(map[string]any)}
	for key, value := range raw {
		switch key {
		case "location":
			if location, ok := value.(string); ok {
				req.Location = location
			}
		case "cropType", "plotSize", "photoDataUri":
			// Not part of the advisory input.
		default:
			req.Soil[key] = value
		}
	}

	suggestions, err := h.advisor.SuggestCrops(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// History returns the persisted estimations, most recent first.
func (h *EstimationHandler) History(c *gin.Context) {
	records, err := h.history.ListEstimations(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load estimation history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch estimation history"})
		return
	}

	if records == nil {
		records = []models.EstimationHistoryRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Only the
// sanitized messages cross this boundary.
func (h *EstimationHandler) writeError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
		return
	}

	var generationErr *models.GenerationError
	if errors.As(err, &generationErr) {
		status := http.StatusBadGateway
		if generationErr.Kind == models.GenerationSafety {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": generationErr.Message})
		return
	}

	h.logger.Error("unexpected estimation failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to estimate crop yield, please try again"})
}

// decodeEstimationRequest splits the flat form object into core fields and
// the soil property bag. Type mismatches on core fields fail here, before
// the pipeline runs.
func decodeEstimationRequest(raw map[string]any) (models.EstimationRequest, error) {
	req := models.EstimationRequest{Soil: make(map[string]any)}

	for key, value := range raw {
		switch key {
		case "cropType":
			text, ok := value.(string)
			if !ok && value != nil {
				return models.EstimationRequest{}, &models.ValidationError{Field: "cropType", Message: "crop type must be a string"}
			}
			req.CropType = text
		case "plotSize":
			number, ok := value.(float64)
			if !ok && value != nil {
				return models.EstimationRequest{}, &models.ValidationError{Field: "plotSize", Message: "plot size must be a number"}
			}
			req.PlotSize = number
		case "location":
			if location, ok := value.(string); ok {
				req.Location = location
			}
		case "photoDataUri":
			if photo, ok := value.(string); ok {
				req.PhotoDataURI = photo
			}
		default:
			req.Soil[key] = value
		}
	}

	return req, nil
}
