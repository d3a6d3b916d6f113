package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
)

// Tool names as declared to the model.
const (
	MarketPriceToolName     = "getMarketPrice"
	WeatherForecastToolName = "getWeatherForecast"
)

// Registry declares the available tools to the model and dispatches its
// function calls to the adapters.
type Registry struct {
	market  *MarketPriceAdapter
	weather *WeatherAdapter
	logger  *zap.Logger
}

// NewRegistry wires the tool registry.
func NewRegistry(market *MarketPriceAdapter, weather *WeatherAdapter, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{market: market, weather: weather, logger: logger}
}

// Declarations lists both tools as Gemini function declarations.
func (r *Registry) Declarations() []gemini.FunctionDeclaration {
	return []gemini.FunctionDeclaration{
		{
			Name:        MarketPriceToolName,
			Description: "Returns the current market price for a specified crop type. Use this tool to determine the monetary value of crops.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cropType": map[string]any{
						"type":        "string",
						"description": "The type of crop for which to fetch the market price (e.g., Corn, Wheat, Soybeans).",
					},
				},
				"required": []string{"cropType"},
			},
		},
		{
			Name:        WeatherForecastToolName,
			Description: "Returns the weather forecast for a specified location for the next 7 days.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city or region for which to fetch the weather forecast.",
					},
				},
				"required": []string{"location"},
			},
		},
	}
}

// Execute runs the named tool and returns its result as a response payload
// for the model. Unknown tools and bad arguments come back as error payloads
// rather than Go errors so the model can recover mid-generation.
func (r *Registry) Execute(ctx context.Context, call gemini.FunctionCall) map[string]any {
	switch call.Name {
	case MarketPriceToolName:
		cropType, ok := stringArg(call.Args, "cropType")
		if !ok {
			return errorPayload("getMarketPrice requires a cropType argument")
		}
		price := r.market.GetMarketPrice(ctx, cropType)
		r.logger.Info("tool executed",
			zap.String("tool", call.Name),
			zap.String("crop_type", cropType),
			zap.Float64("price", price.Price))
		return map[string]any{
			"price":    price.Price,
			"currency": price.Currency,
			"unit":     price.Unit,
			"cropType": price.CropType,
		}

	case WeatherForecastToolName:
		location, ok := stringArg(call.Args, "location")
		if !ok {
			return errorPayload("getWeatherForecast requires a location argument")
		}
		forecast := r.weather.GetWeatherForecast(ctx, location)
		r.logger.Info("tool executed",
			zap.String("tool", call.Name),
			zap.String("location", location))
		return map[string]any{
			"forecast": forecast.Forecast,
		}

	default:
		r.logger.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return errorPayload(fmt.Sprintf("unknown tool %q", call.Name))
	}
}

// MarketPrice exposes the market adapter for callers that need a price
// outside of a generation, such as the zero-yield short-circuit.
func (r *Registry) MarketPrice(ctx context.Context, cropType string) models.MarketPrice {
	return r.market.GetMarketPrice(ctx, cropType)
}

func stringArg(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func errorPayload(message string) map[string]any {
	return map[string]any{"error": message}
}
