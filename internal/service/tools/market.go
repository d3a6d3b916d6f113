package tools

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/config"
	"github.com/mamadbah2/agroyield/internal/domain/models"
)

const defaultPricePerKg = 16

// fallbackPrices holds indicative mandi prices per kg, keyed by crop name
// fragment. Used whenever no live commodity endpoint is configured or the
// lookup fails.
var fallbackPrices = []struct {
	fragment string
	price    float64
}{
	{"corn", 18},
	{"maize", 18},
	{"wheat", 20},
	{"soybean", 35},
	{"rice", 55},
	{"potatoes", 40},
	{"tomatoes", 120},
}

// MarketPriceAdapter resolves the current market price for a crop type. It
// never fails for a non-empty crop type: unavailable live data degrades to
// the static price table.
type MarketPriceAdapter struct {
	httpClient *resty.Client
	cfg        config.MarketConfig
	logger     *zap.Logger
}

// NewMarketPriceAdapter builds a market price adapter from configuration.
func NewMarketPriceAdapter(cfg config.MarketConfig, logger *zap.Logger) *MarketPriceAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().SetTimeout(10 * time.Second)
	if cfg.BaseURL != "" {
		client.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/"))
	}

	return &MarketPriceAdapter{httpClient: client, cfg: cfg, logger: logger}
}

type livePriceResponse struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Unit     string  `json:"unit"`
}

// GetMarketPrice returns a complete price record for the crop type.
func (a *MarketPriceAdapter) GetMarketPrice(ctx context.Context, cropType string) models.MarketPrice {
	if a.cfg.BaseURL != "" {
		if price, ok := a.fetchLivePrice(ctx, cropType); ok {
			return price
		}
	}
	return a.fallbackPrice(cropType)
}

func (a *MarketPriceAdapter) fetchLivePrice(ctx context.Context, cropType string) (models.MarketPrice, bool) {
	result := new(livePriceResponse)

	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetQueryParam("commodity", cropType).
		SetQueryParam("api-key", a.cfg.APIKey).
		SetResult(result).
		Get("/prices")
	if err != nil || resp.StatusCode() >= http.StatusBadRequest || result.Price <= 0 {
		a.logger.Debug("live market price lookup failed, using fallback",
			zap.String("crop_type", cropType),
			zap.Error(err))
		return models.MarketPrice{}, false
	}

	currency := result.Currency
	if currency == "" {
		currency = a.cfg.Currency
	}
	unit := result.Unit
	if unit == "" {
		unit = a.cfg.Unit
	}

	return models.MarketPrice{
		Price:    result.Price,
		Currency: currency,
		Unit:     unit,
		CropType: cropType,
	}, true
}

func (a *MarketPriceAdapter) fallbackPrice(cropType string) models.MarketPrice {
	normalized := strings.ToLower(cropType)
	price := float64(defaultPricePerKg)

	for _, entry := range fallbackPrices {
		if strings.Contains(normalized, entry.fragment) {
			price = entry.price
			break
		}
	}

	a.logger.Debug("serving fallback market price",
		zap.String("crop_type", cropType),
		zap.Float64("price", price))

	return models.MarketPrice{
		Price:    price,
		Currency: a.cfg.Currency,
		Unit:     a.cfg.Unit,
		CropType: cropType,
	}
}
