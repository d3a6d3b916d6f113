package tools

import (
	"context"
	"hash/fnv"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/config"
	"github.com/mamadbah2/agroyield/internal/domain/models"
)

// fallbackForecasts are synthetic 7-day summaries served when no live
// weather endpoint is configured or the lookup fails. Selection is keyed
// off the location so identical requests see identical forecasts.
var fallbackForecasts = []string{
	"Sunny with highs around 30°C for most of the week. Low chance of rain.",
	"Partly cloudy with a 40% chance of afternoon showers mid-week. Highs of 28°C.",
	"Heavy rainfall expected over the next seven days, totaling 50mm. Highs of 25°C.",
	"Clear skies and dry conditions throughout the week. Highs around 32°C.",
	"Mixed sun and clouds with moderate temperatures. Highs of 27°C.",
}

// WeatherAdapter resolves a multi-day forecast summary for a location. It
// never fails for a non-empty location: unavailable live data degrades to a
// synthetic forecast.
type WeatherAdapter struct {
	httpClient *resty.Client
	cfg        config.WeatherConfig
	logger     *zap.Logger
}

// NewWeatherAdapter builds a weather adapter from configuration.
func NewWeatherAdapter(cfg config.WeatherConfig, logger *zap.Logger) *WeatherAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().SetTimeout(10 * time.Second)
	if cfg.BaseURL != "" {
		client.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/"))
	}

	return &WeatherAdapter{httpClient: client, cfg: cfg, logger: logger}
}

// GetWeatherForecast returns a complete forecast record for the location.
func (a *WeatherAdapter) GetWeatherForecast(ctx context.Context, location string) models.WeatherForecast {
	if a.cfg.BaseURL != "" {
		if forecast, ok := a.fetchLiveForecast(ctx, location); ok {
			return forecast
		}
	}
	return a.fallbackForecast(location)
}

func (a *WeatherAdapter) fetchLiveForecast(ctx context.Context, location string) (models.WeatherForecast, bool) {
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetQueryParam("format", "Next days: %C, temperature %t, precipitation %p").
		Get("/" + url.PathEscape(location))
	if err != nil || resp.StatusCode() >= http.StatusBadRequest {
		a.logger.Debug("live weather lookup failed, using fallback",
			zap.String("location", location),
			zap.Error(err))
		return models.WeatherForecast{}, false
	}

	summary := strings.TrimSpace(resp.String())
	if summary == "" {
		return models.WeatherForecast{}, false
	}

	return models.WeatherForecast{Forecast: summary}, true
}

func (a *WeatherAdapter) fallbackForecast(location string) models.WeatherForecast {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(location))))
	pick := fallbackForecasts[h.Sum32()%uint32(len(fallbackForecasts))]

	a.logger.Debug("serving synthetic weather forecast", zap.String("location", location))

	return models.WeatherForecast{Forecast: pick}
}
