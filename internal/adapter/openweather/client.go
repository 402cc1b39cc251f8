// Package openweather implements domain.WeatherSource against the
// OpenWeather current-conditions API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/observability"
)

// Client implements domain.WeatherSource using the OpenWeather API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeather client. requestsPerSecond caps the
// upstream call rate across all concurrent cell fetches; zero or negative
// means unlimited.
func NewClient(apiKey string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger, metrics *observability.Metrics) *Client {
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		if requestsPerSecond > 1 {
			burst = int(requestsPerSecond)
		}
	}

	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch retrieves current conditions for the cell's center point.
func (c *Client) Fetch(ctx context.Context, cell domain.GridCell) (domain.Observation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Observation{}, fmt.Errorf("rate limit wait: %w", err)
	}

	lat, lng := cell.Center()
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":   {strconv.FormatFloat(lng, 'f', 6, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Observation{}, fmt.Errorf("%w: weather request: %v", domain.ErrWeatherUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.Observation{}, fmt.Errorf("%w: openweather API status %d: %s", domain.ErrWeatherUnavailable, resp.StatusCode, body)
	}

	var owResp response
	if err := json.NewDecoder(resp.Body).Decode(&owResp); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return domain.Observation{}, fmt.Errorf("%w: decode response: %v", domain.ErrWeatherUnavailable, err)
	}
	c.metrics.WeatherRequests.WithLabelValues("ok").Inc()

	obs := domain.Observation{
		Temperature: owResp.Main.Temp,
		Humidity:    owResp.Main.Humidity,
		WindSpeed:   owResp.Wind.Speed * 3.6, // API reports m/s, indices want km/h
		Rainfall:    owResp.Rain.OneHour,
		Source:      domain.SourceLive,
		ObservedAt:  domain.Now(),
	}
	if len(owResp.Weather) > 0 {
		obs.Description = owResp.Weather[0].Description
	}
	return obs, nil
}

// OpenWeather API response types.

type response struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}
