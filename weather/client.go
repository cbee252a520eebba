// Package weather fetches current conditions for a location from an
// external weather service. Spread prediction only needs coarse values, so
// any failure falls back to seasonal defaults instead of blocking the
// pipeline.
package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agridefender/models"
	"agridefender/utils"
)

// Client communicates with the weather service
type Client struct {
	serviceURL string
	client     *http.Client
}

// NewClient creates a weather service client. The URL comes from
// WEATHER_SERVICE_URL when not given.
func NewClient(serviceURL string) *Client {
	if serviceURL == "" {
		serviceURL = utils.GetEnv("WEATHER_SERVICE_URL", "http://localhost:5003")
	}

	return &Client{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// HealthCheck verifies the weather service is running
func (wc *Client) HealthCheck() error {
	resp, err := wc.client.Get(wc.serviceURL + "/health")
	if err != nil {
		return fmt.Errorf("weather service not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// Current fetches conditions at a coordinate.
func (wc *Client) Current(lng, lat float64) (*models.Weather, error) {
	url := fmt.Sprintf("%s/current?lng=%f&lat=%f", wc.serviceURL, lng, lat)
	resp, err := wc.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var w models.Weather
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return &w, nil
}

// CurrentOrDefault returns live conditions when the service answers and
// seasonal defaults when it does not. Never fails.
func (wc *Client) CurrentOrDefault(lng, lat float64) *models.Weather {
	w, err := wc.Current(lng, lat)
	if err != nil {
		logger := utils.GetLogger()
		logger.Warn("weather service unavailable, using default conditions", "error", err.Error())
		def := models.DefaultWeather()
		return &def
	}
	return w
}
