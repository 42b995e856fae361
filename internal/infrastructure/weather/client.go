package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/frontandrew/garage/internal/domain"
)

// ForecastEntry - один трехчасовой интервал прогноза
type ForecastEntry struct {
	Time        time.Time `json:"time"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
}

// Forecast - прогноз погоды для города
type Forecast struct {
	City    string          `json:"city"`
	Country string          `json:"country"`
	Entries []ForecastEntry `json:"entries"`
}

// Provider - интерфейс поставщика прогноза погоды
type Provider interface {
	// GetForecast возвращает пятидневный прогноз для города
	GetForecast(ctx context.Context, city string) (*Forecast, error)
}

// openWeatherResponse - ответ OpenWeather forecast API
type openWeatherResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

// httpClient - HTTP реализация Provider поверх OpenWeather API.
// API ключ сервера не покидает backend: клиенты ходят через прокси.
type httpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient создает новый HTTP клиент погодного сервиса
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) Provider {
	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GetForecast запрашивает пятидневный прогноз с retry логикой
func (c *httpClient) GetForecast(ctx context.Context, city string) (*Forecast, error) {
	endpoint := fmt.Sprintf("%s/forecast?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(city), c.apiKey)

	var forecast *Forecast
	var lastErr error

	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Экспоненциальная задержка между попытками
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		forecast, lastErr = c.doRequest(ctx, endpoint)
		if lastErr == nil {
			return forecast, nil
		}

		// Неизвестный город повторять бессмысленно
		if !isRetryable(lastErr) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("%w: forecast failed after %d attempts: %v",
		domain.ErrWeatherUnavailable, maxRetries, lastErr)
}

// doRequest выполняет HTTP запрос и обрабатывает ответ
func (c *httpClient) doRequest(ctx context.Context, endpoint string) (*Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrCityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather service returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw openWeatherResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	forecast := &Forecast{
		City:    raw.City.Name,
		Country: raw.City.Country,
		Entries: make([]ForecastEntry, 0, len(raw.List)),
	}
	for _, item := range raw.List {
		entry := ForecastEntry{
			Time:    time.Unix(item.Dt, 0).UTC(),
			TempMin: item.Main.TempMin,
			TempMax: item.Main.TempMax,
		}
		if len(item.Weather) > 0 {
			entry.Description = item.Weather[0].Description
			entry.Icon = item.Weather[0].Icon
		}
		forecast.Entries = append(forecast.Entries, entry)
	}

	return forecast, nil
}

// isRetryable определяет, можно ли повторить запрос при данной ошибке
func isRetryable(err error) bool {
	return !errors.Is(err, domain.ErrCityNotFound)
}
