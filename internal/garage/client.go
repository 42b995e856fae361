package garage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/frontandrew/garage/internal/domain"
)

// Store - persistence collaborator: авторизованное хранилище записей гаража.
// Единственный источник истины между сессиями.
type Store interface {
	// FetchVehicles возвращает все записи аккаунта
	FetchVehicles(ctx context.Context) ([]domain.VehicleRecord, error)

	// CreateVehicle сохраняет новую запись и возвращает ее с назначенным id
	CreateVehicle(ctx context.Context, rec domain.VehicleRecord) (domain.VehicleRecord, error)

	// UpdateVehicle полностью заменяет запись
	UpdateVehicle(ctx context.Context, id string, rec domain.VehicleRecord) (domain.VehicleRecord, error)

	// DeleteVehicle удаляет запись
	DeleteVehicle(ctx context.Context, id string) error

	// ClearCredential сбрасывает учетные данные (принудительный выход)
	ClearCredential()
}

// Client - HTTP реализация Store поверх REST API гаража.
// К каждому запросу прикладывается bearer-токен; любой отказ авторизации
// трактуется одинаково, независимо от причины.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// envelope - формат ответа API: данные или одна строка ошибки
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// NewClient создает HTTP клиент persistence collaborator
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
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

// SetToken устанавливает bearer-токен после входа
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearCredential сбрасывает токен (выход или AuthExpired)
func (c *Client) ClearCredential() {
	c.SetToken("")
}

// FetchVehicles возвращает все автомобили аккаунта
func (c *Client) FetchVehicles(ctx context.Context) ([]domain.VehicleRecord, error) {
	var records []domain.VehicleRecord
	if err := c.do(ctx, http.MethodGet, "/api/v1/garage/vehicles", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateVehicle сохраняет новую запись
func (c *Client) CreateVehicle(ctx context.Context, rec domain.VehicleRecord) (domain.VehicleRecord, error) {
	var saved domain.VehicleRecord
	if err := c.do(ctx, http.MethodPost, "/api/v1/garage/vehicles", rec, &saved); err != nil {
		return domain.VehicleRecord{}, err
	}
	return saved, nil
}

// UpdateVehicle полностью заменяет запись
func (c *Client) UpdateVehicle(ctx context.Context, id string, rec domain.VehicleRecord) (domain.VehicleRecord, error) {
	var saved domain.VehicleRecord
	if err := c.do(ctx, http.MethodPut, "/api/v1/garage/vehicles/"+id, rec, &saved); err != nil {
		return domain.VehicleRecord{}, err
	}
	return saved, nil
}

// DeleteVehicle удаляет запись
func (c *Client) DeleteVehicle(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/garage/vehicles/"+id, nil, nil)
}

// do выполняет запрос и разворачивает конверт ответа.
// 401 -> ErrAuthExpired, 404 -> ErrVehicleNotFound,
// прочие не-2xx -> ErrPersistence с сообщением сервера.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", domain.ErrPersistence, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrAuthExpired
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrVehicleNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s", domain.ErrPersistence, serverMessage(respBody, resp.StatusCode))
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %v", domain.ErrPersistence, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response data: %v", domain.ErrPersistence, err)
	}
	return nil
}

// serverMessage извлекает человекочитаемое сообщение сервера
func serverMessage(body []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return fmt.Sprintf("server returned status %d", status)
}
