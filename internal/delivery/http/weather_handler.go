package http

import (
	"errors"
	"net/http"

	"github.com/frontandrew/garage/internal/domain"
	"github.com/frontandrew/garage/internal/infrastructure/weather"
	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// WeatherHandler проксирует прогноз погоды для клиента
type WeatherHandler struct {
	provider weather.Provider
	logger   logger.Logger
}

// NewWeatherHandler создает новый handler
func NewWeatherHandler(provider weather.Provider, logger logger.Logger) *WeatherHandler {
	return &WeatherHandler{
		provider: provider,
		logger:   logger,
	}
}

// GetForecast возвращает пятидневный прогноз для города
// GET /api/v1/weather/{city}
func (h *WeatherHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if city == "" {
		respondError(w, http.StatusBadRequest, "City required")
		return
	}

	forecast, err := h.provider.GetForecast(r.Context(), city)
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			respondError(w, http.StatusNotFound, "City not found")
			return
		}
		h.logger.Error("Failed to get forecast", map[string]interface{}{
			"city":  city,
			"error": err.Error(),
		})
		respondError(w, http.StatusBadGateway, "Weather service unavailable")
		return
	}

	respondData(w, http.StatusOK, forecast)
}
