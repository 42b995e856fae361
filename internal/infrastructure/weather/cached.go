package weather

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/frontandrew/garage/internal/pkg/logger"
	"github.com/frontandrew/garage/internal/pkg/redis"
	redisv9 "github.com/redis/go-redis/v9"
)

const forecastCachePrefix = "weather:forecast:"

// CachedProvider добавляет Redis кэширование к поставщику прогноза.
// Прогноз обновляется редко, кэш снимает нагрузку с внешнего API и
// бережет лимит ключа.
type CachedProvider struct {
	provider Provider
	cache    *redis.Client
	ttl      time.Duration
	logger   logger.Logger
}

// NewCachedProvider создает новый кэшируемый поставщик прогноза
func NewCachedProvider(provider Provider, cache *redis.Client, ttl time.Duration, logger logger.Logger) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// GetForecast возвращает прогноз для города (с кэшированием)
func (p *CachedProvider) GetForecast(ctx context.Context, city string) (*Forecast, error) {
	cacheKey := forecastCachePrefix + strings.ToLower(strings.TrimSpace(city))

	// 1. Проверяем кэш
	cached, err := p.cache.Get(ctx, cacheKey)
	if err == nil {
		forecast := &Forecast{}
		if err := json.Unmarshal([]byte(cached), forecast); err == nil {
			return forecast, nil
		}
		// Испорченную запись выбрасываем и идем к поставщику
		_ = p.cache.Del(ctx, cacheKey)
	} else if !errors.Is(err, redisv9.Nil) {
		p.logger.Warn("Forecast cache read failed", map[string]interface{}{
			"city":  city,
			"error": err.Error(),
		})
	}

	// 2. Cache miss - идем к поставщику
	forecast, err := p.provider.GetForecast(ctx, city)
	if err != nil {
		return nil, err
	}

	// 3. Сохраняем результат в кэш (ошибка записи не критична)
	if data, err := json.Marshal(forecast); err == nil {
		_ = p.cache.Set(ctx, cacheKey, data, p.ttl)
	}

	return forecast, nil
}
