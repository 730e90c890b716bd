package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"billing-service/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TariffService fronts the tariff repository with a Redis cache. Tariff
// tables change rarely and are read on every calculation, so a short TTL
// keeps the hot path off Postgres. Redis being down never fails a
// calculation: every cache error falls through to the repository.
type TariffService struct {
	repo  TariffProvider
	cache *redis.Client
	ttl   time.Duration
}

// NewTariffService builds the caching provider. cache may be nil, in which
// case every call is a passthrough.
func NewTariffService(repo TariffProvider, cache *redis.Client, ttl time.Duration) *TariffService {
	return &TariffService{repo: repo, cache: cache, ttl: ttl}
}

func (s *TariffService) GetSlabsValidOn(categoryID uuid.UUID, date time.Time) ([]models.TariffSlab, error) {
	key := fmt.Sprintf("billing:slabs:%s:%s", categoryID, date.Format("2006-01-02"))

	var cached []models.TariffSlab
	if s.lookup(key, &cached) {
		return cached, nil
	}

	slabs, err := s.repo.GetSlabsValidOn(categoryID, date)
	if err != nil {
		return nil, err
	}
	s.store(key, slabs)
	return slabs, nil
}

func (s *TariffService) GetTaxConfigsActiveOn(date time.Time) ([]models.TaxConfig, error) {
	key := fmt.Sprintf("billing:taxes:%s", date.Format("2006-01-02"))

	var cached []models.TaxConfig
	if s.lookup(key, &cached) {
		return cached, nil
	}

	configs, err := s.repo.GetTaxConfigsActiveOn(date)
	if err != nil {
		return nil, err
	}
	s.store(key, configs)
	return configs, nil
}

// GetActiveTaxConfigByName is uncached: it only runs at persist time and
// must see the freshest config.
func (s *TariffService) GetActiveTaxConfigByName(name string, date time.Time) (*models.TaxConfig, error) {
	return s.repo.GetActiveTaxConfigByName(name, date)
}

func (s *TariffService) lookup(key string, target any) bool {
	if s.cache == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("tariff cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		slog.Warn("tariff cache entry corrupt, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

func (s *TariffService) store(key string, value any) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("failed to marshal tariff cache entry", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		slog.Warn("tariff cache write failed", "key", key, "error", err)
	}
}
