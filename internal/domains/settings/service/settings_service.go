package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/settings"
	"roastery-backend/pkg/cache"
)

const (
	maintenanceCacheKey = "settings:maintenance_mode"
	maintenanceCacheTTL = 30 * time.Second
)

// settingsService: store là nguồn sự thật, redis chỉ để giảm tải cho middleware
type settingsService struct {
	repo  settings.Repository
	cache cache.Cache
}

func NewSettingsService(repo settings.Repository, c cache.Cache) settings.Service {
	return &settingsService{repo: repo, cache: c}
}

// MaintenanceMode đọc qua cache 30s; cache lỗi thì đọc thẳng store
func (s *settingsService) MaintenanceMode(ctx context.Context) (bool, error) {
	if s.cache != nil {
		var on bool
		found, err := s.cache.Get(ctx, maintenanceCacheKey, &on)
		if err != nil {
			log.Warn().Err(err).Msg("maintenance cache read failed")
		} else if found {
			return on, nil
		}
	}

	status, err := s.MaintenanceStatus(ctx)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, maintenanceCacheKey, status.Enabled, maintenanceCacheTTL); err != nil {
			log.Warn().Err(err).Msg("maintenance cache write failed")
		}
	}
	return status.Enabled, nil
}

// MaintenanceStatus luôn đọc store. Chưa có row = tắt.
func (s *settingsService) MaintenanceStatus(ctx context.Context) (*settings.MaintenanceStatus, error) {
	setting, err := s.repo.Get(ctx, settings.KeyMaintenanceMode)
	if err != nil {
		if errors.Is(err, settings.ErrSettingNotFound) {
			return &settings.MaintenanceStatus{}, nil
		}
		return nil, err
	}

	var on bool
	if err := json.Unmarshal(setting.Value, &on); err != nil {
		return nil, fmt.Errorf("decode %s: %w", settings.KeyMaintenanceMode, err)
	}
	return &settings.MaintenanceStatus{
		Enabled:   on,
		UpdatedBy: setting.UpdatedBy,
		UpdatedAt: setting.UpdatedAt,
	}, nil
}

func (s *settingsService) SetMaintenanceMode(ctx context.Context, on bool, actor uuid.UUID) (*settings.MaintenanceStatus, error) {
	raw, _ := json.Marshal(on)

	setting, err := s.repo.Upsert(ctx, settings.KeyMaintenanceMode, raw, &actor)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, maintenanceCacheKey); err != nil {
			log.Warn().Err(err).Msg("maintenance cache invalidation failed")
		}
	}

	log.Info().Bool("enabled", on).Str("actor_id", actor.String()).Msg("maintenance mode updated")
	return &settings.MaintenanceStatus{
		Enabled:   on,
		UpdatedBy: setting.UpdatedBy,
		UpdatedAt: setting.UpdatedAt,
	}, nil
}
