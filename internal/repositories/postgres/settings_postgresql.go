package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/munificent-school/backoffice/internal/cache"
	"github.com/munificent-school/backoffice/internal/models"
	"github.com/munificent-school/backoffice/internal/repositories"
)

// SettingsPostgreSQL stores the singleton settings row under
// models.SystemSettingsID and keeps a copy in redis.
type SettingsPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSettingsPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.SettingsRepository {
	return &SettingsPostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *SettingsPostgreSQL) Get(ctx context.Context) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.cacheManager.Settings.CacheOrExecute(ctx, cache.SettingsKey, &settings,
		cache.SettingsCacheConfig.TTL, func() (interface{}, error) {
			return r.load(ctx)
		})
	if err != nil {
		return nil, err
	}
	settings.ID = models.SystemSettingsID
	return &settings, nil
}

// load reads the row, inserting defaults first when it is missing. The
// insert ignores conflicts so concurrent first reads converge on one row.
func (r *SettingsPostgreSQL) load(ctx context.Context) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.db.WithContext(ctx).First(&settings, models.SystemSettingsID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}

	defaults := models.DefaultSystemSettings()
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&defaults).Error; err != nil {
		return nil, fmt.Errorf("failed to create system settings: %w", err)
	}

	if err := r.db.WithContext(ctx).First(&settings, models.SystemSettingsID).Error; err != nil {
		return nil, fmt.Errorf("failed to get system settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsPostgreSQL) Update(ctx context.Context, settings *models.SystemSettings) error {
	settings.ID = models.SystemSettingsID
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to update system settings: %w", err)
	}
	cache.InvalidateSettingsCache(ctx, r.cacheManager)
	return nil
}
