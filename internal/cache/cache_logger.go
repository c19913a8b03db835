package cache

import (
	"context"
	"log/slog"
)

// SafeDelete deletes keys, logging instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateSettingsCache drops the cached settings row.
func InvalidateSettingsCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Settings, SettingsKey)
}
