package siteconfig

import (
	"context"
	"errors"

	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

// SeedIfEmpty writes the default configuration when none exists yet. It
// never overwrites a saved configuration.
func SeedIfEmpty(ctx context.Context, records store.Store, keys store.Keys) error {
	var existing models.SiteConfig
	err := records.Get(ctx, keys.Config(), &existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return records.Set(ctx, keys.Config(), models.DefaultSiteConfig())
}
