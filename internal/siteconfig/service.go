package siteconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

// Service owns the storewide configuration record.
type Service interface {
	Get(ctx context.Context) (models.SiteConfig, error)
	Save(ctx context.Context, cfg models.SiteConfig, actor auth.Actor) error
}

type service struct {
	records store.Store
	keys    store.Keys
	events  bus.Bus
	logg    *logger.Logger
}

// NewService builds a site-configuration service.
func NewService(records store.Store, keys store.Keys, events bus.Bus, logg *logger.Logger) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store required")
	}
	if events == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{records: records, keys: keys, events: events, logg: logg}, nil
}

// Get returns the stored configuration, falling back to the defaults
// when none has been saved yet.
func (s *service) Get(ctx context.Context) (models.SiteConfig, error) {
	var cfg models.SiteConfig
	err := s.records.Get(ctx, s.keys.Config(), &cfg)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultSiteConfig(), nil
	}
	return models.SiteConfig{}, err
}

// Save replaces the configuration record and notifies subscribers, so
// open carts re-quote totals under the new knobs.
func (s *service) Save(ctx context.Context, cfg models.SiteConfig, actor auth.Actor) error {
	if !actor.Can(auth.CapManageConfig) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "configuration management requires an admin account")
	}
	if err := models.Validate(cfg); err != nil {
		return err
	}
	if err := s.records.Set(ctx, s.keys.Config(), cfg); err != nil {
		return err
	}
	if err := s.events.Publish(ctx, bus.Event{
		Type: enums.EventConfigChanged,
		Key:  s.keys.Config(),
		At:   time.Now().UTC(),
	}); err != nil {
		s.logg.Warn(ctx, "config change notification failed")
	}
	return nil
}
