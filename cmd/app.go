package cmd

import (
	"errors"
	"fmt"

	"github.com/putzplan/putz/internal/analytics"
	"github.com/putzplan/putz/internal/config"
	"github.com/putzplan/putz/internal/hidden"
	"github.com/putzplan/putz/internal/logging"
	"github.com/putzplan/putz/internal/notify"
	"github.com/putzplan/putz/internal/period"
	"github.com/putzplan/putz/internal/store"
	"github.com/sirupsen/logrus"
)

// app bundles what a command needs: config, logger, the database and the
// engine components built on it.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	db      *store.DB
	kv      *store.KV
	periods *period.Store
	hidden  *hidden.Store
	cache   *analytics.Cache
}

// openApp wires the engine from config. Extra options are applied to the
// period store after the defaults.
func openApp(opts ...period.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Log)

	db, err := store.Open()
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	kv := store.NewKV(db.Conn())

	cache, err := analytics.NewCache(analytics.DefaultCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	base := []period.Option{
		period.WithLogger(log),
		period.WithNotifier(newNotifier(cfg, kv)),
		period.WithDefaultTarget(cfg.Period.DefaultTargetPoints),
	}
	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		kv:      kv,
		periods: period.NewStore(store.NewDocuments(db.Conn(), log), append(base, opts...)...),
		hidden:  hidden.NewStore(kv, log),
		cache:   cache,
	}
	a.selectDefaultHousehold()
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// newNotifier returns the relay sink when configured, deduplicated per day
// through the kv table.
func newNotifier(cfg *config.Config, kv *store.KV) notify.Notifier {
	if !cfg.Notify.IsEnabled() {
		return notify.Nop{}
	}
	hook := notify.NewWebhook(cfg.Notify.Endpoint, notify.WithHousehold(cfg.Household.Default))
	return notify.NewDaily(hook, kv)
}

// selectDefaultHousehold applies household.default when the state has no
// household selected yet.
func (a *app) selectDefaultHousehold() {
	id := a.cfg.Household.Default
	if id == "" {
		return
	}
	if _, err := a.periods.Snapshot(); !errors.Is(err, period.ErrNoHousehold) {
		return
	}
	if err := a.periods.SelectHousehold(id); err != nil {
		a.log.WithError(err).WithField("household", id).Warn("household.default not applied")
	}
}
