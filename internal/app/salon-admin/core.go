package salonadmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/salon-admin/internal/adminapi"
	"github.com/magabrotheeeer/salon-admin/internal/branch"
	"github.com/magabrotheeeer/salon-admin/internal/config"
	"github.com/magabrotheeeer/salon-admin/internal/events"
	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/lib/sl"
	"github.com/magabrotheeeer/salon-admin/internal/services/auth"
	"github.com/magabrotheeeer/salon-admin/internal/services/catalog"
	"github.com/magabrotheeeer/salon-admin/internal/services/dashboard"
	"github.com/magabrotheeeer/salon-admin/internal/services/roster"
	"github.com/magabrotheeeer/salon-admin/internal/session"
	"github.com/magabrotheeeer/salon-admin/internal/storage/kv"
)

// Core — собранное ядро панели: сессия, филиалы, шлюз к API и сервисы.
// Используется и HTTP-сервером, и CLI.
type Core struct {
	Session   *session.Service
	Branches  *branch.Context
	Gateway   *gateway.Client
	API       *adminapi.Client
	Auth      *auth.Service
	Catalog   *catalog.Catalog
	Roster    *roster.Roster
	Dashboard *dashboard.Service

	log     *slog.Logger
	closers []func() error
}

// CoreOptions задаёт зависимости окружения.
type CoreOptions struct {
	// Registerer для метрик шлюза; при nil метрики не регистрируются.
	Registerer prometheus.Registerer
	// OnSessionExpired вызывается после выхода по критичному 401.
	OnSessionExpired func()
	// Storage заменяет хранилище из конфига, например в тестах.
	Storage kv.Storage
}

// NewCore собирает ядро по конфигу и восстанавливает сохранённые филиалы.
func NewCore(ctx context.Context, cfg *config.Config, log *slog.Logger, opts CoreOptions) (*Core, error) {
	const op = "salonadmin.NewCore"
	log = sl.OrDiscard(log)
	c := &Core{log: log}

	storage := opts.Storage
	if storage == nil {
		var err error
		storage, err = kv.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if closer, ok := storage.(io.Closer); ok {
			c.closers = append(c.closers, closer.Close)
		}
	}

	publisher, closePublisher, err := events.Open(cfg.RabbitMQ, log)
	if err != nil {
		// события не обязательны для работы панели
		log.Warn("event publishing disabled", sl.Op(op), sl.Err(err))
		publisher, closePublisher = events.Noop{}, func() error { return nil }
	}
	c.closers = append(c.closers, closePublisher)

	store := session.NewStore(storage, log)
	c.Session = session.NewService(store, log)

	c.Gateway = gateway.New(gateway.Options{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.Burst,
		Metrics:        gateway.NewMetrics(opts.Registerer),
		Log:            log,
		Policy: &gateway.UnauthorizedPolicy{
			CriticalPrefixes: cfg.CriticalPrefixes,
			Exempt:           cfg.CriticalExempt,
			Session:          c.Session,
			RedirectToLogin:  opts.OnSessionExpired,
			Log:              log,
		},
	})
	c.API = adminapi.New(c.Gateway)
	c.Branches = branch.New(store, c.API, log)

	c.Gateway.Use(
		gateway.APIToken(cfg.APITokenHeader, cfg.APIToken),
		gateway.Bearer(c.Session),
		gateway.BranchScope(c.Branches),
	)

	c.Auth = auth.NewService(c.API, c.Session, c.Branches, log)
	c.Catalog = catalog.New(c.API, publisher, log)
	c.Roster = roster.New(c.API, publisher, log)
	c.Dashboard = dashboard.NewService(c.API, log)

	c.Session.OnLogout(func() {
		c.Branches.Reset()
		c.Catalog.Reset()
		c.Roster.Reset()
	})

	c.Branches.Init(ctx)
	return c, nil
}

// Watch перезагружает зависящие от филиала данные один раз на каждую смену
// филиала. Подписка появляется до возврата; обработка идёт в фоне до отмены ctx.
func (c *Core) Watch(ctx context.Context) <-chan struct{} {
	const op = "salonadmin.Core.Watch"
	return c.Branches.Start(ctx, func(ctx context.Context, ch branch.Change) {
		c.log.Info("branch changed, reloading views", sl.Op(op),
			slog.String("branch_id", ch.Branch.ID.String()), slog.Int("change_key", ch.Key))
		c.Roster.Reset()
		c.Catalog.Reset()
		if !c.Session.IsAuthenticated(ctx) {
			return
		}
		if err := c.Catalog.Load(ctx); err != nil && !errors.Is(err, catalog.ErrStale) {
			c.log.Warn("failed to reload memberships", sl.Op(op), sl.Err(err))
		}
	})
}

// Close освобождает хранилище и соединение с брокером.
func (c *Core) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
