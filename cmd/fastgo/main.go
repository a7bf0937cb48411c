// Package main запускает клиент FastGo: команды покупателя и отслеживание заказов.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mmeshcher/fastgo-client/internal/api"
	"github.com/mmeshcher/fastgo-client/internal/config"
	"github.com/mmeshcher/fastgo-client/internal/geo"
	"github.com/mmeshcher/fastgo-client/internal/logger"
	"github.com/mmeshcher/fastgo-client/internal/notify"
	"github.com/mmeshcher/fastgo-client/internal/ordering"
	"github.com/mmeshcher/fastgo-client/internal/service"
	"github.com/mmeshcher/fastgo-client/internal/session"
	"github.com/mmeshcher/fastgo-client/internal/tracker"
)

// app связывает компоненты клиента.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	session  *session.Store
	api      *api.Client
	geocoder *geo.Geocoder
	notifier notify.Notifier
	telegram *notify.TelegramNotifier
	orders   *tracker.Tracker
	detail   *tracker.Detail
	svc      *service.Service
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Sugar().Fatalw("initialization error", "error", err.Error())
	}

	if err := a.run(ctx, cfg.Command, cfg.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	secrets, err := session.NewFileSecretStore(cfg.SessionDir, cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	store := session.NewStore(secrets, logger)
	if err := store.Restore(ctx); err != nil {
		logger.Warn("session restore failed", zap.Error(err))
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		session: store,
	}

	a.api = api.NewClient(api.Endpoints{
		Auth: cfg.AuthAPIAddress,
		Shop: cfg.ShopAPIAddress,
	}, store, logger)
	a.geocoder = geo.NewGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, logger)

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			a.telegram = tg
			notifiers = append(notifiers, tg)
		}
	}
	a.notifier = notifiers

	a.orders = tracker.New(a.notifier, logger)
	a.detail = tracker.NewDetail(a.dialDetail, a.geocoder, logger)
	a.orders.SetDetail(a.detail)

	a.svc = service.NewService(service.Options{
		API:       a.api,
		Session:   store,
		Placement: ordering.NewPlacement(a.geocoder, cfg.MaxDeliveryDistanceKm, logger),
		Orders:    a.orders,
		Detail:    a.detail,
		Logger:    logger,
		RadiusKm:  cfg.SearchRadiusKm,
	})

	return a, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout()
	case "register":
		return a.register(ctx, args)
	case "nearby":
		return a.nearby(ctx, args)
	case "menu":
		return a.menu(ctx, args)
	case "order":
		return a.order(ctx, args)
	case config.CommandTrack:
		return a.track(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
