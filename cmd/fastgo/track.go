package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/fastgo-client/internal/broker"
	"github.com/mmeshcher/fastgo-client/internal/handler"
	"github.com/mmeshcher/fastgo-client/internal/middleware"
	"github.com/mmeshcher/fastgo-client/internal/session"
	"github.com/mmeshcher/fastgo-client/internal/tracker"
)

const clientPrefix = "app_user"

func (a *app) brokerOptions(view string) broker.Options {
	user, _ := a.session.User()
	return broker.Options{
		URL:          a.cfg.BrokerURL,
		View:         view,
		ClientPrefix: clientPrefix,
		UserID:       user.ID,
	}
}

// dialDetail открывает отдельное соединение для карточки заказа.
func (a *app) dialDetail(h broker.MessageHandler) tracker.Conn {
	conn := broker.NewClient(a.brokerOptions("detail"), h, a.logger)
	conn.Start()
	return conn
}

// track отслеживает заказы и обслуживает локальный API до сигнала завершения.
func (a *app) track(ctx context.Context) error {
	user, ok := a.session.User()
	if !ok {
		return fmt.Errorf("%w: run the login command first", session.ErrNoSession)
	}
	sugar := a.logger.Sugar()

	conn := broker.NewClient(a.brokerOptions("orders"), a.orders.Enqueue, a.logger)
	a.orders.Bind(conn)
	conn.Start()
	defer conn.Close()

	auth := middleware.NewAuthMiddleware(a.session)
	h := handler.NewHandler(a.svc, a.orders, a.detail, a.logger, auth)

	server := &http.Server{
		Addr:    a.cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.orders.Run(ctx)
		return nil
	})

	g.Go(func() error {
		a.detail.Run(ctx)
		return nil
	})

	if a.telegram != nil {
		g.Go(func() error {
			a.telegram.Run(ctx)
			return nil
		})
	}

	// Запуск фонового обновления списка заказов
	g.Go(func() error {
		a.svc.StartOrderUpdates(ctx, a.cfg.PollInterval)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting local API", "addr", a.cfg.RunAddress, "user", user.ID)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		a.logger.Info("local API stopped", zap.String("addr", a.cfg.RunAddress))
		return nil
	})

	return g.Wait()
}
