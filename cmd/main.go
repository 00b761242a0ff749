package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go-notification-hub/internal/application/facade"
	"go-notification-hub/internal/config"
	"go-notification-hub/internal/domain/event"
	"go-notification-hub/internal/infrastructure/hub"
	"go-notification-hub/internal/infrastructure/logger"
	"go-notification-hub/internal/infrastructure/server"
)

const roomCheckInterval = 500 * time.Millisecond

func main() {
	ctx := context.Background()
	sctx := WithSignal(ctx)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogrusLogger(&cfg.Logging)

	hubInstance, err := hub.Dial(cfg.Hub.Endpoint, cfg.HubOptions(), log)
	if err != nil {
		log.Errorf("failed to dial notification server: %v", err)
		os.Exit(1)
	}
	log.Infof("hub %s dialing %s", hubInstance.ID(), cfg.Hub.Endpoint)

	products := facade.NewProductFeed(log)
	products.Attach(hubInstance)
	reviews := facade.NewReviewFeeds(hubInstance, cfg.Server.MaxReviewFeeds, log)
	activity := subscribeActivityLog(hubInstance, log)

	router := InitRouter(hubInstance, products, reviews, log)
	httpSrv := server.NewHTTPServer(cfg.Server.Addr, router)

	app := newApplication(log, cfg, httpSrv, hubInstance)
	app.onShutdown(func() {
		for _, sub := range activity {
			sub.Unsubscribe()
		}
		reviews.Close()
		products.Detach()
	})

	if err := app.Run(sctx); err != nil {
		log.Errorf("failed to run application: %v", err)
		os.Exit(1)
	}
}

// subscribeActivityLog logs every catalog event as it arrives.
func subscribeActivityLog(h *hub.EventHub, log logger.Logger) []*hub.Subscription {
	activity := log.WithField("feed", "activity")
	subs := make([]*hub.Subscription, 0, len(event.Catalog()))
	for _, name := range event.Catalog() {
		subs = append(subs, h.Subscribe(name, hub.NewCallback(func(payload json.RawMessage) error {
			activity.WithFields(logger.Fields{
				"event":  string(name),
				"domain": event.Domain(name),
				"bytes":  len(payload),
			}).Debug("event received")
			return nil
		})))
	}
	return subs
}

type Application struct {
	logger   logger.Logger
	cfg      *config.Config
	httpSrv  server.Server
	hub      *hub.EventHub
	cleanups []func()
}

func newApplication(
	logger logger.Logger,
	cfg *config.Config,
	httpSrv *server.HTTPServer,
	hubInstance *hub.EventHub,
) *Application {
	return &Application{
		logger:  logger.WithField("app", "notify"),
		cfg:     cfg,
		httpSrv: httpSrv,
		hub:     hubInstance,
	}
}

func (app *Application) onShutdown(fn func()) {
	app.cleanups = append(app.cleanups, fn)
}

func (app *Application) Run(ctx context.Context) error {
	eg := errgroup.Group{}

	eg.Go(func() error {
		return app.httpSrv.Start(ctx)
	})

	eg.Go(func() error {
		keepRooms(ctx, app.hub, app.cfg.Hub.Rooms, roomCheckInterval, app.logger)
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()

		gracefulshutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			app.cfg.Server.ShutdownTimeout,
		)
		defer cancel()

		for _, fn := range app.cleanups {
			fn()
		}
		// Tear the hub down before the HTTP server so open streams end
		app.hub.Teardown()

		return app.httpSrv.Stop(gracefulshutdownCtx)
	})

	err := eg.Wait()
	if err != nil {
		return err
	}

	return nil
}

func WithSignal(pctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(pctx)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

		<-sigc

		cancel()
	}()

	return ctx
}
