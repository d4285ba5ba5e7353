package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/events"
	"github.com/dgnsrekt/incidentsync/internal/live"
	"github.com/dgnsrekt/incidentsync/internal/notify"
	"github.com/dgnsrekt/incidentsync/internal/server"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the live event channel until interrupted",
		Long: `Connect the configured live transport, deduplicate inbound events and
keep the notification list. The status server exposes state, notifications
and metrics while the channel runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context())
		},
	}
	return cmd
}

func runWatch(ctx context.Context) error {
	fetcher := newFetcher(cfg, logger.Named("api"))

	primary, fallback, err := newTransports(cfg, fetcher, logger)
	if err != nil {
		return err
	}
	channel := live.NewChannel(primary, channelOptions(cfg.Channel, fallback), logger.Named("channel"))

	dedup := events.NewDeduplicator(logger.Named("dedup"))
	sink := events.NewSink(cfg.Notifications.Capacity, logger.Named("sink"))
	pump := events.NewPump(channel.Batches(), dedup, sink, fetcher,
		data.NewQuery(cfg.Channel.EventResource, nil), logger.Named("pump"))

	store, budget, err := newCache(cfg, logger.Named("cache"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pump.Run(ctx)
	}()

	pushCfg := &cfg.Notifications.Push
	if pushCfg.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			notify.Forward(ctx, notify.New(pushCfg, logger.Named("push")), sink, channel, logger.Named("push"))
		}()
	}

	var httpServer *http.Server
	if cfg.Status.Enabled {
		relay := server.NewRelay(sink, channel, cfg.Status.Heartbeat, logger.Named("relay"))
		relay.Start(ctx)

		srv := server.NewServer(server.Deps{
			Channel:   channel,
			Dedup:     dedup,
			Sink:      sink,
			Cache:     store,
			Budget:    budget,
			Collector: collect.NewCollector(fetcher, logger.Named("collect")),
			Collect:   collectConfig(cfg.Collector),
		}, relay, logger.Named("server"))

		router, err := server.NewRouter(srv, logger.Named("http"))
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("building status router: %w", err)
		}

		httpServer = &http.Server{
			Addr:              cfg.Status.ListenAddr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// Streams end with ctx rather than holding up Shutdown.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}

		// Start server in goroutine
		go func() {
			logger.Info("starting status server", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status server error", zap.Error(err))
			}
		}()
	}

	if err := channel.Connect(ctx); err != nil {
		return err
	}
	logger.Info("watching",
		zap.String("transport", string(primary.Kind())),
		zap.Bool("fallback", fallback != nil),
	)

	<-ctx.Done()
	logger.Info("shutting down...")

	channel.Disconnect()
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown error", zap.Error(err))
		}
	}

	wg.Wait()
	logger.Info("stopped",
		zap.Int64("cursor", dedup.Cursor().LastSeenID),
		zap.Int("unseen", sink.Unseen()),
	)
	return nil
}
