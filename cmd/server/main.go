package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tracking/internal/api/router"
	"tracking/internal/broadcast"
	"tracking/internal/cache"
	"tracking/internal/config"
	"tracking/internal/core/repository"
	"tracking/internal/core/service"
	"tracking/internal/logging"
	"tracking/internal/protocol/server"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type stores struct {
	positions repository.PositionRepository
	events    repository.EventRepository
	devices   repository.DeviceRepository
	close     func()
}

func main() {
	logger := logging.ConfigureRuntime("gt06-gateway")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger = logger.With().Str("gateway_id", cfg.GatewayID).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("gateway stopped")
	}
	logger.Info().Msg("gateway stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	telemetry := service.NewTelemetryService(cfg.GatewayID, st.positions, st.events, st.devices, logger)

	tcp := server.NewTCPServer(server.Options{
		GatewayID:    cfg.GatewayID,
		Port:         cfg.TCPPort,
		ReadTimeout:  cfg.ReadTimeout,
		SinkTimeout:  cfg.SinkTimeout,
		QueueSize:    cfg.QueueSize,
		MaxFrameSize: cfg.MaxFrameSize,
		AckKeepalive: cfg.AckKeepalive,
	}, telemetry, logger)

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		tcp.WithPresence(cache.NewRegistry(client, cfg.GatewayID, cache.DefaultSessionTTL, logger))
		logger.Info().Msg("Redis presence registry enabled")
	} else {
		logger.Info().Msg("Redis URL not provided, presence registry disabled")
	}

	hub := broadcast.NewHub(logger)
	fanout := broadcast.Fanout{hub}

	if cfg.NATSURL != "" {
		conn, err := broadcast.ConnectNATS(cfg.NATSURL, "gt06-gateway-"+cfg.GatewayID, logger)
		if err != nil {
			return err
		}
		publisher := broadcast.NewNATSPublisher(conn, broadcast.DefaultSubjectPrefix, logger)
		defer publisher.Close()
		fanout = append(fanout, publisher)
		logger.Info().Str("subjects", broadcast.DefaultSubjectPrefix+".*").Msg("NATS publisher enabled")
	} else {
		logger.Info().Msg("NATS URL not provided, event bus disabled")
	}
	tcp.WithBroadcaster(fanout)

	if err := tcp.Listen(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr: net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
		Handler: router.NewRouter(router.Options{
			GatewayID: cfg.GatewayID,
			JWTSecret: cfg.JWTSecret,
			Telemetry: telemetry,
			Sessions:  tcp,
			LiveFeed:  http.HandlerFunc(hub.ServeWS),
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return tcp.Serve(gctx)
	})

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.Storage {
	case config.StorageMongo:
		db, err := config.ConnectMongoDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &stores{
			positions: repository.NewMongoPositionRepository(db),
			events:    repository.NewMongoEventRepository(db),
			devices:   repository.NewMongoDeviceRepository(db),
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := db.Client().Disconnect(disconnectCtx); err != nil {
					logger.Warn().Err(err).Msg("MongoDB disconnect failed")
				}
			},
		}, nil

	case config.StoragePostgres:
		db, err := config.ConnectPostgres(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := repository.MigratePostgres(db); err != nil {
			return nil, err
		}
		return &stores{
			positions: repository.NewGormPositionRepository(db),
			events:    repository.NewGormEventRepository(db),
			devices:   repository.NewGormDeviceRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage, records are lost on restart")
		return &stores{
			positions: repository.NewInMemoryPositionRepository(),
			events:    repository.NewInMemoryEventRepository(),
			devices:   repository.NewInMemoryDeviceRepository(),
			close:     func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}
}
