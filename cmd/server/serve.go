package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portalgate/internal/backend"
	"portalgate/internal/gate"
	jwttoken "portalgate/internal/jwt_token"
	"portalgate/internal/logout"
	"portalgate/internal/notify"
	"portalgate/internal/platform/config"
	"portalgate/internal/platform/httpserver"
	"portalgate/internal/platform/logger"
	"portalgate/internal/platform/metrics"
	"portalgate/internal/platform/postgres"
	redisclient "portalgate/internal/platform/redis"
	"portalgate/internal/portal"
	"portalgate/internal/profile"
	"portalgate/internal/session/models"
	"portalgate/internal/session/service"
	"portalgate/internal/session/store/metadata"
	"portalgate/internal/session/store/namespace"
	"portalgate/internal/session/validity"
	httptransport "portalgate/internal/transport/http"
	id "portalgate/pkg/domain"
)

const shutdownTimeout = 10 * time.Second

// metadataStore is what the service, the validity checker, the forced
// logout and the sweeper need from SessionMetadata storage.
type metadataStore interface {
	service.MetadataStore
	Find(ctx context.Context, subjectID id.SubjectID) (*models.Metadata, error)
	List(ctx context.Context) ([]*models.Metadata, error)
}

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server and the idle sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML config file; environment values override it")
	return cmd
}

// run wires every dependency and blocks until ctx ends or a component fails.
func run(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.Log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var probes []httptransport.Option
	if rc != nil {
		defer rc.Close()
		probes = append(probes, httptransport.WithProbe("redis", rc.Ready))
	} else {
		log.Warn("no REDIS_URL configured, durable namespaces are kept in memory")
	}
	mux, err := buildNamespaceStores(rc)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	var (
		metaStore metadataStore
		profiles  gate.ProfileSource
	)
	if db != nil {
		defer db.Close()
		probes = append(probes, httptransport.WithProbe("postgres", db.PingContext))
		if err := migrate(ctx, db, cfg.Postgres, log); err != nil {
			return err
		}
		metaStore = metadata.NewPostgres(db)
		profiles = profile.NewPostgres(db)
	} else {
		log.Warn("no DATABASE_URL configured, session metadata and profiles are kept in memory")
		metaStore = metadata.NewInMemory()
		profiles = profile.NewInMemory()
	}

	be, err := backend.New(cfg.Backend.URL, cfg.Backend.PublicKey, backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}
	handles, err := jwttoken.NewHandleService(cfg.Server.HandleSigningKey, cfg.Server.Issuer)
	if err != nil {
		return fmt.Errorf("handle service: %w", err)
	}
	sessions, err := service.New(mux, metaStore, be, handles,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithUserTypes(profiles),
		service.WithRefreshMargin(cfg.Session.RefreshMargin),
	)
	if err != nil {
		return err
	}
	checker, err := validity.New(metaStore,
		validity.WithInactivityTimeout(cfg.Session.InactivityTimeout),
		validity.WithAbsoluteTimeout(cfg.Session.AbsoluteTimeout),
	)
	if err != nil {
		return err
	}

	hub := notify.NewHub(notify.WithHubMetrics(m))
	sinks := []notify.Notifier{notify.NewLogNotifier(log), hub}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, notify.WithKafkaLogger(log))
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure notification topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		sinks = append(sinks, publisher)
	}
	notifier := notify.NewFanout(m, sinks...)

	pipeline, err := logout.New(sessions, metaStore, notifier,
		logout.WithLogger(log),
		logout.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	sweeper, err := logout.NewSweeper(metaStore, checker, pipeline,
		logout.WithInterval(cfg.Session.SweepInterval),
		logout.WithConcurrency(cfg.Session.SweepConcurrency),
		logout.WithSweeperLogger(log),
		logout.WithSweeperMetrics(m),
	)
	if err != nil {
		return err
	}

	mounter, err := gate.NewMounter(sessions, profiles, checker, pipeline,
		gate.WithLogger(log),
		gate.WithMetrics(m),
		gate.WithWatchdog(cfg.Session.AccessCheckTimeout),
	)
	if err != nil {
		return err
	}
	opts := append([]httptransport.Option{
		httptransport.WithSecureCookies(cfg.Server.SecureCookies),
		httptransport.WithRecheckInterval(cfg.Session.RecheckInterval),
	}, probes...)
	handler := httptransport.New(sessions, mounter, gate.DefaultRequirements(), hub, log, opts...)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler, reg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("starting portalgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// Hijacked websocket connections are not tracked by Shutdown.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		mounter.Drain()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// buildNamespaceStores gives every Durable namespace a Redis store when
// Redis is configured. Ephemeral namespaces always stay in process memory.
func buildNamespaceStores(rc *redisclient.Client) (*service.Multiplexer, error) {
	var stores []service.NamespaceStore
	for _, ns := range portal.All() {
		if ns.Medium == portal.Durable && rc != nil {
			stores = append(stores, namespace.NewRedis(rc.Client, ns))
			continue
		}
		stores = append(stores, namespace.New(ns))
	}
	return service.NewMultiplexer(stores...)
}

func migrate(ctx context.Context, db *sql.DB, cfg config.PostgresConfig, log *slog.Logger) error {
	if !cfg.Migrate {
		return nil
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info("database schema applied")
	return nil
}
