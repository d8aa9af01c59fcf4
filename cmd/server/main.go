// Command server runs the gazetteer API: canonical geography, fuzzy name
// matching, candidate review, and tenant replica sync.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"

	"gazetteer/internal/audit"
	candidatemetrics "gazetteer/internal/candidate/metrics"
	candidateservice "gazetteer/internal/candidate/service"
	candidatestore "gazetteer/internal/candidate/store"
	"gazetteer/internal/geo/cache"
	geometrics "gazetteer/internal/geo/metrics"
	geoservice "gazetteer/internal/geo/service"
	geostore "gazetteer/internal/geo/store"
	"gazetteer/internal/match"
	"gazetteer/internal/platform/config"
	"gazetteer/internal/platform/httpserver"
	"gazetteer/internal/platform/logger"
	platformmetrics "gazetteer/internal/platform/metrics"
	platformredis "gazetteer/internal/platform/redis"
	tenantservice "gazetteer/internal/tenant/service"
	tenantstore "gazetteer/internal/tenant/store"
	"gazetteer/internal/tenantsync"
	syncmetrics "gazetteer/internal/tenantsync/metrics"
	syncservice "gazetteer/internal/tenantsync/service"
	syncstore "gazetteer/internal/tenantsync/store"
	httptransport "gazetteer/internal/transport/http"
	"gazetteer/pkg/platform/tracing"
)

func main() {
	cfg := config.Load()
	log := logger.New()
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing.SetTracer(otel.Tracer("gazetteer"))

	stores, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	pathCache, err := buildPathCache(cfg, log)
	if err != nil {
		return err
	}

	inbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), inbox)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	publisher := audit.NewChannelPublisher(inbox)

	geo := geoservice.New(stores.units, stores.descriptors, pathCache,
		geoservice.WithLogger(log),
		geoservice.WithAuditPublisher(publisher),
		geoservice.WithMetrics(geometrics.New()),
	)
	matcher := match.NewEngine(stores.units, match.WithLogger(log))
	candidates := candidateservice.New(stores.candidates, matcher, geo,
		candidateservice.WithLogger(log),
		candidateservice.WithAuditPublisher(publisher),
		candidateservice.WithMetrics(candidatemetrics.New()),
	)
	tenants := tenantservice.New(stores.tenants,
		tenantservice.WithLogger(log),
		tenantservice.WithDefaultCustomUnitQuota(cfg.MaxCustomLevels),
	)
	sync := syncservice.New(stores.replicas, stores.cursors, stores.units, stores.descriptors, tenants,
		syncservice.WithLogger(log),
		syncservice.WithAuditPublisher(publisher),
		syncservice.WithMetrics(syncmetrics.New()),
	)

	syncWorker := tenantsync.NewWorker(sync, tenants, stores.descriptors, cfg.SyncInterval,
		tenantsync.WithWorkerLogger(log))
	go syncWorker.Run(ctx)

	handler := httptransport.NewHandler(geo, matcher, candidates, tenants, sync, log)
	router := httptransport.NewRouter(handler, cfg.AdminToken, platformmetrics.New())
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

type storeSet struct {
	units       geostore.UnitStore
	descriptors geostore.DescriptorStore
	candidates  candidatestore.CandidateStore
	tenants     tenantstore.TenantStore
	replicas    syncstore.ReplicaStore
	cursors     syncstore.CursorStore

	db *sql.DB
}

func (s *storeSet) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// buildStores wires postgres-backed stores when a DSN is configured and
// in-process stores otherwise.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*storeSet, error) {
	if cfg.Postgres.DSN == "" {
		log.Warn("no postgres DSN configured, using in-memory stores")
		return &storeSet{
			units:       geostore.NewInMemoryUnitStore(),
			descriptors: geostore.NewInMemoryDescriptorStore(),
			candidates:  candidatestore.NewInMemoryCandidateStore(),
			tenants:     tenantstore.NewInMemoryTenantStore(),
			replicas:    syncstore.NewInMemoryReplicaStore(),
			cursors:     syncstore.NewInMemoryCursorStore(),
		}, nil
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	units := geostore.NewPostgresUnitStore(db)
	candidates := candidatestore.NewPostgresCandidateStore(db)
	tenants := tenantstore.NewPostgresTenantStore(db)
	replicas := syncstore.NewPostgresReplicaStore(db)
	for _, ensure := range []func(context.Context) error{
		units.EnsureSchema, candidates.EnsureSchema, tenants.EnsureSchema, replicas.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &storeSet{
		units:       units,
		descriptors: geostore.NewPostgresDescriptorStore(db),
		candidates:  candidates,
		tenants:     tenants,
		replicas:    replicas,
		cursors:     syncstore.NewPostgresCursorStore(db),
		db:          db,
	}, nil
}

func buildPathCache(cfg config.Config, log *slog.Logger) (cache.PathCache, error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn("no redis URL configured, using in-process path cache")
		return cache.NewInMemoryPathCache(cfg.PathCacheTTL), nil
	}
	return cache.NewRedisPathCache(client.Client, cfg.PathCacheTTL), nil
}
