// Package tenantsync schedules the background replication of canonical
// geography into tenant replica stores.
package tenantsync

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	tenantmodels "gazetteer/internal/tenant/models"
	"gazetteer/internal/tenantsync/models"
	id "gazetteer/pkg/domain"
)

// Syncer runs one (tenant, country) batch.
type Syncer interface {
	SyncTenant(ctx context.Context, tenantID id.TenantID, country id.CountryCode) (*models.SyncResult, error)
}

// TenantLister supplies the tenants eligible for sync.
type TenantLister interface {
	ListActive(ctx context.Context) ([]*tenantmodels.Tenant, error)
}

// CountryLister supplies the countries with a configured hierarchy.
type CountryLister interface {
	Countries(ctx context.Context) ([]id.CountryCode, error)
}

// Worker ticks on a fixed interval and fans sync runs out across
// (tenant, country) pairs. Pairs run in parallel; units within a pair are
// strictly sequential so parent rows always land before children.
type Worker struct {
	syncer    Syncer
	tenants   TenantLister
	countries CountryLister
	interval  time.Duration
	parallel  int
	logger    *slog.Logger
}

type WorkerOption func(w *Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithParallelism bounds concurrent (tenant, country) runs. Defaults to 4.
func WithParallelism(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.parallel = n
		}
	}
}

func NewWorker(syncer Syncer, tenants TenantLister, countries CountryLister, interval time.Duration, opts ...WorkerOption) *Worker {
	w := &Worker{
		syncer:    syncer,
		tenants:   tenants,
		countries: countries,
		interval:  interval,
		parallel:  4,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled, executing one full sweep per interval.
// The first sweep starts after one interval so startup traffic settles first.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep syncs every active tenant against every configured country once.
// Individual run failures are logged and do not abort the sweep.
func (w *Worker) Sweep(ctx context.Context) {
	tenants, err := w.tenants.ListActive(ctx)
	if err != nil {
		w.logError(ctx, "sync sweep: list tenants", err)
		return
	}
	countries, err := w.countries.Countries(ctx)
	if err != nil {
		w.logError(ctx, "sync sweep: list countries", err)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.parallel)
	for _, tenant := range tenants {
		for _, country := range countries {
			tenantID, country := tenant.ID, country
			g.Go(func() error {
				if _, err := w.syncer.SyncTenant(ctx, tenantID, country); err != nil {
					w.logError(ctx, "sync run failed", err,
						"tenant_id", tenantID, "country", country)
				}
				// Run failures never cancel sibling runs.
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (w *Worker) logError(ctx context.Context, msg string, err error, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.ErrorContext(ctx, msg, append([]any{"error", err}, args...)...)
}
