package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gazetteer/internal/tenant/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

const Schema = `
CREATE TABLE IF NOT EXISTS tenants (
    id           UUID PRIMARY KEY,
    name         TEXT NOT NULL,
    status       TEXT NOT NULL,
    custom_quota INT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS tenants_name_idx ON tenants (LOWER(name));
`

// PostgresTenantStore is the production tenant registry.
type PostgresTenantStore struct {
	db *sql.DB
}

func NewPostgresTenantStore(db *sql.DB) *PostgresTenantStore {
	return &PostgresTenantStore{db: db}
}

func (s *PostgresTenantStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure tenant schema: %w", err)
	}
	return nil
}

func (s *PostgresTenantStore) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, status, custom_quota, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (SELECT 1 FROM tenants WHERE LOWER(name) = LOWER($2))`,
		tenant.ID.String(), tenant.Name, string(tenant.Status), tenant.CustomUnitQuota,
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tenant %s: %w", tenant.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

const tenantColumns = `id, name, status, custom_quota, created_at, updated_at`

func (s *PostgresTenantStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID.String())
	return scanTenant(row)
}

func (s *PostgresTenantStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()
	var out []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tenant)
	}
	return out, rows.Err()
}

func (s *PostgresTenantStore) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tenant update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, tenantID.String())
	tenant, err := scanTenant(row)
	if err != nil {
		return nil, err
	}
	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)

	_, err = tx.ExecContext(ctx, `
		UPDATE tenants SET name = $2, status = $3, custom_quota = $4, updated_at = $5 WHERE id = $1`,
		tenant.ID.String(), tenant.Name, string(tenant.Status), tenant.CustomUnitQuota, tenant.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update tenant %s: %w", tenant.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tenant update: %w", err)
	}
	return tenant, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		tenant models.Tenant
		rawID  string
		status string
	)
	err := row.Scan(&rawID, &tenant.Name, &status, &tenant.CustomUnitQuota, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	tenantID, err := id.ParseTenantID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored tenant id is corrupt: %w", err)
	}
	tenant.ID = tenantID
	tenant.Status = models.Status(status)
	return &tenant, nil
}
