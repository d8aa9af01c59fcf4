package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gazetteer/internal/tenantsync/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

const Schema = `
CREATE TABLE IF NOT EXISTS tenant_replica_units (
    tenant_id        UUID NOT NULL,
    id               BIGINT NOT NULL,
    country_code     TEXT NOT NULL,
    external_unit_id BIGINT,
    ordinal          INT NOT NULL,
    name             TEXT NOT NULL,
    parent_id        BIGINT,
    is_official      BOOLEAN NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (tenant_id, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS tenant_replica_external_idx
    ON tenant_replica_units (tenant_id, country_code, external_unit_id)
    WHERE is_official;

CREATE SEQUENCE IF NOT EXISTS tenant_replica_id_seq;

CREATE TABLE IF NOT EXISTS tenant_sync_cursors (
    tenant_id      UUID NOT NULL,
    country_code   TEXT NOT NULL,
    last_synced_at TIMESTAMPTZ NOT NULL,
    last_status    TEXT NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (tenant_id, country_code)
);
`

// PostgresReplicaStore is the production tenant replica store. Local ids come
// from a shared sequence; uniqueness is still scoped per tenant.
type PostgresReplicaStore struct {
	db *sql.DB
}

func NewPostgresReplicaStore(db *sql.DB) *PostgresReplicaStore {
	return &PostgresReplicaStore{db: db}
}

func (s *PostgresReplicaStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure tenant sync schema: %w", err)
	}
	return nil
}

func (s *PostgresReplicaStore) NextID(ctx context.Context, _ id.TenantID) (id.UnitID, error) {
	var next int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('tenant_replica_id_seq')`).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocate replica id: %w", err)
	}
	return id.UnitID(next), nil
}

const replicaColumns = `tenant_id, id, country_code, external_unit_id, ordinal, name, parent_id, is_official, created_at, updated_at`

func (s *PostgresReplicaStore) Create(ctx context.Context, replica *models.TenantReplicaUnit) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_replica_units (`+replicaColumns+`)
		VALUES ($1, $2, $3, NULLIF($4, 0), $5, $6, NULLIF($7, 0), $8, $9, $10)
		ON CONFLICT DO NOTHING`,
		replica.TenantID.String(), int64(replica.ID), replica.CountryCode.String(),
		int64(replica.ExternalUnitID), replica.Ordinal, replica.Name,
		int64(replica.ParentID), replica.IsOfficial, replica.CreatedAt, replica.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert replica %d for tenant %s: %w", replica.ID, replica.TenantID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresReplicaStore) FindByID(ctx context.Context, tenantID id.TenantID, localID id.UnitID) (*models.TenantReplicaUnit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+replicaColumns+` FROM tenant_replica_units
		WHERE tenant_id = $1 AND id = $2`, tenantID.String(), int64(localID))
	return scanReplica(row)
}

func (s *PostgresReplicaStore) FindByExternalID(ctx context.Context, tenantID id.TenantID, country id.CountryCode, externalID id.UnitID) (*models.TenantReplicaUnit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+replicaColumns+` FROM tenant_replica_units
		WHERE tenant_id = $1 AND country_code = $2 AND external_unit_id = $3 AND is_official`,
		tenantID.String(), country.String(), int64(externalID))
	return scanReplica(row)
}

func (s *PostgresReplicaStore) Update(ctx context.Context, replica *models.TenantReplicaUnit) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenant_replica_units
		SET ordinal = $3, name = $4, parent_id = NULLIF($5, 0), updated_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		replica.TenantID.String(), int64(replica.ID), replica.Ordinal, replica.Name,
		int64(replica.ParentID), replica.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update replica %d for tenant %s: %w", replica.ID, replica.TenantID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresReplicaStore) List(ctx context.Context, tenantID id.TenantID, country id.CountryCode) ([]*models.TenantReplicaUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+replicaColumns+` FROM tenant_replica_units
		WHERE tenant_id = $1 AND country_code = $2
		ORDER BY created_at, id`, tenantID.String(), country.String())
	if err != nil {
		return nil, fmt.Errorf("list replicas for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()
	var out []*models.TenantReplicaUnit
	for rows.Next() {
		replica, err := scanReplica(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, replica)
	}
	return out, rows.Err()
}

func (s *PostgresReplicaStore) CountCustom(ctx context.Context, tenantID id.TenantID, country id.CountryCode) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tenant_replica_units
		WHERE tenant_id = $1 AND country_code = $2 AND NOT is_official`,
		tenantID.String(), country.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count custom replicas for tenant %s: %w", tenantID, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReplica(row rowScanner) (*models.TenantReplicaUnit, error) {
	var (
		replica    models.TenantReplicaUnit
		rawTenant  string
		localID    int64
		country    string
		externalID sql.NullInt64
		parentID   sql.NullInt64
	)
	err := row.Scan(&rawTenant, &localID, &country, &externalID, &replica.Ordinal,
		&replica.Name, &parentID, &replica.IsOfficial, &replica.CreatedAt, &replica.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan replica: %w", err)
	}
	tenantID, err := id.ParseTenantID(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("stored tenant id is corrupt: %w", err)
	}
	replica.TenantID = tenantID
	replica.ID = id.UnitID(localID)
	replica.CountryCode = id.CountryCode(country)
	if externalID.Valid {
		replica.ExternalUnitID = id.UnitID(externalID.Int64)
	}
	if parentID.Valid {
		replica.ParentID = id.UnitID(parentID.Int64)
	}
	return &replica, nil
}

// PostgresCursorStore persists sync cursors.
type PostgresCursorStore struct {
	db *sql.DB
}

func NewPostgresCursorStore(db *sql.DB) *PostgresCursorStore {
	return &PostgresCursorStore{db: db}
}

func (s *PostgresCursorStore) Get(ctx context.Context, tenantID id.TenantID, country id.CountryCode) (*models.TenantSyncCursor, error) {
	var cursor models.TenantSyncCursor
	err := s.db.QueryRowContext(ctx, `
		SELECT last_synced_at, last_status, updated_at FROM tenant_sync_cursors
		WHERE tenant_id = $1 AND country_code = $2`,
		tenantID.String(), country.String()).Scan(&cursor.LastSyncedAt, &cursor.LastStatus, &cursor.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sync cursor: %w", err)
	}
	cursor.TenantID = tenantID
	cursor.CountryCode = country
	return &cursor, nil
}

func (s *PostgresCursorStore) Put(ctx context.Context, cursor *models.TenantSyncCursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_sync_cursors (tenant_id, country_code, last_synced_at, last_status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, country_code)
		DO UPDATE SET last_synced_at = EXCLUDED.last_synced_at,
		              last_status = EXCLUDED.last_status,
		              updated_at = EXCLUDED.updated_at`,
		cursor.TenantID.String(), cursor.CountryCode.String(), cursor.LastSyncedAt, cursor.LastStatus, cursor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save sync cursor: %w", err)
	}
	return nil
}
