package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gazetteer/internal/geo/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

// Schema is the DDL for the canonical geography tables. Applied by ops
// tooling in production and by EnsureSchema in integration tests.
const Schema = `
CREATE SEQUENCE IF NOT EXISTS geo_unit_id_seq;

CREATE TABLE IF NOT EXISTS geo_units (
    id           BIGINT PRIMARY KEY,
    country_code TEXT NOT NULL,
    ordinal      INT NOT NULL,
    name         TEXT NOT NULL,
    names        JSONB NOT NULL DEFAULT '{}',
    parent_id    BIGINT REFERENCES geo_units(id),
    path         TEXT NOT NULL,
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS geo_units_level_idx ON geo_units (country_code, ordinal, parent_id) WHERE active;
CREATE INDEX IF NOT EXISTS geo_units_updated_idx ON geo_units (country_code, updated_at);

CREATE TABLE IF NOT EXISTS geo_descriptors (
    country_code TEXT PRIMARY KEY,
    levels       JSONB NOT NULL
);
`

// PostgresUnitStore is the production canonical unit store.
type PostgresUnitStore struct {
	db *sql.DB
}

func NewPostgresUnitStore(db *sql.DB) *PostgresUnitStore {
	return &PostgresUnitStore{db: db}
}

// EnsureSchema applies the DDL. Intended for tests and first boot of small
// deployments.
func (s *PostgresUnitStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure geo schema: %w", err)
	}
	return nil
}

func (s *PostgresUnitStore) NextID(ctx context.Context) (id.UnitID, error) {
	var next int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('geo_unit_id_seq')`).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocate unit id: %w", err)
	}
	return id.UnitID(next), nil
}

const unitColumns = `id, country_code, ordinal, name, names, parent_id, path, active, created_at, updated_at`

func (s *PostgresUnitStore) Create(ctx context.Context, unit *models.AdministrativeUnit) error {
	names, err := json.Marshal(unit.Names)
	if err != nil {
		return fmt.Errorf("marshal unit names: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO geo_units (`+unitColumns+`)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		int64(unit.ID), unit.CountryCode.String(), unit.Ordinal, unit.Name, names,
		int64(unit.ParentID), unit.Path.String(), unit.Active, unit.CreatedAt, unit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert unit %d: %w", unit.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresUnitStore) FindByID(ctx context.Context, unitID id.UnitID) (*models.AdministrativeUnit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM geo_units WHERE id = $1`, int64(unitID))
	return scanUnit(row)
}

func (s *PostgresUnitStore) IsChildOf(ctx context.Context, childID, parentID id.UnitID) (bool, error) {
	var actualParent sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT parent_id FROM geo_units WHERE id = $1`, int64(childID)).Scan(&actualParent)
	if errors.Is(err, sql.ErrNoRows) {
		return false, sentinel.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("find parent of %d: %w", childID, err)
	}
	return actualParent.Valid && id.UnitID(actualParent.Int64) == parentID, nil
}

func (s *PostgresUnitStore) FindChildren(ctx context.Context, parentID id.UnitID) ([]*models.AdministrativeUnit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+unitColumns+` FROM geo_units
		WHERE parent_id = $1
		ORDER BY ordinal, id`, int64(parentID))
	if err != nil {
		return nil, fmt.Errorf("find children of %d: %w", parentID, err)
	}
	return scanUnits(rows)
}

func (s *PostgresUnitStore) FindUnitsAtLevel(ctx context.Context, country id.CountryCode, ordinal int, parentID id.UnitID) ([]*models.AdministrativeUnit, error) {
	query := `
		SELECT ` + unitColumns + ` FROM geo_units
		WHERE country_code = $1 AND ordinal = $2 AND active`
	args := []any{country.String(), ordinal}
	if parentID.IsValid() {
		query += ` AND parent_id = $3`
		args = append(args, int64(parentID))
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find units at level %d for %s: %w", ordinal, country, err)
	}
	return scanUnits(rows)
}

func (s *PostgresUnitStore) ListActive(ctx context.Context, country id.CountryCode, changedSince time.Time) ([]*models.AdministrativeUnit, error) {
	query := `
		SELECT ` + unitColumns + ` FROM geo_units
		WHERE country_code = $1 AND active`
	args := []any{country.String()}
	if !changedSince.IsZero() {
		query += ` AND updated_at >= $2`
		args = append(args, changedSince)
	}
	query += ` ORDER BY ordinal, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active units for %s: %w", country, err)
	}
	return scanUnits(rows)
}

// Execute implements atomic validate-then-mutate with SELECT ... FOR UPDATE.
func (s *PostgresUnitStore) Execute(ctx context.Context, unitID id.UnitID, validate func(*models.AdministrativeUnit) error, mutate func(*models.AdministrativeUnit)) (*models.AdministrativeUnit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin unit update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM geo_units WHERE id = $1 FOR UPDATE`, int64(unitID))
	unit, err := scanUnit(row)
	if err != nil {
		return nil, err
	}
	if err := validate(unit); err != nil {
		return nil, err
	}
	mutate(unit)

	names, err := json.Marshal(unit.Names)
	if err != nil {
		return nil, fmt.Errorf("marshal unit names: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE geo_units
		SET name = $2, names = $3, active = $4, updated_at = $5
		WHERE id = $1`,
		int64(unit.ID), unit.Name, names, unit.Active, unit.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update unit %d: %w", unit.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit unit update: %w", err)
	}
	return unit, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*models.AdministrativeUnit, error) {
	var (
		unit     models.AdministrativeUnit
		unitID   int64
		country  string
		names    []byte
		parentID sql.NullInt64
		rawPath  string
	)
	err := row.Scan(&unitID, &country, &unit.Ordinal, &unit.Name, &names, &parentID, &rawPath, &unit.Active, &unit.CreatedAt, &unit.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan unit: %w", err)
	}
	unit.ID = id.UnitID(unitID)
	unit.CountryCode = id.CountryCode(country)
	if parentID.Valid {
		unit.ParentID = id.UnitID(parentID.Int64)
	}
	path, err := id.ParseGeoPath(rawPath)
	if err != nil {
		return nil, fmt.Errorf("stored path for unit %d is corrupt: %w", unitID, err)
	}
	unit.Path = path
	if len(names) > 0 {
		if err := json.Unmarshal(names, &unit.Names); err != nil {
			return nil, fmt.Errorf("unmarshal names for unit %d: %w", unitID, err)
		}
	}
	return &unit, nil
}

func scanUnits(rows *sql.Rows) ([]*models.AdministrativeUnit, error) {
	defer rows.Close()
	var out []*models.AdministrativeUnit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, unit)
	}
	return out, rows.Err()
}

// PostgresDescriptorStore persists hierarchy descriptors.
type PostgresDescriptorStore struct {
	db *sql.DB
}

func NewPostgresDescriptorStore(db *sql.DB) *PostgresDescriptorStore {
	return &PostgresDescriptorStore{db: db}
}

func (s *PostgresDescriptorStore) Get(ctx context.Context, country id.CountryCode) (*models.HierarchyDescriptor, error) {
	var levels []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT levels FROM geo_descriptors WHERE country_code = $1`, country.String()).Scan(&levels)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find descriptor for %s: %w", country, err)
	}
	var parsed []models.LevelDescriptor
	if err := json.Unmarshal(levels, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor for %s: %w", country, err)
	}
	return models.NewHierarchyDescriptor(country, parsed)
}

func (s *PostgresDescriptorStore) Put(ctx context.Context, descriptor *models.HierarchyDescriptor) error {
	levels, err := json.Marshal(descriptor.Levels)
	if err != nil {
		return fmt.Errorf("marshal descriptor levels: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO geo_descriptors (country_code, levels)
		VALUES ($1, $2)
		ON CONFLICT (country_code) DO UPDATE SET levels = EXCLUDED.levels`,
		descriptor.CountryCode.String(), levels,
	)
	if err != nil {
		return fmt.Errorf("save descriptor for %s: %w", descriptor.CountryCode, err)
	}
	return nil
}

func (s *PostgresDescriptorStore) Countries(ctx context.Context) ([]id.CountryCode, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT country_code FROM geo_descriptors ORDER BY country_code`)
	if err != nil {
		return nil, fmt.Errorf("list descriptor countries: %w", err)
	}
	defer rows.Close()
	var out []id.CountryCode
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, id.CountryCode(code))
	}
	return out, rows.Err()
}
