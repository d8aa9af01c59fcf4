package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"gazetteer/internal/candidate/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

const Schema = `
CREATE TABLE IF NOT EXISTS geo_candidates (
    id               UUID PRIMARY KEY,
    proposed_name    TEXT NOT NULL,
    raw_input        TEXT NOT NULL,
    country_code     TEXT NOT NULL,
    ordinal          INT NOT NULL,
    parent_id        BIGINT,
    source_tenant_id UUID NOT NULL,
    match_results    JSONB NOT NULL DEFAULT '[]',
    confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    review_status    TEXT NOT NULL,
    suggested_unit   BIGINT,
    resolved_unit    BIGINT,
    reviewed_by      UUID,
    reviewed_at      TIMESTAMPTZ,
    rejection_reason TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS geo_candidates_review_idx ON geo_candidates (country_code, review_status, created_at);
`

// PostgresCandidateStore is the production candidate store.
type PostgresCandidateStore struct {
	db *sql.DB
}

func NewPostgresCandidateStore(db *sql.DB) *PostgresCandidateStore {
	return &PostgresCandidateStore{db: db}
}

func (s *PostgresCandidateStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure candidate schema: %w", err)
	}
	return nil
}

const candidateColumns = `id, proposed_name, raw_input, country_code, ordinal, parent_id, source_tenant_id,
	match_results, confidence_score, review_status, suggested_unit, resolved_unit,
	reviewed_by, reviewed_at, rejection_reason, created_at, updated_at`

func (s *PostgresCandidateStore) Create(ctx context.Context, candidate *models.GeoCandidate) error {
	matches, err := json.Marshal(candidate.MatchResults)
	if err != nil {
		return fmt.Errorf("marshal match results: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO geo_candidates (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), $7, $8, $9, $10, NULLIF($11, 0), NULLIF($12, 0), $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING`,
		candidate.ID.String(), candidate.ProposedName, candidate.OriginalRawInput,
		candidate.CountryCode.String(), candidate.Ordinal, int64(candidate.ParentID),
		candidate.SourceTenantID.String(), matches, candidate.ConfidenceScore,
		string(candidate.ReviewStatus), int64(candidate.SuggestedUnitID), int64(candidate.ResolvedUnitID),
		nullableReviewer(candidate.ReviewedBy), candidate.ReviewedAt, candidate.RejectionReason,
		candidate.CreatedAt, candidate.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert candidate %s: %w", candidate.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresCandidateStore) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.GeoCandidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM geo_candidates WHERE id = $1`, candidateID.String())
	return scanCandidate(row)
}

func (s *PostgresCandidateStore) ListByStatus(ctx context.Context, country id.CountryCode, status models.ReviewStatus) ([]*models.GeoCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM geo_candidates WHERE country_code = $1`
	args := []any{country.String()}
	if status != "" {
		query += ` AND review_status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates for %s: %w", country, err)
	}
	defer rows.Close()
	var out []*models.GeoCandidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, candidate)
	}
	return out, rows.Err()
}

func (s *PostgresCandidateStore) Execute(ctx context.Context, candidateID id.CandidateID, validate func(*models.GeoCandidate) error, mutate func(*models.GeoCandidate)) (*models.GeoCandidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin candidate update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM geo_candidates WHERE id = $1 FOR UPDATE`, candidateID.String())
	candidate, err := scanCandidate(row)
	if err != nil {
		return nil, err
	}
	if err := validate(candidate); err != nil {
		return nil, err
	}
	mutate(candidate)

	_, err = tx.ExecContext(ctx, `
		UPDATE geo_candidates
		SET review_status = $2, suggested_unit = NULLIF($3, 0), resolved_unit = NULLIF($4, 0),
		    reviewed_by = $5, reviewed_at = $6, rejection_reason = $7, updated_at = $8
		WHERE id = $1`,
		candidate.ID.String(), string(candidate.ReviewStatus),
		int64(candidate.SuggestedUnitID), int64(candidate.ResolvedUnitID),
		nullableReviewer(candidate.ReviewedBy), candidate.ReviewedAt, candidate.RejectionReason,
		candidate.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update candidate %s: %w", candidate.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit candidate update: %w", err)
	}
	return candidate, nil
}

func nullableReviewer(reviewer id.ReviewerID) any {
	if reviewer.IsNil() {
		return nil
	}
	return reviewer.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*models.GeoCandidate, error) {
	var (
		candidate  models.GeoCandidate
		rawID      string
		country    string
		parentID   sql.NullInt64
		tenantID   string
		matches    []byte
		status     string
		suggested  sql.NullInt64
		resolved   sql.NullInt64
		reviewer   sql.NullString
		reviewedAt sql.NullTime
	)
	err := row.Scan(&rawID, &candidate.ProposedName, &candidate.OriginalRawInput, &country,
		&candidate.Ordinal, &parentID, &tenantID, &matches, &candidate.ConfidenceScore,
		&status, &suggested, &resolved, &reviewer, &reviewedAt, &candidate.RejectionReason,
		&candidate.CreatedAt, &candidate.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	candidateID, err := id.ParseCandidateID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored candidate id is corrupt: %w", err)
	}
	candidate.ID = candidateID
	candidate.CountryCode = id.CountryCode(country)
	sourceTenant, err := id.ParseTenantID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("stored tenant id is corrupt: %w", err)
	}
	candidate.SourceTenantID = sourceTenant
	candidate.ReviewStatus = models.ReviewStatus(status)
	if parentID.Valid {
		candidate.ParentID = id.UnitID(parentID.Int64)
	}
	if suggested.Valid {
		candidate.SuggestedUnitID = id.UnitID(suggested.Int64)
	}
	if resolved.Valid {
		candidate.ResolvedUnitID = id.UnitID(resolved.Int64)
	}
	if reviewer.Valid {
		reviewerID, err := id.ParseReviewerID(reviewer.String)
		if err != nil {
			return nil, fmt.Errorf("stored reviewer id is corrupt: %w", err)
		}
		candidate.ReviewedBy = reviewerID
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time.UTC()
		candidate.ReviewedAt = &at
	}
	if len(matches) > 0 {
		if err := json.Unmarshal(matches, &candidate.MatchResults); err != nil {
			return nil, fmt.Errorf("unmarshal match results: %w", err)
		}
	}
	return &candidate, nil
}
