package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
	id "compliance/pkg/domain"
	"compliance/pkg/platform/sentinel"
	txcontext "compliance/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists verifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) querier(ctx context.Context) txcontext.Querier {
	return txcontext.Or(ctx, s.db)
}

const uniqueViolation = "23505"

func (s *PostgresStore) Save(ctx context.Context, v *models.Verification) error {
	result, err := json.Marshal(v.Result)
	if err != nil {
		return fmt.Errorf("marshal verification result: %w", err)
	}
	var operatorID *uuid.UUID
	if !v.OperatorID.IsNil() {
		u := uuid.UUID(v.OperatorID)
		operatorID = &u
	}
	query := `
		INSERT INTO identity_verifications (
			id, subject_hash, masked_number, valid, outcome,
			result, checked_at, request_id, operator_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(v.ID),
		v.SubjectHash,
		v.MaskedNumber,
		v.Result.Valid,
		v.Outcome(),
		result,
		v.CheckedAt,
		v.RequestID,
		operatorID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

const selectColumns = `id, subject_hash, masked_number, result, checked_at, request_id, operator_id`

func (s *PostgresStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM identity_verifications WHERE id = $1`,
		uuid.UUID(verificationID),
	)
	v, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification by id: %w", err)
	}
	return v, nil
}

// ListRecent returns up to limit verifications, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.Verification, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM identity_verifications ORDER BY checked_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent verifications: %w", err)
	}
	return scanAll(rows)
}

// ListBySubject returns up to limit verifications for one subject hash, newest first.
func (s *PostgresStore) ListBySubject(ctx context.Context, subjectHash string, limit int) ([]*models.Verification, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM identity_verifications WHERE subject_hash = $1 ORDER BY checked_at DESC, id LIMIT $2`,
		subjectHash, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list verifications by subject: %w", err)
	}
	return scanAll(rows)
}

func (s *PostgresStore) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM identity_verifications GROUP BY outcome`,
	)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome counts: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*models.Verification, error) {
	var (
		verificationID uuid.UUID
		operatorID     uuid.NullUUID
		result         []byte
		checkedAt      time.Time
		v              models.Verification
	)
	if err := row.Scan(
		&verificationID,
		&v.SubjectHash,
		&v.MaskedNumber,
		&result,
		&checkedAt,
		&v.RequestID,
		&operatorID,
	); err != nil {
		return nil, err
	}
	var r saidnumber.Result
	if err := json.Unmarshal(result, &r); err != nil {
		return nil, fmt.Errorf("unmarshal verification result: %w", err)
	}
	v.ID = id.VerificationID(verificationID)
	v.Result = r
	v.CheckedAt = checkedAt.UTC()
	if operatorID.Valid {
		v.OperatorID = id.OperatorID(operatorID.UUID)
	}
	return &v, nil
}

func scanAll(rows *sql.Rows) ([]*models.Verification, error) {
	defer rows.Close()
	var out []*models.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}
