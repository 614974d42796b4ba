package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	audit "compliance/pkg/platform/audit"
	txcontext "compliance/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table inside the caller's transaction and
// published to Kafka by the outbox relay. The category tables are filled by
// the audit consumer.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) querier(ctx context.Context) txcontext.Querier {
	return txcontext.Or(ctx, s.db)
}

// OutboxEntry is one unpublished outbox row.
type OutboxEntry struct {
	ID        uuid.UUID
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	payload, err := audit.EncodePayload(eventID.String(), event)
	if err != nil {
		return err
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.SubjectIDHash != "" {
		aggregateType = "subject"
		aggregateID = event.SubjectIDHash
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.querier(ctx).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payload,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished locks up to limit unpublished rows, oldest first. Must run
// inside a transaction so concurrent relays skip each other's rows.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given rows as published.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query := `UPDATE outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := s.querier(ctx).ExecContext(ctx, query, at, pq.Array(keys)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Category tables, filled by the audit consumer
// -----------------------------------------------------------------------------

// AppendCompliance inserts a compliance event into the audit_compliance table.
// Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) AppendCompliance(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_compliance (
			id, timestamp, subject, action, decision,
			subject_id_hash, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		event.Subject,
		event.Action,
		event.Decision,
		event.SubjectIDHash,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert compliance event: %w", err)
	}
	return nil
}

// AppendSecurity inserts a security event into the audit_security table.
func (s *Store) AppendSecurity(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	severity := event.Severity
	if severity == "" {
		severity = audit.SeverityInfo
	}
	query := `
		INSERT INTO audit_security (
			id, timestamp, subject, action, reason,
			ip, request_id, actor_id, severity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		event.Subject,
		event.Action,
		event.Reason,
		event.IP,
		event.RequestID,
		event.ActorID,
		string(severity),
	)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// AppendOps inserts an ops event into the audit_ops table.
func (s *Store) AppendOps(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_ops (id, timestamp, subject, action, request_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.querier(ctx).ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		event.Subject,
		event.Action,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert ops event: %w", err)
	}
	return nil
}

// ListCompliance returns compliance events for a subject hash, newest first.
func (s *Store) ListCompliance(ctx context.Context, subjectIDHash string, limit int) ([]audit.Event, error) {
	query := `
		SELECT timestamp, subject, action, decision, subject_id_hash, request_id, actor_id
		FROM audit_compliance
		WHERE subject_id_hash = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, subjectIDHash, limit)
	if err != nil {
		return nil, fmt.Errorf("query compliance events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event := audit.Event{Category: audit.CategoryCompliance}
		if err := rows.Scan(
			&event.Timestamp,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.SubjectIDHash,
			&event.RequestID,
			&event.ActorID,
		); err != nil {
			return nil, fmt.Errorf("scan compliance event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance events: %w", err)
	}
	return events, nil
}
