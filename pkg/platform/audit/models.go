package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	// Examples: identity number verifications.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// Examples: rejected operator tokens, admin token mismatches.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational visibility.
	// These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is the storage shape shared by every category. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID is the portal operator who triggered the action.
	ActorID string
	// SubjectIDHash is a keyed hash of the identity number being verified.
	// Raw identity numbers never reach the audit trail.
	SubjectIDHash string
	IP            string
	Severity      Severity
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

type AuditEvent string

const (
	// Identity events
	EventIdentityVerified      AuditEvent = "identity_verified"
	EventIdentityBatchVerified AuditEvent = "identity_batch_verified"
	EventVerificationAccessed  AuditEvent = "verification_accessed"

	// Access events
	EventAuthFailed        AuditEvent = "auth_failed"
	EventAdminTokenDenied  AuditEvent = "admin_token_denied"
	EventTokenIssued       AuditEvent = "token_issued"
	EventCacheBreakerReset AuditEvent = "cache_breaker_reset"

	// Rate limiting events
	EventIPRateLimitExceeded       AuditEvent = "ip_rate_limit_exceeded"
	EventOperatorRateLimitExceeded AuditEvent = "operator_rate_limit_exceeded"
	EventRateLimitConfigMissing    AuditEvent = "rate_limit_config_missing"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityVerified: CategoryCompliance,

	EventAuthFailed:        CategorySecurity,
	EventAdminTokenDenied:  CategorySecurity,
	EventCacheBreakerReset: CategorySecurity,

	EventIPRateLimitExceeded:       CategorySecurity,
	EventOperatorRateLimitExceeded: CategorySecurity,
	EventRateLimitConfigMissing:    CategorySecurity,

	EventIdentityBatchVerified: CategoryOperations,
	EventVerificationAccessed:  CategoryOperations,
	EventTokenIssued:           CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// ComplianceEvent captures regulatory-significant actions requiring guaranteed persistence.
// Use with the compliance publisher for fail-closed semantics.
type ComplianceEvent struct {
	Timestamp     time.Time // set automatically if zero
	Subject       string    // masked identity number
	Action        string    `validate:"required"`
	Decision      string    // "valid" or the failure kind
	SubjectIDHash string    `validate:"required"`
	RequestID     string
	ActorID       string
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the storage Event.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:      CategoryCompliance,
		Timestamp:     e.Timestamp,
		Subject:       e.Subject,
		Action:        e.Action,
		Decision:      e.Decision,
		SubjectIDHash: e.SubjectIDHash,
		RequestID:     e.RequestID,
		ActorID:       e.ActorID,
	}
}

// SecurityEvent captures security-relevant actions for SIEM and alerting.
// Events are processed asynchronously with buffering.
type SecurityEvent struct {
	Timestamp time.Time
	Subject   string   // entity involved (operator id, IP)
	Action    string   // e.g. "auth_failed"
	Reason    string   // e.g. "invalid_token"
	IP        string   // client IP address
	RequestID string
	ActorID   string
	Severity  Severity // "info", "warning", "critical" for SIEM routing
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category returns CategorySecurity (always).
func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

// ToEvent converts to the storage Event.
func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:  CategorySecurity,
		Timestamp: e.Timestamp,
		Subject:   e.Subject,
		Action:    e.Action,
		Reason:    e.Reason,
		IP:        e.IP,
		RequestID: e.RequestID,
		ActorID:   e.ActorID,
		Severity:  e.Severity,
	}
}

// OpsEvent captures operational events with minimal overhead.
// Events are fire-and-forget with optional sampling.
type OpsEvent struct {
	Timestamp time.Time
	Subject   string
	Action    string
	RequestID string
}

// Category returns CategoryOperations (always).
func (e OpsEvent) Category() EventCategory { return CategoryOperations }

// ToEvent converts to the storage Event.
func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		Subject:   e.Subject,
		Action:    e.Action,
		RequestID: e.RequestID,
	}
}
