package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is the JSON document written to the outbox and published to Kafka.
// Field names are part of the wire contract with downstream consumers.
type Payload struct {
	ID            string `json:"ID"`
	Category      string `json:"Category"`
	Timestamp     string `json:"Timestamp"`
	Subject       string `json:"Subject"`
	Action        string `json:"Action"`
	Decision      string `json:"Decision,omitempty"`
	Reason        string `json:"Reason,omitempty"`
	RequestID     string `json:"RequestID,omitempty"`
	ActorID       string `json:"ActorID,omitempty"`
	SubjectIDHash string `json:"SubjectIDHash,omitempty"`
	IP            string `json:"IP,omitempty"`
	Severity      string `json:"Severity,omitempty"`
}

// EncodePayload serialises event under eventID. The category is always
// derived from the action so producers cannot mislabel events.
func EncodePayload(eventID string, event Event) ([]byte, error) {
	category := AuditEvent(event.Action).Category()
	p := Payload{
		ID:            eventID,
		Category:      string(category),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:       event.Subject,
		Action:        event.Action,
		Decision:      event.Decision,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
		ActorID:       event.ActorID,
		SubjectIDHash: event.SubjectIDHash,
		IP:            event.IP,
		Severity:      string(event.Severity),
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}

// DecodePayload parses a published payload back into an Event. A missing or
// malformed timestamp falls back to now.
func DecodePayload(data []byte, now time.Time) (string, Event, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		ts = now
	}
	return p.ID, Event{
		Category:      EventCategory(p.Category),
		Timestamp:     ts,
		Subject:       p.Subject,
		Action:        p.Action,
		Decision:      p.Decision,
		Reason:        p.Reason,
		RequestID:     p.RequestID,
		ActorID:       p.ActorID,
		SubjectIDHash: p.SubjectIDHash,
		IP:            p.IP,
		Severity:      Severity(p.Severity),
	}, nil
}
