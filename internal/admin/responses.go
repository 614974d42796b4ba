package admin

import "time"

// BreakerStatusResponse is the HTTP response DTO for the result cache breaker.
type BreakerStatusResponse struct {
	Name  string    `json:"name"`
	State string    `json:"state"`
	AsOf  time.Time `json:"as_of"`
}
