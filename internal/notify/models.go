// internal/notify/models.go

package notify

import "time"

// Type classifies a notification for preference gating.
type Type string

const (
	TypeMessage Type = "message"
	TypeMatch   Type = "match"
)

// Preferences are the user-controlled delivery flags. The master flag gates
// everything; the per-type flags default to the master flag when unset.
type Preferences struct {
	Enabled bool  `json:"enabled"`
	Message *bool `json:"message,omitempty"`
	Match   *bool `json:"match,omitempty"`
}

// Allows reports whether a notification of the given type may be delivered.
func (p Preferences) Allows(t Type) bool {
	if !p.Enabled {
		return false
	}
	switch t {
	case TypeMessage:
		if p.Message != nil {
			return *p.Message
		}
	case TypeMatch:
		if p.Match != nil {
			return *p.Match
		}
	}
	return p.Enabled
}

// Notification is one user-visible alert.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// LogItem is one entry of the capped notification history.
type LogItem struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Data      map[string]string `json:"data,omitempty"`
}
