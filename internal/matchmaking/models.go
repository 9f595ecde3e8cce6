// internal/matchmaking/models.go

package matchmaking

import "github.com/Goutam96801/whoami/internal/chat"

// State is the queue's lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateFilters   State = "filters"
	StateSearching State = "searching"
	StateComplete  State = "complete"
)

// Gender filter values as the user picks them. They map onto the stored
// profile gender attribute (girls -> female, boys -> male).
const (
	GenderAnyone = "anyone"
	GenderGirls  = "girls"
	GenderBoys   = "boys"
)

// Filters is the transient search configuration. Never persisted. The age
// bounds themselves come from configuration and are enforced by the queue.
type Filters struct {
	Gender    string   `json:"gender" validate:"required,oneof=anyone girls boys"`
	MinAge    int      `json:"minAge" validate:"min=0"`
	MaxAge    int      `json:"maxAge" validate:"gtefield=MinAge"`
	Interests []string `json:"interests"`
}

// Status is a snapshot of the queue for the API surface.
type Status struct {
	State      State       `json:"state"`
	Filters    *Filters    `json:"filters,omitempty"`
	Revealed   []chat.User `json:"revealed"`
	Remaining  int         `json:"remaining"`
	IsComplete bool        `json:"isComplete"`
}
