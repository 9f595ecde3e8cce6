// internal/matchmaking/queue.go
// Randomized matchmaking queue: filters -> shuffled candidate pool -> timed
// reveal. One reveal stream at most per queue instance.

package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Goutam96801/whoami/internal/chat"
	"github.com/Goutam96801/whoami/internal/notify"
)

var (
	ErrNoFilters      = errors.New("filters must be set before searching")
	ErrInvalidFilters = errors.New("invalid filters")
)

// Directory supplies the user listing the pool is drawn from.
type Directory interface {
	GetUsers(ctx context.Context) ([]chat.User, error)
}

// Queue is the matchmaking state machine for one session.
type Queue struct {
	directory  Directory
	dispatcher notify.Dispatcher
	validate   *validator.Validate
	interval   time.Duration
	selfID     string
	minAge     int
	maxAge     int
	rng        *rand.Rand

	mu       sync.Mutex
	state    State
	filters  *Filters
	pool     []chat.User
	revealed []chat.User
	// stopRun is non-nil exactly while a reveal stream is running; closing
	// it terminates that stream.
	stopRun chan struct{}
}

// NewQueue creates an idle queue for the given user. minAge and maxAge are
// the configured bounds every filter's age range must fall within.
func NewQueue(directory Directory, dispatcher notify.Dispatcher, selfID string, minAge, maxAge int, interval time.Duration) *Queue {
	return &Queue{
		directory:  directory,
		dispatcher: dispatcher,
		validate:   validator.New(),
		interval:   interval,
		selfID:     selfID,
		minAge:     minAge,
		maxAge:     maxAge,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		state:      StateIdle,
	}
}

// SetFilters validates and stores the search configuration and moves the
// queue to the filters state. Setting filters mid-search cancels the search.
func (q *Queue) SetFilters(f Filters) error {
	if err := q.validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	if f.MinAge < q.minAge || f.MaxAge > q.maxAge {
		return fmt.Errorf("%w: age range %d-%d outside allowed %d-%d",
			ErrInvalidFilters, f.MinAge, f.MaxAge, q.minAge, q.maxAge)
	}

	q.mu.Lock()
	q.stopRunLocked()
	q.filters = &f
	q.pool = nil
	q.revealed = nil
	q.state = StateFilters
	q.mu.Unlock()
	return nil
}

// Start builds and shuffles the pool and begins the timed reveal. Starting
// while already searching tears the previous stream down first so only one
// reveal stream ever runs. An empty pool completes immediately without
// scheduling a timer.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.filters == nil {
		q.mu.Unlock()
		return ErrNoFilters
	}
	filters := *q.filters
	q.stopRunLocked()
	q.mu.Unlock()

	users, err := q.directory.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch user directory: %w", err)
	}

	pool := BuildPool(users, filters, q.selfID, time.Now())

	q.mu.Lock()
	defer q.mu.Unlock()

	Shuffle(pool, q.rng)
	q.pool = pool
	q.revealed = make([]chat.User, 0, len(pool))
	RecordSearchStarted(len(pool))

	if len(pool) == 0 {
		q.state = StateComplete
		return nil
	}

	q.state = StateSearching
	stop := make(chan struct{})
	q.stopRun = stop
	go q.run(stop)
	return nil
}

// Cancel stops any running search and returns to the filters state,
// discarding the pool and everything revealed so far. Idempotent; cancelling
// an idle queue is a no-op.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == StateIdle {
		return
	}

	wasSearching := q.stopRun != nil
	q.stopRunLocked()
	q.pool = nil
	q.revealed = nil
	if q.filters != nil {
		q.state = StateFilters
	} else {
		q.state = StateIdle
	}

	if wasSearching {
		RecordSearchCancelled()
	}
}

// Stop tears the queue down entirely. Used on daemon shutdown.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopRunLocked()
	q.pool = nil
	q.revealed = nil
	q.filters = nil
	q.state = StateIdle
}

// Status returns a snapshot of the queue.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	revealed := make([]chat.User, len(q.revealed))
	copy(revealed, q.revealed)

	return Status{
		State:      q.state,
		Filters:    q.filters,
		Revealed:   revealed,
		Remaining:  len(q.pool),
		IsComplete: q.state == StateComplete,
	}
}

// stopRunLocked terminates the active reveal stream, if any. Caller holds
// the lock.
func (q *Queue) stopRunLocked() {
	if q.stopRun != nil {
		close(q.stopRun)
		q.stopRun = nil
	}
}

func (q *Queue) run(stop chan struct{}) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := q.reveal(stop); done {
				return
			}
		}
	}
}

// reveal pops one candidate off the pool. Returns true when the stream
// should end, either because the pool is exhausted or the run was
// superseded.
func (q *Queue) reveal(stop chan struct{}) bool {
	q.mu.Lock()
	if q.stopRun != stop {
		// A newer search or a cancel superseded this stream.
		q.mu.Unlock()
		return true
	}

	candidate := q.pool[0]
	q.pool = q.pool[1:]
	q.revealed = append(q.revealed, candidate)

	exhausted := len(q.pool) == 0
	if exhausted {
		q.state = StateComplete
		q.stopRun = nil
	}
	q.mu.Unlock()

	RecordReveal()
	log.Printf("Revealed candidate %s (%d remaining)", candidate.ID, q.remaining())

	title := candidate.Username
	if title == "" {
		title = "New match"
	}
	q.dispatcher.Dispatch(notify.TypeMatch, notify.Notification{
		Title: title,
		Body:  "Someone new matched your search.",
		Data:  map[string]string{"userId": candidate.ID},
	})

	return exhausted
}

func (q *Queue) remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pool)
}
