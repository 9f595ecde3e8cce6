// internal/chat/typing.go
// Outbound typing throttle: one "typing" signal per burst of keystrokes,
// one "stopped" signal after the configured inactivity window or on send.

package chat

import (
	"sync"
	"time"
)

// TypingEmitter debounces the local user's typing signals per peer.
type TypingEmitter struct {
	mu      sync.Mutex
	emit    func(to string, isTyping bool) error
	idle    time.Duration
	timers  map[string]*time.Timer
	typing  map[string]bool
	stopped bool
}

// NewTypingEmitter creates an emitter. emit is invoked outside the lock.
func NewTypingEmitter(idle time.Duration, emit func(to string, isTyping bool) error) *TypingEmitter {
	return &TypingEmitter{
		emit:   emit,
		idle:   idle,
		timers: make(map[string]*time.Timer),
		typing: make(map[string]bool),
	}
}

// Keystroke records input activity toward a peer. The first keystroke of a
// burst emits "typing"; every keystroke reschedules the stop signal.
func (e *TypingEmitter) Keystroke(peerID string) {
	if peerID == "" {
		return
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}

	first := !e.typing[peerID]
	e.typing[peerID] = true

	if t, ok := e.timers[peerID]; ok {
		t.Stop()
	}
	e.timers[peerID] = time.AfterFunc(e.idle, func() {
		e.stopTyping(peerID)
	})
	e.mu.Unlock()

	if first {
		e.emit(peerID, true)
		RecordTypingSignal()
	}
}

// MessageSent cancels any pending stop timer for the peer and emits
// "stopped" immediately.
func (e *TypingEmitter) MessageSent(peerID string) {
	if peerID == "" {
		return
	}

	e.mu.Lock()
	if t, ok := e.timers[peerID]; ok {
		t.Stop()
		delete(e.timers, peerID)
	}
	delete(e.typing, peerID)
	stopped := e.stopped
	e.mu.Unlock()

	if stopped {
		return
	}
	e.emit(peerID, false)
	RecordTypingSignal()
}

func (e *TypingEmitter) stopTyping(peerID string) {
	e.mu.Lock()
	delete(e.timers, peerID)
	wasTyping := e.typing[peerID]
	delete(e.typing, peerID)
	stopped := e.stopped
	e.mu.Unlock()

	if stopped || !wasTyping {
		return
	}
	e.emit(peerID, false)
	RecordTypingSignal()
}

// Stop cancels all pending timers. Further keystrokes are ignored.
func (e *TypingEmitter) Stop() {
	e.mu.Lock()
	e.stopped = true
	for peerID, t := range e.timers {
		t.Stop()
		delete(e.timers, peerID)
	}
	e.typing = make(map[string]bool)
	e.mu.Unlock()
}
