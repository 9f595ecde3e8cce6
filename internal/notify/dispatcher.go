// internal/notify/dispatcher.go
// Local notification dispatch with durable preferences and a capped history
// log. Delivery itself is delegated; the default delivery just logs, which is
// what a headless session daemon can do on its own.

package notify

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Goutam96801/whoami/internal/storage"
)

// Dispatcher surfaces user-visible alerts.
type Dispatcher interface {
	Dispatch(t Type, n Notification)
}

// Delivery is the terminal delivery hook (OS notification, webhook, ...).
type Delivery func(t Type, n Notification)

// LocalDispatcher gates notifications on stored preferences and records every
// attempt (delivered or suppressed) in the capped log, matching how the
// notification history screen expects to see suppressed alerts too.
type LocalDispatcher struct {
	store   *storage.Store
	userID  string
	logCap  int
	deliver Delivery

	mu sync.Mutex
}

// NewLocalDispatcher creates a dispatcher for one authenticated user.
// A nil delivery falls back to logging.
func NewLocalDispatcher(store *storage.Store, userID string, logCap int, deliver Delivery) *LocalDispatcher {
	if deliver == nil {
		deliver = func(t Type, n Notification) {
			log.Printf("Notification [%s] %s: %s", t, n.Title, n.Body)
		}
	}
	return &LocalDispatcher{
		store:   store,
		userID:  userID,
		logCap:  logCap,
		deliver: deliver,
	}
}

// Dispatch records the notification and delivers it when preferences allow.
func (d *LocalDispatcher) Dispatch(t Type, n Notification) {
	d.appendLog(t, n)

	prefs, err := d.Preferences()
	if err != nil {
		log.Printf("Failed to load notification preferences: %v", err)
		return
	}
	if !prefs.Allows(t) {
		return
	}

	d.deliver(t, n)
}

// Preferences returns the stored preferences; absent storage means all off.
func (d *LocalDispatcher) Preferences() (Preferences, error) {
	var prefs Preferences
	_, err := d.store.GetJSON(storage.CollectionNotificationPref, d.userID, &prefs)
	if err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

// SetPreferences durably replaces the stored preferences.
func (d *LocalDispatcher) SetPreferences(prefs Preferences) error {
	return d.store.SetJSON(storage.CollectionNotificationPref, d.userID, prefs)
}

// Log returns the notification history, newest first.
func (d *LocalDispatcher) Log() ([]LogItem, error) {
	var items []LogItem
	found, err := d.store.GetJSON(storage.CollectionNotificationLog, d.userID, &items)
	if err != nil {
		return nil, err
	}
	if !found {
		return []LogItem{}, nil
	}
	return items, nil
}

// ClearLog discards the notification history.
func (d *LocalDispatcher) ClearLog() error {
	return d.store.Delete(storage.CollectionNotificationLog, d.userID)
}

func (d *LocalDispatcher) appendLog(t Type, n Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := d.Log()
	if err != nil {
		log.Printf("Failed to load notification log: %v", err)
		items = []LogItem{}
	}

	item := LogItem{
		ID:        uuid.NewString(),
		Type:      t,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: time.Now(),
		Data:      n.Data,
	}

	items = append([]LogItem{item}, items...)
	if len(items) > d.logCap {
		items = items[:d.logCap]
	}

	if err := d.store.SetJSON(storage.CollectionNotificationLog, d.userID, items); err != nil {
		// Best effort; history loss is not fatal.
		log.Printf("Failed to persist notification log: %v", err)
	}
}

// MockDispatcher collects notifications for tests.
type MockDispatcher struct {
	mu   sync.Mutex
	Sent []struct {
		Type         Type
		Notification Notification
	}
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Dispatch(t Type, n Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, struct {
		Type         Type
		Notification Notification
	}{t, n})
}

// Count returns how many notifications were dispatched.
func (m *MockDispatcher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
