// Package realtime implements the per-table change feed and the
// convergent client-side collection that consumes it.
package realtime

import (
	"sync"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// Event kinds delivered by the feed.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Record is the row payload carried by an event. Key is the server
// assigned identifier; Value holds the full row for insert/update.
type Record struct {
	Key   int64
	Value interface{}
}

// Event is a single row-change notification on a table channel.
// New is set for insert/update, Old for update/delete.
type Event struct {
	Kind  string
	Table string
	New   *Record
	Old   *Record
}

// Key returns the row key the event refers to.
func (e Event) Key() int64 {
	if e.New != nil {
		return e.New.Key
	}
	if e.Old != nil {
		return e.Old.Key
	}
	return 0
}

// Feed is an in-process change feed with one named channel per table.
// Mutating façades publish after every confirmed write; views subscribe
// for the lifetime of their mount and tear down deterministically.
type Feed struct {
	bus EventBus.Bus
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{bus: EventBus.New()}
}

// Publish delivers an event to all subscribers of its table channel.
// Delivery is asynchronous; a slow subscriber never blocks the caller.
func (f *Feed) Publish(ev Event) {
	f.bus.Publish(topic(ev.Table), ev)
}

// Subscribe attaches handler to the table channel and returns the owned
// subscription. The returned Subscription must be closed by the caller.
func (f *Feed) Subscribe(table string, handler func(Event)) (*Subscription, error) {
	s := &Subscription{feed: f, table: table}
	// The wrapper is what gets registered, so Unsubscribe can find it.
	s.fn = func(ev Event) {
		defer func() {
			if r := recover(); r != nil {
				// Feed handlers run detached from any request; a panic
				// here must not take the process down.
				zap.L().Error("realtime handler panic",
					zap.String("table", table), zap.Any("panic", r))
			}
		}()
		handler(ev)
	}
	if err := f.bus.SubscribeAsync(topic(table), s.fn, false); err != nil {
		// Leave s.open false: Unsubscribe on a never-opened
		// subscription stays a safe no-op.
		return s, err
	}
	s.open = true
	return s, nil
}

// WaitAsync blocks until all in-flight asynchronous deliveries finish.
// Used by tests and by graceful shutdown.
func (f *Feed) WaitAsync() {
	f.bus.WaitAsync()
}

func topic(table string) string {
	return "table:" + table
}

// Subscription is a scoped handle on one table channel. Unsubscribe is
// idempotent and safe to call even if Subscribe failed.
type Subscription struct {
	feed  *Feed
	table string
	fn    func(Event)
	open  bool
	once  sync.Once
}

// Unsubscribe detaches the handler. Subsequent calls are no-ops.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if !s.open {
			return
		}
		if err := s.feed.bus.Unsubscribe(topic(s.table), s.fn); err != nil {
			zap.L().Warn("realtime unsubscribe failed",
				zap.String("table", s.table), zap.Error(err))
		}
		s.open = false
	})
}
