package realtime

import "sync"

// Collection is a locally cached, insertion-ordered list of rows keyed
// by server id. It is the consumer half of the feed: every mutation is
// an idempotent merge, so replaying events in any interleaving with
// direct patches converges on one entry per live key.
type Collection struct {
	mu    sync.RWMutex
	items []Record
	index map[int64]int
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[int64]int)}
}

// Load replaces the whole collection with rows, keeping their order.
// Duplicate keys keep the first occurrence.
func (c *Collection) Load(rows []Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.items[:0]
	c.index = make(map[int64]int, len(rows))
	for _, r := range rows {
		if _, ok := c.index[r.Key]; ok {
			continue
		}
		c.index[r.Key] = len(c.items)
		c.items = append(c.items, r)
	}
}

// Apply merges one change event:
//   - insert: append unless the key is already present
//   - update: replace in place; absent key is a no-op
//   - delete: remove; absent key is a no-op
func (c *Collection) Apply(ev Event) {
	key := ev.Key()
	if key == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Kind {
	case EventInsert:
		if ev.New == nil {
			// Insert without a row payload carries nothing to store.
			return
		}
		if _, ok := c.index[key]; ok {
			return
		}
		c.index[key] = len(c.items)
		c.items = append(c.items, *ev.New)
	case EventUpdate:
		if ev.New == nil {
			return
		}
		i, ok := c.index[key]
		if !ok {
			// State may legitimately lag behind the backend.
			return
		}
		c.items[i] = *ev.New
	case EventDelete:
		i, ok := c.index[key]
		if !ok {
			return
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
		delete(c.index, key)
		for j := i; j < len(c.items); j++ {
			c.index[c.items[j].Key] = j
		}
	}
}

// Upsert patches a row directly, used by the optimistic local path after
// a confirmed write. Same merge semantics as insert-then-update.
func (c *Collection) Upsert(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[r.Key]; ok {
		c.items[i] = r
		return
	}
	c.index[r.Key] = len(c.items)
	c.items = append(c.items, r)
}

// Remove drops a key; absent keys are a no-op.
func (c *Collection) Remove(key int64) {
	c.Apply(Event{Kind: EventDelete, Old: &Record{Key: key}})
}

// Get returns the row for key, if present.
func (c *Collection) Get(key int64) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[key]
	if !ok {
		return Record{}, false
	}
	return c.items[i], true
}

// Items returns a snapshot of the rows in insertion order.
func (c *Collection) Items() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of live rows.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
