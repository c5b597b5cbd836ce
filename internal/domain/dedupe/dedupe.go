// Package dedupe tracks idempotency keys for match submissions.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper maps idempotency keys to the match they produced.
type Deduper interface {
	// Reserve atomically claims key. When key is already known it returns
	// seen=true and the match id bound to it ("" while the first submission
	// is still being stored).
	Reserve(ctx context.Context, key string) (matchID string, seen bool)

	// Bind attaches the stored match id to a reserved key.
	Bind(ctx context.Context, key, matchID string)

	// Unrecord releases key so a failed submission can be retried.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// node is one entry in the insertion-ordered list; head is the newest.
type node struct {
	key        string
	matchID    string
	prev, next *node
}

func (n *node) reset() {
	n.key = ""
	n.matchID = ""
	n.prev = nil
	n.next = nil
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list so the oldest
// key is evicted first once maxSize is reached. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10_000,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}

	return d
}

func (d *inMemoryDeduper) Reserve(_ context.Context, key string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.seen[key]; ok {
		return n.matchID, true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n, _ := d.nodePool.Get().(*node)
	n.key = key
	d.pushFront(n)
	d.seen[key] = n
	d.size.Add(1)
	return "", false
}

func (d *inMemoryDeduper) Bind(_ context.Context, key, matchID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.seen[key]; ok {
		n.matchID = matchID
	}
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.seen[key]
	if !ok {
		return
	}
	d.remove(n)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Must be called with d.mu held.
func (d *inMemoryDeduper) pushFront(n *node) {
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
}

// Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.seen, n.key)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.remove(d.tail)
	}
}
