// Package dedupe remembers scanned payloads so a code read twice is
// imported once.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

const defaultMaxSize = 4096

// Deduper records seen scans.
type Deduper interface {
	// Seen reports whether scan was recorded, without recording it.
	Seen(ctx context.Context, scan string) bool

	// SeenAndRecord reports whether scan was already recorded, recording
	// it when it was not.
	SeenAndRecord(ctx context.Context, scan string) bool

	Size() int64
}

// Key is the identity of a scanned string. Surrounding whitespace added by
// scanners does not change it.
type Key [32]byte

// KeyOf hashes a scanned string.
func KeyOf(scan string) Key {
	return Key(blake3.Sum256([]byte(strings.TrimSpace(scan))))
}

// node is an entry in the recency list, newest at head.
type node struct {
	key        Key
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryDeduper keeps keys in a map plus a doubly linked list so the
// oldest key can be evicted in constant time.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[Key]*node
	head     *node
	tail     *node
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[Key]*node)
	d.nodePool = sync.Pool{New: func() any { return &node{} }}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, scan string) bool {
	k := KeyOf(scan)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[k]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.remove(d.tail)
	}

	n := d.nodePool.Get().(*node)
	n.key = k
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[k] = n
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Seen(_ context.Context, scan string) bool {
	k := KeyOf(scan)

	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.seen[k]
	return ok
}

// remove unlinks n. Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n == nil {
		return
	}
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

// Size returns the number of remembered scans.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
