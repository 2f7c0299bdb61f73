package hashpool

import (
	"context"
	"errors"
	"sync"
)

// ErrEmpty is returned by PopFront when no pre-generated hash is available.
var ErrEmpty = errors.New("hashpool: pool is empty")

// Store is the shared backing state of the pool: a FIFO queue of ready
// hashes, the set of every value ever emitted, and the candidate sequence.
// The queue pop must be atomic so that concurrent consumers each see a value
// exactly once.
type Store interface {
	// Len returns the current queue length.
	Len(ctx context.Context) (int64, error)
	// PopFront removes and returns the oldest queued hash, or ErrEmpty.
	PopFront(ctx context.Context) (string, error)
	// PushFront returns an allocated-but-unused hash to the head of the queue.
	PushFront(ctx context.Context, value string) error
	// Enqueue appends fresh hashes to the tail of the queue.
	Enqueue(ctx context.Context, values []string) error
	// MarkEmitted records candidates in the emitted set and returns only the
	// ones that were not seen before.
	MarkEmitted(ctx context.Context, values []string) ([]string, error)
	// NextSeq reserves n sequence values and returns the first of the range.
	NextSeq(ctx context.Context, n uint64) (uint64, error)
}

// MemoryStore is an in-process Store used in tests and single-node setups.
type MemoryStore struct {
	mu      sync.Mutex
	queue   []string
	emitted map[string]struct{}
	seq     uint64
}

// NewMemoryStore creates an empty in-memory pool store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{emitted: map[string]struct{}{}}
}

func (m *MemoryStore) Len(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.queue)), nil
}

func (m *MemoryStore) PopFront(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return "", ErrEmpty
	}
	v := m.queue[0]
	m.queue = m.queue[1:]
	return v, nil
}

func (m *MemoryStore) PushFront(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append([]string{value}, m.queue...)
	return nil
}

func (m *MemoryStore) Enqueue(ctx context.Context, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, values...)
	return nil
}

func (m *MemoryStore) MarkEmitted(ctx context.Context, values []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := make([]string, 0, len(values))
	for _, v := range values {
		if _, seen := m.emitted[v]; seen {
			continue
		}
		m.emitted[v] = struct{}{}
		fresh = append(fresh, v)
	}
	return fresh, nil
}

func (m *MemoryStore) NextSeq(ctx context.Context, n uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := m.seq
	m.seq += n
	return start, nil
}
