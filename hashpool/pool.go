// Package hashpool keeps a bounded FIFO queue of pre-generated, globally
// unique short identifiers. A single background producer replenishes the
// queue; many concurrent consumers pop one hash per created bin.
//
// Candidates are derived from a monotonically increasing 48-bit sequence
// (base64url of the big-endian bytes), which rules out practical exhaustion
// without paying birthday-paradox collision costs. The emitted set is only a
// safety net against encoding clashes, not the primary uniqueness mechanism.
package hashpool

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"go.uber.org/zap"
)

// HashLength is the length of every emitted identifier.
const HashLength = 8

// Config tunes the replenishment loop; zero values fall back to defaults.
type Config struct {
	// LowWatermark is the queue length below which replenishment kicks in.
	LowWatermark int
	// BatchSize is how many sequence values each replenish round consumes.
	BatchSize int
	// Interval is the sleep between replenish rounds.
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.LowWatermark <= 0 {
		c.LowWatermark = 100
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	return c
}

// Pool hands out pre-generated hashes and replenishes them in the background.
type Pool struct {
	store Store
	cfg   Config
	log   *zap.SugaredLogger
}

// New creates a pool over the given store.
func New(store Store, cfg Config, log *zap.SugaredLogger) *Pool {
	return &Pool{store: store, cfg: cfg.withDefaults(), log: log}
}

// Allocate pops the oldest hash from the pool. It never blocks: when the pool
// is exhausted or the backing store is unreachable it reports ok=false, which
// callers must treat as a recoverable condition.
func (p *Pool) Allocate(ctx context.Context) (string, bool) {
	v, err := p.store.PopFront(ctx)
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			p.log.Warnf("hash pool allocate degraded to empty: %v", err)
		}
		return "", false
	}
	return v, true
}

// Release returns a previously allocated but unused hash to the head of the
// queue. Best-effort: a failed release is logged and swallowed so that an
// allocation rollback never turns into a creation failure of its own.
func (p *Pool) Release(ctx context.Context, hash string) {
	if hash == "" {
		return
	}
	if err := p.store.PushFront(ctx, hash); err != nil {
		p.log.Warnf("hash pool release failed for %s: %v", hash, err)
	}
}

// Run drives the replenishment loop until the context is cancelled.
func (p *Pool) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := p.Replenish(ctx); err != nil {
			p.log.Warnf("hash pool replenish failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Replenish tops the queue up once. The sequence is advanced by the full
// batch size regardless of how many candidates were fresh, so a crash between
// reserving and enqueueing can only skip values, never repeat them.
func (p *Pool) Replenish(ctx context.Context) error {
	length, err := p.store.Len(ctx)
	if err != nil {
		return err
	}
	if length >= int64(p.cfg.LowWatermark) {
		return nil
	}

	start, err := p.store.NextSeq(ctx, uint64(p.cfg.BatchSize))
	if err != nil {
		return err
	}

	batch := make([]string, 0, p.cfg.BatchSize)
	for i := 0; i < p.cfg.BatchSize; i++ {
		batch = append(batch, EncodeHash(start+uint64(i)))
	}

	fresh, err := p.store.MarkEmitted(ctx, batch)
	if err != nil {
		return err
	}
	if len(fresh) < len(batch) {
		p.log.Warnf("hash pool skipped %d already-emitted candidates", len(batch)-len(fresh))
	}
	return p.store.Enqueue(ctx, fresh)
}

// EncodeHash derives the public identifier for a sequence value: the low 48
// bits big-endian, base64url encoded, truncated to HashLength characters.
func EncodeHash(seq uint64) string {
	var b [6]byte
	b[0] = byte(seq >> 40)
	b[1] = byte(seq >> 32)
	b[2] = byte(seq >> 24)
	b[3] = byte(seq >> 16)
	b[4] = byte(seq >> 8)
	b[5] = byte(seq)
	return base64.URLEncoding.EncodeToString(b[:])[:HashLength]
}
