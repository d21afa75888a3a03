// Package profilecache holds the shared profile snapshot every section reads.
//
// A Cache is created once at startup and injected into the coordinators. It is
// only written from the success path of a round trip with the profile service
// (a sync, a confirmed delete, or a full fetch) and by logout.
package profilecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/internal/application/service"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type Ordering int

const (
	// OrderingRequest drops a response when a request for the same field that
	// started later has already been applied.
	OrderingRequest Ordering = iota
	// OrderingResponse applies every response as it lands; the last one to
	// arrive wins whatever the start order was.
	OrderingResponse
)

func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", "request":
		return OrderingRequest, nil
	case "response":
		return OrderingResponse, nil
	default:
		return 0, fmt.Errorf("unknown sync ordering %q", s)
	}
}

func (o Ordering) String() string {
	if o == OrderingResponse {
		return "response"
	}
	return "request"
}

// Ticket marks the moment a request started. Take one before calling the
// profile service and hand it back when applying the response.
type Ticket struct {
	seq uint64
}

const mirrorTimeout = 3 * time.Second

type Cache struct {
	mu       sync.RWMutex
	snap     profile.Snapshot
	ordering Ordering
	seq      uint64
	applied  map[string]uint64
	resetSeq uint64

	mirrorMu sync.Mutex
	mirrored uint64
	mirror   service.SnapshotMirror
	logger   logger.Logger
}

func New(ordering Ordering, mirror service.SnapshotMirror, log logger.Logger) *Cache {
	return &Cache{
		snap:     profile.Empty(),
		ordering: ordering,
		applied:  map[string]uint64{},
		mirror:   mirror,
		logger:   log,
	}
}

func (c *Cache) Ordering() Ordering {
	return c.ordering
}

// Get returns a copy of the current snapshot.
func (c *Cache) Get() profile.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone()
}

func (c *Cache) Ticket() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return Ticket{seq: c.seq}
}

// ReplaceField writes one field unconditionally.
func (c *Cache) ReplaceField(name string, raw json.RawMessage) profile.Snapshot {
	snap, _ := c.ApplyField(c.Ticket(), name, raw)
	return snap
}

// ApplyField writes the server-confirmed value of one field. It reports false
// when the response was discarded: the cache was reset after the ticket was
// taken, or (under OrderingRequest) a later request already landed.
func (c *Cache) ApplyField(t Ticket, name string, raw json.RawMessage) (profile.Snapshot, bool) {
	c.mu.Lock()
	latest := c.applied[name]
	if t.seq <= c.resetSeq || (c.ordering == OrderingRequest && t.seq < latest) {
		snap := c.snap.Clone()
		c.mu.Unlock()
		c.logger.Debug("Discarded stale profile field",
			zap.String("field", name), zap.Uint64("ticket", t.seq), zap.Uint64("applied", latest))
		return snap, false
	}
	c.snap.Fields[name] = append(json.RawMessage(nil), raw...)
	c.applied[name] = max(latest, t.seq)
	c.bump()
	snap := c.snap.Clone()
	c.mu.Unlock()

	c.persist(snap)
	return snap, true
}

// ReplaceAll installs a freshly fetched snapshot. Under OrderingRequest any
// field written by a request newer than t is kept.
func (c *Cache) ReplaceAll(t Ticket, s profile.Snapshot) (profile.Snapshot, bool) {
	c.mu.Lock()
	if t.seq <= c.resetSeq {
		snap := c.snap.Clone()
		c.mu.Unlock()
		return snap, false
	}
	next := s.Clone()
	if c.ordering == OrderingRequest {
		for name, seq := range c.applied {
			if seq <= t.seq {
				continue
			}
			if v, ok := c.snap.Fields[name]; ok {
				next.Fields[name] = v
			}
		}
	}
	for name := range next.Fields {
		c.applied[name] = max(c.applied[name], t.seq)
	}
	c.snap.Fields = next.Fields
	c.bump()
	snap := c.snap.Clone()
	c.mu.Unlock()

	c.persist(snap)
	return snap, true
}

// Reset drops the snapshot back to the empty default and invalidates every
// outstanding ticket.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.seq++
	c.resetSeq = c.seq
	c.applied = map[string]uint64{}
	c.snap.Fields = map[string]json.RawMessage{}
	c.bump()
	version := c.snap.Version
	c.mu.Unlock()

	if c.mirror == nil {
		return
	}
	c.mirrorMu.Lock()
	defer c.mirrorMu.Unlock()
	c.mirrored = version
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := c.mirror.Clear(ctx); err != nil {
		c.logger.Warn("Failed to clear mirrored profile", zap.Error(err))
	}
}

// Restore loads the mirrored snapshot, if any, into an empty cache.
func (c *Cache) Restore(ctx context.Context) (bool, error) {
	if c.mirror == nil {
		return false, nil
	}
	s, ok, err := c.mirror.Load(ctx)
	if err != nil || !ok {
		return false, err
	}

	c.mirrorMu.Lock()
	defer c.mirrorMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.snap.IsEmpty() {
		return false, nil
	}
	c.snap = s.Clone()
	if c.snap.Fields == nil {
		c.snap.Fields = map[string]json.RawMessage{}
	}
	c.mirrored = c.snap.Version
	return true, nil
}

func (c *Cache) bump() {
	c.snap.Version++
	c.snap.UpdatedAt = time.Now().UTC()
}

func (c *Cache) persist(snap profile.Snapshot) {
	if c.mirror == nil {
		return
	}
	c.mirrorMu.Lock()
	defer c.mirrorMu.Unlock()
	if snap.Version <= c.mirrored {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := c.mirror.Save(ctx, snap); err != nil {
		c.logger.Warn("Failed to mirror profile snapshot", zap.Uint64("version", snap.Version), zap.Error(err))
		return
	}
	c.mirrored = snap.Version
}
