package router

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brindlebrook/mavrelay/internal/wire"
)

// connStats holds one connection's counters. Fields are atomic because
// Stats.Snapshot (called from a CLI watch loop or similar) reads them from
// outside the router's actor goroutine while the actor keeps writing.
type connStats struct {
	framesIn        atomic.Uint64
	framesOut       atomic.Uint64
	crcErrors       atomic.Uint64
	unknownMessages atomic.Uint64
	otherErrors     atomic.Uint64
}

func (c *connStats) recordIn()  { c.framesIn.Add(1) }
func (c *connStats) recordOut() { c.framesOut.Add(1) }

func (c *connStats) recordError(err error) {
	switch {
	case errors.Is(err, wire.ErrFailedCRC):
		c.crcErrors.Add(1)
	case errors.Is(err, wire.ErrUnknownMessage):
		c.unknownMessages.Add(1)
	default:
		c.otherErrors.Add(1)
	}
}

// ConnectionStats is a point-in-time copy of one connection's counters,
// safe to hold onto or format after the router has moved on.
type ConnectionStats struct {
	Key             string
	FramesIn        uint64
	FramesOut       uint64
	CRCErrors       uint64
	UnknownMessages uint64
	OtherErrors     uint64
}

// Stats tracks per-connection frame counters, grounded on the shape the
// teacher used for link statistics: cumulative counters plus a derived rate.
// Unlike that tracker there is one instance per connection key rather than
// one for the whole process, since a multi-link router needs to tell a
// flaky serial port apart from a healthy UDP peer.
type Stats struct {
	startTime time.Time

	mu    sync.RWMutex
	conns map[string]*connStats
}

// NewStats builds an empty per-connection stats tracker.
func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
		conns:     make(map[string]*connStats),
	}
}

func (s *Stats) connection(key string) *connStats {
	s.mu.RLock()
	c, ok := s.conns[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conns[key]; ok {
		return c
	}
	c = &connStats{}
	s.conns[key] = c
	return c
}

func (s *Stats) removeConnection(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, key)
}

// Snapshot returns a stable copy of every known connection's counters.
func (s *Stats) Snapshot() []ConnectionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ConnectionStats, 0, len(s.conns))
	for key, c := range s.conns {
		out = append(out, ConnectionStats{
			Key:             key,
			FramesIn:        c.framesIn.Load(),
			FramesOut:       c.framesOut.Load(),
			CRCErrors:       c.crcErrors.Load(),
			UnknownMessages: c.unknownMessages.Load(),
			OtherErrors:     c.otherErrors.Load(),
		})
	}
	return out
}

// String renders a summary table, in the spirit of the teacher's
// Statistics.String, for use by a watch-style CLI command.
func (s *Stats) String() string {
	elapsed := time.Since(s.startTime)
	result := fmt.Sprintf("=== router stats (%.0fs) ===\n", elapsed.Seconds())
	for _, c := range s.Snapshot() {
		result += fmt.Sprintf("%-24s in=%-8d out=%-8d crc_err=%-6d unknown=%-6d other_err=%-6d\n",
			c.Key, c.FramesIn, c.FramesOut, c.CRCErrors, c.UnknownMessages, c.OtherErrors)
	}
	return result
}
