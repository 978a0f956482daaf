package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/connstr"
	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/serialpool"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// FrameSink is what an adapter's read loop reports to: the router's
// NotifyFrame method. Kept as a narrow interface here (rather than
// importing the router package) so transport has no dependency on the
// router's internal types, only this one call shape.
type FrameSink interface {
	NotifyFrame(connKey string, frame *wire.Frame, err error)
}

// ConnectionNotifier is what an adapter reports connect/disconnect
// lifecycle events to — the router's AddConnection/RemoveConnection pair.
type ConnectionNotifier interface {
	AddConnection(key string, sender interface{ Send(frame *wire.Frame) error })
	RemoveConnection(key string)
}

// SerialAdapter owns one serial.Port, checked out from a Pool, and runs a
// read loop that resyncs the byte stream to frame boundaries via
// frameDecoder, grounded on the teacher's OpenSerialConnection/SerialConnection
// pairing of "open with fixed 8N1 mode" + "read/write raw bytes".
type SerialAdapter struct {
	key  string
	ep   connstr.Endpoint
	pool *serialpool.Pool

	mu   sync.Mutex
	port serial.Port
}

// NewSerialAdapter does not open the device; call Run to open it and start
// the read loop, which also registers the adapter as a connection once the
// port is open.
func NewSerialAdapter(ep connstr.Endpoint, pool *serialpool.Pool) *SerialAdapter {
	return &SerialAdapter{key: ep.Key(), ep: ep, pool: pool}
}

// Send implements router.Sender.
func (a *SerialAdapter) Send(frame *wire.Frame) error {
	a.mu.Lock()
	port := a.port
	a.mu.Unlock()
	if port == nil {
		return fmt.Errorf("transport: serial adapter %s not open", a.key)
	}
	_, err := port.Write(frame.Raw)
	return err
}

// Run opens the device, registers the connection, and reads frames until
// ctx is cancelled or the port fails. On failure it removes the
// connection, closes the handle, waits a backoff interval, and retries —
// the router only ever sees an AddConnection/RemoveConnection pair per
// attempt and expects the adapter to re-register itself (spec.md §9).
func (a *SerialAdapter) Run(ctx context.Context, sink FrameSink, notifier ConnectionNotifier, dispatcher wire.Dispatcher) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		port, err := a.pool.Checkout(a.ep.Device, a.ep.Baud)
		if err != nil {
			mavlog.L().Warn("serial: checkout failed, retrying", zap.String("device", a.ep.Device), zap.Error(err), zap.Duration("backoff", backoff))
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		a.mu.Lock()
		a.port = port
		a.mu.Unlock()
		notifier.AddConnection(a.key, a)
		backoff = time.Second
		mavlog.L().Info("serial: connection open", zap.String("device", a.ep.Device), zap.Int("baud", a.ep.Baud))

		a.readLoop(ctx, port, sink, dispatcher)

		notifier.RemoveConnection(a.key)
		a.mu.Lock()
		a.port = nil
		a.mu.Unlock()
		_ = a.pool.Checkin(a.ep.Device)

		if ctx.Err() != nil {
			return
		}
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (a *SerialAdapter) readLoop(ctx context.Context, port serial.Port, sink FrameSink, dispatcher wire.Dispatcher) {
	decoder := newFrameDecoder(dispatcher)
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := port.Read(buf)
		if err != nil {
			mavlog.L().Warn("serial: read failed", zap.String("device", a.ep.Device), zap.Error(err))
			return
		}
		for i := 0; i < n; i++ {
			frame, err := decoder.decodeByte(buf[i])
			if frame != nil || err != nil {
				sink.NotifyFrame(a.key, frame, err)
			}
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
