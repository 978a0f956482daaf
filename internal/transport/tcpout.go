package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/connstr"
	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// TCPOutAdapter dials out to a fixed host:port and reconnects with
// exponential backoff on failure, the same lifecycle as SerialAdapter but
// over net.Dial instead of a serialpool handle.
type TCPOutAdapter struct {
	key string
	ep  connstr.Endpoint

	mu   sync.Mutex
	conn net.Conn
}

func NewTCPOutAdapter(ep connstr.Endpoint) *TCPOutAdapter {
	return &TCPOutAdapter{key: ep.Key(), ep: ep}
}

// Send implements router.Sender.
func (a *TCPOutAdapter) Send(frame *wire.Frame) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport: tcpout adapter %s not connected", a.key)
	}
	_, err := conn.Write(frame.Raw)
	return err
}

func (a *TCPOutAdapter) Run(ctx context.Context, sink FrameSink, notifier ConnectionNotifier, dispatcher wire.Dispatcher) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	addr := fmt.Sprintf("%s:%d", a.ep.Host, a.ep.Port)

	for {
		if ctx.Err() != nil {
			return
		}

		dialer := net.Dialer{Timeout: 10 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			mavlog.L().Warn("tcpout: dial failed, retrying", zap.String("addr", addr), zap.Error(err), zap.Duration("backoff", backoff))
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		a.mu.Lock()
		a.conn = conn
		a.mu.Unlock()
		notifier.AddConnection(a.key, a)
		backoff = time.Second
		mavlog.L().Info("tcpout: connection open", zap.String("addr", addr))

		a.readLoop(ctx, conn, sink, dispatcher)

		notifier.RemoveConnection(a.key)
		a.mu.Lock()
		a.conn = nil
		a.mu.Unlock()
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func (a *TCPOutAdapter) readLoop(ctx context.Context, conn net.Conn, sink FrameSink, dispatcher wire.Dispatcher) {
	decoder := newFrameDecoder(dispatcher)
	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := conn.Read(buf)
		if err != nil {
			mavlog.L().Warn("tcpout: read failed", zap.String("addr", a.key), zap.Error(err))
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
