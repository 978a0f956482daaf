package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/connstr"
	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// udpPeerSender sends back to one remote peer address over a shared,
// already-bound *net.UDPConn.
type udpPeerSender struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

func (s *udpPeerSender) Send(frame *wire.Frame) error {
	_, err := s.conn.WriteToUDP(frame.Raw, s.addr)
	return err
}

// UDPInAdapter implements spec.md §4.3's "udpin" listener: it binds one
// local address and creates a per-peer connection record the first time a
// datagram arrives from that peer, keyed by (local endpoint, peer addr).
// The listening socket itself is never registered as a routable
// connection, so a broadcast frame never echoes back out the socket it
// arrived on.
type UDPInAdapter struct {
	ep connstr.Endpoint

	mu    sync.Mutex
	peers map[string]string // peer addr string -> connection key
}

func NewUDPInAdapter(ep connstr.Endpoint) *UDPInAdapter {
	return &UDPInAdapter{ep: ep, peers: make(map[string]string)}
}

func (a *UDPInAdapter) Run(ctx context.Context, sink FrameSink, notifier ConnectionNotifier, dispatcher wire.Dispatcher) {
	laddr := &net.UDPAddr{IP: net.ParseIP(a.ep.Host), Port: a.ep.Port}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		mavlog.L().Error("udpin: listen failed", zap.String("addr", laddr.String()), zap.Error(err))
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, peerAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			mavlog.L().Warn("udpin: read failed", zap.Error(err))
			continue
		}

		peerKey := a.connKeyFor(peerAddr)
		a.mu.Lock()
		if _, known := a.peers[peerAddr.String()]; !known {
			a.peers[peerAddr.String()] = peerKey
			notifier.AddConnection(peerKey, &udpPeerSender{conn: conn, addr: peerAddr})
		}
		a.mu.Unlock()

		a.dispatchDatagram(peerKey, buf[:n], sink, dispatcher)
	}
}

func (a *UDPInAdapter) connKeyFor(peer *net.UDPAddr) string {
	return fmt.Sprintf("udpin:%s:%d<-%s", a.ep.Host, a.ep.Port, peer.String())
}

func (a *UDPInAdapter) dispatchDatagram(connKey string, datagram []byte, sink FrameSink, dispatcher wire.Dispatcher) {
	total, err := wire.FrameLength(datagram)
	if err != nil {
		sink.NotifyFrame(connKey, nil, err)
		return
	}
	if total > len(datagram) {
		sink.NotifyFrame(connKey, nil, wire.ErrNotAFrame)
		return
	}
	frame, err := wire.UnpackFrame(datagram[:total], dispatcher)
	sink.NotifyFrame(connKey, frame, err)
	if total < len(datagram) {
		mavlog.L().Warn("udpin: datagram carried trailing bytes after one frame, discarding",
			zap.String("connection", connKey), zap.Int("extra_bytes", len(datagram)-total))
	}
}

// UDPOutAdapter opens a socket toward a fixed remote and is registered as
// one connection, per spec.md §4.3's "udpout" adapter.
type UDPOutAdapter struct {
	key string
	ep  connstr.Endpoint
	conn *net.UDPConn
}

func NewUDPOutAdapter(ep connstr.Endpoint) *UDPOutAdapter {
	return &UDPOutAdapter{key: ep.Key(), ep: ep}
}

func (a *UDPOutAdapter) Send(frame *wire.Frame) error {
	if a.conn == nil {
		return fmt.Errorf("transport: udpout adapter %s not open", a.key)
	}
	_, err := a.conn.Write(frame.Raw)
	return err
}

func (a *UDPOutAdapter) Run(ctx context.Context, sink FrameSink, notifier ConnectionNotifier, dispatcher wire.Dispatcher) {
	raddr := &net.UDPAddr{IP: net.ParseIP(a.ep.Host), Port: a.ep.Port}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		mavlog.L().Error("udpout: dial failed", zap.String("addr", raddr.String()), zap.Error(err))
		return
	}
	defer conn.Close()
	a.conn = conn
	notifier.AddConnection(a.key, a)
	defer notifier.RemoveConnection(a.key)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			mavlog.L().Warn("udpout: read failed", zap.String("addr", a.key), zap.Error(err))
			return
		}
		a.dispatchDatagram(buf[:n], sink, dispatcher)
	}
}

func (a *UDPOutAdapter) dispatchDatagram(datagram []byte, sink FrameSink, dispatcher wire.Dispatcher) {
	total, err := wire.FrameLength(datagram)
	if err != nil {
		sink.NotifyFrame(a.key, nil, err)
		return
	}
	if total > len(datagram) {
		sink.NotifyFrame(a.key, nil, wire.ErrNotAFrame)
		return
	}
	frame, err := wire.UnpackFrame(datagram[:total], dispatcher)
	sink.NotifyFrame(a.key, frame, err)
	if total < len(datagram) {
		mavlog.L().Warn("udpout: datagram carried trailing bytes after one frame, discarding",
			zap.String("connection", a.key), zap.Int("extra_bytes", len(datagram)-total))
	}
}
