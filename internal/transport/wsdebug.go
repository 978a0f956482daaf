package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSDebugMirror is a read-only websocket endpoint that sends each frame it
// is given to attached debug clients as a binary message. Fed from a
// router subscription, it sees the frames the router delivers to local
// subscribers; frames with an unknown message id are not among them. It
// is not a routable MAVLink transport — connection strings only ever name
// udpin/udpout/tcpout/serial — it exists for the "mavrelayctl watch
// --remote" introspection mode, the same use the teacher puts
// gorilla/websocket to as a control/monitoring channel rather than a wire
// protocol link.
//
// A caller wires this in by subscribing to the router with a wildcard,
// AsFrame query and forwarding each delivery to Mirror; WSDebugMirror
// itself never touches the router or subscription packages.
type WSDebugMirror struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewWSDebugMirror() *WSDebugMirror {
	return &WSDebugMirror{clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request and registers the connection until the
// client disconnects. Suitable for http.Handle("/debug/frames", mirror).
func (m *WSDebugMirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		mavlog.L().Warn("wsdebug: upgrade failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	m.clients[conn] = struct{}{}
	m.mu.Unlock()

	go func() {
		defer m.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (m *WSDebugMirror) remove(conn *websocket.Conn) {
	m.mu.Lock()
	delete(m.clients, conn)
	m.mu.Unlock()
	conn.Close()
}

// Mirror fans frame out to every attached debug client as a binary
// message. A client that errors on write is dropped rather than allowed to
// back-pressure the mirror.
func (m *WSDebugMirror) Mirror(frame *wire.Frame) {
	if frame == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame.Raw); err != nil {
			mavlog.L().Debug("wsdebug: write failed, dropping client", zap.Error(err))
			delete(m.clients, conn)
			conn.Close()
		}
	}
}
