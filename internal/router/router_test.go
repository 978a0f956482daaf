package router

import (
	"testing"

	"github.com/brindlebrook/mavrelay/internal/subscription"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// fakeMessage is a minimal wire.Message for exercising the router without a
// real dialect package. tSys/tComp of 0 means untargeted (broadcast).
type fakeMessage struct {
	tSys, tComp uint8
	payload     byte
}

func (m *fakeMessage) MessageID() uint32         { return 99 }
func (m *fakeMessage) Targeted() bool            { return m.tSys != 0 || m.tComp != 0 }
func (m *fakeMessage) TargetIDs() (uint8, uint8) { return m.tSys, m.tComp }
func (m *fakeMessage) PackFields() []byte        { return []byte{m.payload, m.tSys, m.tComp} }

func unpackFakeMessage(payload []byte) (wire.Message, error) {
	full := make([]byte, 3)
	copy(full, payload)
	return &fakeMessage{payload: full[0], tSys: full[1], tComp: full[2]}, nil
}

type testDispatcher struct{}

func (testDispatcher) Lookup(id uint32) (wire.DispatchEntry, bool) {
	if id != 99 {
		return wire.DispatchEntry{}, false
	}
	return wire.DispatchEntry{CRCExtra: 11, PayloadSize: 3, Unpack: unpackFakeMessage}, true
}

// fakeSender records every frame handed to it.
type fakeSender struct {
	sent []*wire.Frame
}

func (s *fakeSender) Send(frame *wire.Frame) error {
	s.sent = append(s.sent, frame)
	return nil
}

func newTestRouter() *Router {
	return New(testDispatcher{}, 1, 1)
}

func frameFrom(sourceSys, sourceComp uint8, targetSys, targetComp uint8) *wire.Frame {
	msg := &fakeMessage{tSys: targetSys, tComp: targetComp, payload: 0x42}
	return wire.PackFrame(wire.V1, msg, 11, 0, sourceSys, sourceComp)
}

// Scenario: a targeted frame is routed only to the one connection the
// router has learned for that (system, component) pair, not to others.
func TestTargetedFrameRoutedToLearnedConnectionOnly(t *testing.T) {
	r := newTestRouter()
	a, b := &fakeSender{}, &fakeSender{}
	r.handleConnectionOpened(connectionOpenedEvent{key: "a", sender: a})
	r.handleConnectionOpened(connectionOpenedEvent{key: "b", sender: b})

	// System 42 is heard on connection "b" first.
	r.handleFrameReceived(frameReceivedEvent{connKey: "b", frame: frameFrom(42, 1, 0, 0)})
	// That frame is a broadcast and was forwarded to "a"; count only what
	// follows.
	a.sent = nil

	// A frame targeted at system 42 arrives on "a" and must go out on "b" only.
	targeted := frameFrom(7, 1, 42, 0)
	r.handleFrameReceived(frameReceivedEvent{connKey: "a", frame: targeted})

	if len(a.sent) != 0 {
		t.Errorf("connection a should not receive its own targeted frame back, got %d", len(a.sent))
	}
	if len(b.sent) != 1 {
		t.Fatalf("connection b should receive the targeted frame once, got %d", len(b.sent))
	}
	if b.sent[0].TargetSystem != 42 {
		t.Errorf("forwarded frame target_system = %d, want 42", b.sent[0].TargetSystem)
	}
}

// Scenario: a broadcast frame is delivered to other connections and to a
// matching subscriber, but never echoed back to the connection it arrived
// on.
func TestBroadcastFrameNotEchoedToSourceButDeliveredElsewhere(t *testing.T) {
	r := newTestRouter()
	a, b := &fakeSender{}, &fakeSender{}
	r.handleConnectionOpened(connectionOpenedEvent{key: "a", sender: a})
	r.handleConnectionOpened(connectionOpenedEvent{key: "b", sender: b})

	deliver := make(chan subscription.Delivery, 4)
	r.handleSubscribe(subscribeEvent{
		query:   subscription.Query{MessageTypeSet: true, MessageType: 99},
		handle:  subscription.NewConsumerHandle(),
		deliver: deliver,
	})

	broadcast := frameFrom(5, 1, 0, 0)
	r.handleFrameReceived(frameReceivedEvent{connKey: "a", frame: broadcast})

	if len(a.sent) != 0 {
		t.Errorf("broadcast echoed back to source connection, got %d sends", len(a.sent))
	}
	if len(b.sent) != 1 {
		t.Fatalf("broadcast not forwarded to other connection, got %d sends", len(b.sent))
	}

	select {
	case d := <-deliver:
		if d.Message == nil {
			t.Error("expected decoded message delivery")
		}
	default:
		t.Error("subscriber did not receive the broadcast frame")
	}
}

// Scenario: once a consumer is reported dead, its subscription stops
// receiving deliveries and is cleared from the process-wide cache.
func TestConsumerDeathStopsDeliveryAndClearsCache(t *testing.T) {
	r := newTestRouter()
	deliver := make(chan subscription.Delivery, 4)
	handle := subscription.NewConsumerHandle()
	r.handleSubscribe(subscribeEvent{
		query:   subscription.Query{MessageTypeSet: true, MessageType: 99},
		handle:  handle,
		deliver: deliver,
	})

	if len(r.subscriptions) != 1 {
		t.Fatalf("expected 1 live subscription, got %d", len(r.subscriptions))
	}

	r.handleConsumerDied(consumerDiedEvent{handle: handle})

	if len(r.subscriptions) != 0 {
		t.Errorf("expected subscription removed after consumer death, got %d", len(r.subscriptions))
	}

	r.handleFrameReceived(frameReceivedEvent{connKey: "x", frame: frameFrom(5, 1, 0, 0)})
	select {
	case <-deliver:
		t.Error("dead consumer should not receive further deliveries")
	default:
	}
}

// Spec §3: a subscription is replaced, not duplicated, when an identical
// query is submitted again — the prior delivery channel stops receiving and
// only one registration survives.
func TestSubscribeDedupsIdenticalQuery(t *testing.T) {
	r := newTestRouter()
	q := subscription.Query{MessageTypeSet: true, MessageType: 99}

	firstDeliver := make(chan subscription.Delivery, 4)
	r.handleSubscribe(subscribeEvent{query: q, handle: subscription.NewConsumerHandle(), deliver: firstDeliver})

	secondDeliver := make(chan subscription.Delivery, 4)
	secondHandle := subscription.NewConsumerHandle()
	r.handleSubscribe(subscribeEvent{query: q, handle: secondHandle, deliver: secondDeliver})

	if len(r.subscriptions) != 1 {
		t.Fatalf("expected 1 surviving subscription after identical re-subscribe, got %d", len(r.subscriptions))
	}
	if _, ok := r.subscriptions[secondHandle]; !ok {
		t.Error("expected the newest handle's registration to survive")
	}

	r.handleFrameReceived(frameReceivedEvent{connKey: "x", frame: frameFrom(5, 1, 0, 0)})

	select {
	case <-firstDeliver:
		t.Error("superseded subscription should not receive deliveries")
	default:
	}
	select {
	case <-secondDeliver:
	default:
		t.Error("surviving subscription did not receive the delivery")
	}
}

// The route table always reflects the most recently observed connection
// for a given (system, component), overwriting any prior entry.
func TestRouteTableOverwritesOnNewerFrame(t *testing.T) {
	r := newTestRouter()
	a, b := &fakeSender{}, &fakeSender{}
	r.handleConnectionOpened(connectionOpenedEvent{key: "a", sender: a})
	r.handleConnectionOpened(connectionOpenedEvent{key: "b", sender: b})

	r.handleFrameReceived(frameReceivedEvent{connKey: "a", frame: frameFrom(9, 1, 0, 0)})
	r.handleFrameReceived(frameReceivedEvent{connKey: "b", frame: frameFrom(9, 1, 0, 0)})

	if got := r.routes[routeKey{9, 1}]; got != "b" {
		t.Errorf("route table = %q, want %q (most recent connection)", got, "b")
	}
}

// A locally originated Send targeted at a learned system must reach that
// connection.
func TestHandleSendDispatchesToLearnedRoute(t *testing.T) {
	r := newTestRouter()
	a := &fakeSender{}
	r.handleConnectionOpened(connectionOpenedEvent{key: "a", sender: a})
	r.handleFrameReceived(frameReceivedEvent{connKey: "a", frame: frameFrom(3, 1, 0, 0)})

	r.handleSend(sendEvent{msg: &fakeMessage{tSys: 3}, version: wire.V1})

	if len(a.sent) != 1 {
		t.Fatalf("expected 1 frame sent to learned connection, got %d", len(a.sent))
	}
	if a.sent[0].Sequence != 0 {
		t.Errorf("first locally sent frame should carry sequence 0, got %d", a.sent[0].Sequence)
	}
}

// Sequence numbers wrap modulo 255, not 256, per the interoperability quirk
// this system's frames must reproduce.
func TestSendSequenceWrapsModulo255(t *testing.T) {
	r := newTestRouter()
	r.nextSeq = 254

	first := r.nextSeq
	r.handleSend(sendEvent{msg: &fakeMessage{}, version: wire.V1})
	if first != 254 {
		t.Fatalf("setup invariant broken")
	}
	if r.nextSeq != 0 {
		t.Errorf("sequence after 254 = %d, want wrap to 0 (mod 255)", r.nextSeq)
	}
}
