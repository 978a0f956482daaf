// Package router implements the single-threaded routing actor from spec
// §4.4/§5: one goroutine owns the route table, connection map, and
// subscription list exclusively, processing one inbox event at a time.
// Adapters and local consumers never touch that state directly — they
// enqueue events and are notified through their own channels.
package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/subcache"
	"github.com/brindlebrook/mavrelay/internal/subscription"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

// Sender is what a connection adapter exposes to the router: a non-blocking
// (from the router's perspective — see event queueing below) way to push a
// frame out over that transport. Adapters own their own I/O goroutine and
// any buffering; Send should not block the router actor for long.
type Sender interface {
	Send(frame *wire.Frame) error
}

// ConnectionState mirrors the lifecycle in spec §4.4.
type ConnectionState int

const (
	StateInit ConnectionState = iota
	StateOpen
	StateReconnecting
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "init"
	}
}

type connectionEntry struct {
	sender Sender
	state  ConnectionState
}

// routeKey is (system_id, component_id); wildcard 0 is never stored here,
// only used as a lookup query (spec §3).
type routeKey struct {
	system, component uint8
}

// Router is the actor described in spec §5. Zero value is not usable; build
// with New.
type Router struct {
	dispatcher    wire.Dispatcher
	localSystem   uint8
	localComponent uint8

	routes        map[routeKey]string
	connections   map[string]*connectionEntry
	subscriptions map[subscription.ConsumerHandle]subscription.Record
	nextSeq       uint8

	stats *Stats

	inbox chan event
}

// New constructs a Router. dispatcher resolves message ids for the active
// dialect (spec §7: "no_dialect_set" — callers must supply a non-nil one;
// there is no dialect-less router).
func New(dispatcher wire.Dispatcher, localSystem, localComponent uint8) *Router {
	return &Router{
		dispatcher:     dispatcher,
		localSystem:    localSystem,
		localComponent: localComponent,
		routes:         make(map[routeKey]string),
		connections:    make(map[string]*connectionEntry),
		subscriptions:  make(map[subscription.ConsumerHandle]subscription.Record),
		stats:          NewStats(),
		inbox:          make(chan event, 256),
	}
}

// Run processes the inbox until ctx is cancelled. On the way out it drops
// every connection record and clears the route table; it does not close
// the adapters themselves (Sender has no close method). The subscription
// cache is left as it is.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case ev := <-r.inbox:
			r.handle(ev)
		}
	}
}

func (r *Router) shutdown() {
	for key := range r.connections {
		delete(r.connections, key)
	}
	r.routes = make(map[routeKey]string)
}

func (r *Router) handle(ev event) {
	switch e := ev.(type) {
	case frameReceivedEvent:
		r.handleFrameReceived(e)
	case sendEvent:
		r.handleSend(e)
	case subscribeEvent:
		r.handleSubscribe(e)
	case unsubscribeEvent:
		r.handleUnsubscribe(e)
	case consumerDiedEvent:
		r.handleConsumerDied(e)
	case connectionOpenedEvent:
		r.handleConnectionOpened(e)
	case connectionClosedEvent:
		r.handleConnectionClosed(e)
	}
}

// syncSubscriptionCache mirrors the actor's live subscription set into the
// process-wide cache (spec §4.5) after every add/remove. The router only
// writes the cache: New starts with an empty subscription set and does not
// read entries back from it.
func (r *Router) syncSubscriptionCache() {
	entries := make([]subcache.Entry, 0, len(r.subscriptions))
	for handle, rec := range r.subscriptions {
		entries = append(entries, subcache.Entry{Query: rec.Query, Handle: handle})
	}
	subcache.Replace(entries)
}

// --- public, concurrency-safe entry points: enqueue and return -------------

// NotifyFrame is called by an adapter's I/O goroutine for every frame (or
// frame error) it produces. Non-blocking: it drops the event (and logs)
// rather than block the caller if the inbox is saturated, since a stuck
// router must not back-pressure every adapter into a stall.
func (r *Router) NotifyFrame(connKey string, frame *wire.Frame, err error) {
	r.enqueue(frameReceivedEvent{connKey: connKey, frame: frame, err: err})
}

// Send enqueues a locally originated message for packing and dispatch.
func (r *Router) Send(msg wire.Message, version wire.Version) {
	r.enqueue(sendEvent{msg: msg, version: version})
}

// Subscribe registers a local consumer's filter. The returned channel
// receives every matching delivery until Unsubscribe is called or the
// consumer is reported dead.
func (r *Router) Subscribe(q subscription.Query) (subscription.ConsumerHandle, <-chan subscription.Delivery) {
	handle := subscription.NewConsumerHandle()
	deliver := make(chan subscription.Delivery, 32)
	r.enqueue(subscribeEvent{query: q, handle: handle, deliver: deliver})
	return handle, deliver
}

// Unsubscribe removes all registrations for handle.
func (r *Router) Unsubscribe(handle subscription.ConsumerHandle) {
	r.enqueue(unsubscribeEvent{handle: handle})
}

// ConsumerDied is called when a consumer's delivery channel is known to be
// abandoned (e.g. its reader goroutine exited). Spec §5: "consumer-death
// triggers automatic unsubscribe."
func (r *Router) ConsumerDied(handle subscription.ConsumerHandle) {
	r.enqueue(consumerDiedEvent{handle: handle})
}

// AddConnection registers (or replaces, on reconnect) a connection's
// sender. Adapters call this once bind/connect succeeds.
//
// The parameter is an unnamed interface literal rather than Sender: Go
// treats a defined interface type as distinct from a structurally
// identical unnamed one, so matching transport.ConnectionNotifier's
// signature here (which cannot name Sender without importing router)
// requires the literal form. sender is assignable to the Sender-typed
// field below regardless.
func (r *Router) AddConnection(key string, sender interface{ Send(frame *wire.Frame) error }) {
	r.enqueue(connectionOpenedEvent{key: key, sender: sender})
}

// RemoveConnection tears down a connection record on close/error. The
// adapter is expected to schedule its own reconnect and call AddConnection
// again later (spec §9: "the router merely removes the connection record
// and expects the adapter to re-register").
func (r *Router) RemoveConnection(key string) {
	r.enqueue(connectionClosedEvent{key: key})
}

// Stats returns the router's per-connection counters (supplemental to
// spec §7's error taxonomy; see stats.go).
func (r *Router) Stats() *Stats { return r.stats }

func (r *Router) enqueue(ev event) {
	select {
	case r.inbox <- ev:
	default:
		mavlog.L().Warn("router: inbox saturated, dropping event", zap.String("event", ev.name()))
	}
}

var errProtocolUndefined = fmt.Errorf("router: %w", wire.ErrProtocolUndefined)
