package router

import (
	"errors"

	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/subscription"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

func (r *Router) handleFrameReceived(e frameReceivedEvent) {
	if e.err != nil && !errors.Is(e.err, wire.ErrUnknownMessage) {
		// not_a_frame / failed_crc: local to the adapter, never forwarded.
		r.stats.connection(e.connKey).recordError(e.err)
		mavlog.L().Debug("router: dropping frame", zap.String("connection", e.connKey), zap.Error(e.err))
		return
	}
	frame := e.frame
	if frame == nil {
		return
	}

	r.stats.connection(e.connKey).recordIn()
	r.learnRoute(frame, e.connKey)

	targets := r.resolveTargets(frame, e.connKey)
	for _, key := range targets {
		r.forwardTo(key, frame)
	}

	if errors.Is(e.err, wire.ErrUnknownMessage) {
		// Spec §4.1/§7: unknown messages are still forwarded raw, but never
		// delivered to local subscribers (nothing to filter on).
		r.stats.connection(e.connKey).recordError(e.err)
		return
	}
	r.deliverToSubscribers(frame)
}

func (r *Router) handleSend(e sendEvent) {
	entry, ok := r.dispatcher.Lookup(e.msg.MessageID())
	if !ok {
		mavlog.L().Warn(errProtocolUndefined.Error(), zap.Uint32("message_id", e.msg.MessageID()))
		return
	}

	seq := r.nextSeq
	r.nextSeq = (r.nextSeq + 1) % 255

	frame := wire.PackFrame(e.version, e.msg, entry.CRCExtra, seq, r.localSystem, r.localComponent)

	targets := r.resolveTargets(frame, "")
	for _, key := range targets {
		r.forwardTo(key, frame)
	}
	r.deliverToSubscribers(frame)
}

// learnRoute implements spec §4.4: "on every valid frame with a parsed
// source, set routes[(source_system, source_component)] = source
// connection key, overwriting any previous entry."
func (r *Router) learnRoute(frame *wire.Frame, connKey string) {
	if frame.SourceSystem == 0 || frame.SourceComponent == 0 {
		return
	}
	r.routes[routeKey{frame.SourceSystem, frame.SourceComponent}] = connKey
}

// resolveTargets implements the broadcast/targeted dispatch policy of spec
// §4.4. sourceKey is "" for locally originated messages (no connection to
// exclude); otherwise it is excluded from a broadcast fan-out so the router
// never forwards a frame back to the connection it arrived on.
func (r *Router) resolveTargets(frame *wire.Frame, sourceKey string) []string {
	if frame.Target == wire.TargetBroadcast {
		var out []string
		for key := range r.connections {
			if key == sourceKey {
				continue
			}
			out = append(out, key)
		}
		return out
	}
	return r.lookupRoutes(frame.TargetSystem, frame.TargetComponent)
}

// lookupRoutes resolves a (target_system, target_component) query against
// the route table with 0-wildcard semantics (spec §3/§4.4), deduplicating
// connection keys when multiple routes match.
func (r *Router) lookupRoutes(targetSystem, targetComponent uint8) []string {
	seen := make(map[string]bool)
	var out []string
	for k, connKey := range r.routes {
		sysMatch := targetSystem == 0 || k.system == targetSystem
		compMatch := targetComponent == 0 || k.component == targetComponent
		if sysMatch && compMatch && !seen[connKey] {
			seen[connKey] = true
			out = append(out, connKey)
		}
	}
	return out
}

func (r *Router) forwardTo(connKey string, frame *wire.Frame) {
	conn, ok := r.connections[connKey]
	if !ok || conn.state != StateOpen {
		return
	}
	if err := conn.sender.Send(frame); err != nil {
		mavlog.L().Warn("router: send failed", zap.String("connection", connKey), zap.Error(err))
		r.stats.connection(connKey).recordError(err)
		return
	}
	r.stats.connection(connKey).recordOut()
}

func (r *Router) deliverToSubscribers(frame *wire.Frame) {
	candidate := subscription.MatchCandidate{
		MessageType:     frame.MessageID,
		SourceSystem:    frame.SourceSystem,
		SourceComponent: frame.SourceComponent,
		Broadcast:       frame.Target == wire.TargetBroadcast,
		TargetSystem:    frame.TargetSystem,
		TargetComponent: frame.TargetComponent,
	}
	for handle, rec := range r.subscriptions {
		if !subscription.Matches(rec.Query, candidate) {
			continue
		}
		delivery := subscription.Delivery{}
		if rec.Query.AsFrame {
			delivery.Frame = frame
		} else {
			delivery.Message = frame.Decoded
		}
		select {
		case rec.Deliver <- delivery:
		default:
			mavlog.L().Warn("router: subscriber channel full, dropping delivery", zap.String("handle", handle.String()))
		}
	}
}

func (r *Router) handleSubscribe(e subscribeEvent) {
	// Spec §3: a subscription is removed "when replaced by an identical
	// query (deduplication)." Subscribe always mints a fresh handle, so
	// dedup has to match on the Query value itself — drop any existing
	// registration whose query equals this one before adding the new
	// handle, not just one keyed by the same (always-new) handle.
	for handle, rec := range r.subscriptions {
		if rec.Query == e.query {
			delete(r.subscriptions, handle)
		}
	}
	r.subscriptions[e.handle] = subscription.Record{Query: e.query, Handle: e.handle, Deliver: e.deliver}
	r.syncSubscriptionCache()
}

func (r *Router) handleUnsubscribe(e unsubscribeEvent) {
	delete(r.subscriptions, e.handle)
	r.syncSubscriptionCache()
}

func (r *Router) handleConsumerDied(e consumerDiedEvent) {
	delete(r.subscriptions, e.handle)
	r.syncSubscriptionCache()
}

func (r *Router) handleConnectionOpened(e connectionOpenedEvent) {
	r.connections[e.key] = &connectionEntry{sender: e.sender, state: StateOpen}
}

func (r *Router) handleConnectionClosed(e connectionClosedEvent) {
	delete(r.connections, e.key)
	r.stats.removeConnection(e.key)
}
