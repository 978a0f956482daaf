// Package subscription implements the local-consumer filter record and
// match predicate from spec §3/§4.4: a query of zero-or-more constraints
// (0 means wildcard) tested against a decoded frame.
package subscription

import "github.com/google/uuid"

// ConsumerHandle identifies a registered local consumer. Minted from
// google/uuid so handles are comparable and never collide across process
// restarts of the same binary.
type ConsumerHandle uuid.UUID

// NewConsumerHandle mints a fresh handle for a newly registered consumer.
func NewConsumerHandle() ConsumerHandle {
	return ConsumerHandle(uuid.New())
}

func (h ConsumerHandle) String() string { return uuid.UUID(h).String() }

// Query is a subscription filter. A zero value field means "don't care";
// MessageType of 0 (with MessageTypeSet false) also means "don't care" —
// HEARTBEAT is message id 0, so a bare zero value is ambiguous and cannot
// be used to mean wildcard here.
type Query struct {
	MessageType    uint32
	MessageTypeSet bool
	SourceSystem   uint8
	SourceComponent uint8
	TargetSystem   uint8
	TargetComponent uint8
	AsFrame        bool
}

// MatchCandidate is the subset of a decoded frame the predicate needs. It
// is deliberately decoupled from wire.Frame so this package never imports
// wire, keeping the dependency direction router -> {wire, subscription}
// rather than a cycle.
type MatchCandidate struct {
	MessageType     uint32
	SourceSystem    uint8
	SourceComponent uint8
	// Broadcast is true for frames with no resolved target (spec §4.4:
	// "target constraints do not match broadcast frames unless the query's
	// target fields are 0").
	Broadcast       bool
	TargetSystem    uint8
	TargetComponent uint8
}

// Matches reports whether a frame satisfies a query, per spec §4.4: every
// non-zero field of the query must equal the frame's corresponding field,
// and MessageType (if set) must equal the frame's decoded message type.
func Matches(q Query, f MatchCandidate) bool {
	if q.MessageTypeSet && q.MessageType != f.MessageType {
		return false
	}
	if q.SourceSystem != 0 && q.SourceSystem != f.SourceSystem {
		return false
	}
	if q.SourceComponent != 0 && q.SourceComponent != f.SourceComponent {
		return false
	}
	if q.TargetSystem != 0 || q.TargetComponent != 0 {
		if f.Broadcast {
			return false
		}
		if q.TargetSystem != 0 && q.TargetSystem != f.TargetSystem {
			return false
		}
		if q.TargetComponent != 0 && q.TargetComponent != f.TargetComponent {
			return false
		}
	}
	return true
}

// Record pairs a query with the consumer that registered it.
type Record struct {
	Query   Query
	Handle  ConsumerHandle
	Deliver chan<- Delivery
}

// Delivery is what a matched subscriber receives: either the decoded
// message or the full frame, depending on Query.AsFrame. The router fills
// in whichever field applies; this package only defines the shape.
type Delivery struct {
	Message interface{}
	Frame   interface{}
}
