package subscription

import "testing"

func TestMatchesBasicFields(t *testing.T) {
	f := MatchCandidate{MessageType: 0, SourceSystem: 3, SourceComponent: 1, Broadcast: true}
	q := Query{SourceSystem: 3}
	if !Matches(q, f) {
		t.Fatal("expected match on source_system")
	}
	q2 := Query{SourceSystem: 4}
	if Matches(q2, f) {
		t.Fatal("expected no match on mismatched source_system")
	}
}

func TestMatchesMessageTypeWildcardVsZero(t *testing.T) {
	heartbeat := MatchCandidate{MessageType: 0, Broadcast: true}
	// A query that never set MessageType is a wildcard, even though
	// HEARTBEAT's id is also zero.
	wildcard := Query{}
	if !Matches(wildcard, heartbeat) {
		t.Fatal("wildcard query should match any message type including 0")
	}
	exact := Query{MessageType: 0, MessageTypeSet: true}
	if !Matches(exact, heartbeat) {
		t.Fatal("exact query for message type 0 should match a message type 0 frame")
	}
	other := Query{MessageType: 1, MessageTypeSet: true}
	if Matches(other, heartbeat) {
		t.Fatal("query for message type 1 should not match message type 0")
	}
}

func TestMatchesTargetFieldsExcludeBroadcast(t *testing.T) {
	q := Query{TargetSystem: 2}
	broadcastFrame := MatchCandidate{Broadcast: true}
	if Matches(q, broadcastFrame) {
		t.Fatal("a query with a non-zero target field must not match a broadcast frame")
	}
	targeted := MatchCandidate{Broadcast: false, TargetSystem: 2}
	if !Matches(q, targeted) {
		t.Fatal("expected match on targeted frame with matching target_system")
	}
}

func TestMatchesZeroTargetQueryAllowsBroadcast(t *testing.T) {
	q := Query{} // fully wildcard
	broadcastFrame := MatchCandidate{Broadcast: true}
	if !Matches(q, broadcastFrame) {
		t.Fatal("an all-wildcard query should match a broadcast frame")
	}
}

// TestMatchesMonotoneInWildcards is the invariant from spec §8: replacing a
// non-zero query field with 0 (i.e. adding a wildcard) never shrinks the
// match set.
func TestMatchesMonotoneInWildcards(t *testing.T) {
	frames := []MatchCandidate{
		{MessageType: 0, SourceSystem: 1, SourceComponent: 1, Broadcast: true},
		{MessageType: 0, SourceSystem: 1, SourceComponent: 1, Broadcast: false, TargetSystem: 2, TargetComponent: 1},
		{MessageType: 5, SourceSystem: 3, SourceComponent: 1, Broadcast: true},
		{MessageType: 5, SourceSystem: 9, SourceComponent: 9, Broadcast: false, TargetSystem: 9, TargetComponent: 9},
	}

	queries := []Query{
		{MessageType: 5, MessageTypeSet: true, SourceSystem: 1, SourceComponent: 1, TargetSystem: 2, TargetComponent: 1},
		{MessageType: 0, MessageTypeSet: true, SourceSystem: 3, SourceComponent: 1},
		{SourceSystem: 9, TargetSystem: 9, TargetComponent: 9},
	}

	// Every single-field wildcard-ing of a query must match a superset of
	// frames relative to the original query.
	for _, q := range queries {
		base := matchSet(q, frames)
		for _, relaxed := range relaxations(q) {
			relaxedSet := matchSet(relaxed, frames)
			for i, matched := range base {
				if matched && !relaxedSet[i] {
					t.Errorf("relaxing %+v to %+v lost a match on frame %d (%+v)", q, relaxed, i, frames[i])
				}
			}
		}
	}
}

func matchSet(q Query, frames []MatchCandidate) []bool {
	out := make([]bool, len(frames))
	for i, f := range frames {
		out[i] = Matches(q, f)
	}
	return out
}

// relaxations returns every query obtained by clearing exactly one
// currently-set (non-wildcard) field of q.
func relaxations(q Query) []Query {
	var out []Query
	if q.MessageTypeSet {
		r := q
		r.MessageTypeSet = false
		r.MessageType = 0
		out = append(out, r)
	}
	if q.SourceSystem != 0 {
		r := q
		r.SourceSystem = 0
		out = append(out, r)
	}
	if q.SourceComponent != 0 {
		r := q
		r.SourceComponent = 0
		out = append(out, r)
	}
	if q.TargetSystem != 0 {
		r := q
		r.TargetSystem = 0
		out = append(out, r)
	}
	if q.TargetComponent != 0 {
		r := q
		r.TargetComponent = 0
		out = append(out, r)
	}
	return out
}

func TestConsumerHandlesAreDistinct(t *testing.T) {
	a := NewConsumerHandle()
	b := NewConsumerHandle()
	if a == b {
		t.Fatal("expected distinct handles")
	}
	if a.String() == "" {
		t.Fatal("expected non-empty string form")
	}
}
