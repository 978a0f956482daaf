package subcache

import (
	"testing"

	"github.com/brindlebrook/mavrelay/internal/subscription"
)

func TestReplaceAndSnapshotRoundTrip(t *testing.T) {
	t.Cleanup(Reset)

	h := subscription.NewConsumerHandle()
	Replace([]Entry{{Query: subscription.Query{SourceSystem: 3}, Handle: h}})

	got := Snapshot()
	if len(got) != 1 || got[0].Handle != h {
		t.Fatalf("got %+v", got)
	}
}

func TestReplaceIsAtomicSwapNotMutation(t *testing.T) {
	t.Cleanup(Reset)

	Replace([]Entry{{Handle: subscription.NewConsumerHandle()}})
	before := Snapshot()

	Replace([]Entry{{Handle: subscription.NewConsumerHandle()}, {Handle: subscription.NewConsumerHandle()}})
	after := Snapshot()

	if len(before) != 1 {
		t.Fatalf("a snapshot taken before Replace must not observe the new set retroactively, got len %d", len(before))
	}
	if len(after) != 2 {
		t.Fatalf("expected len 2 after replace, got %d", len(after))
	}
}

func TestResetClears(t *testing.T) {
	Replace([]Entry{{Handle: subscription.NewConsumerHandle()}})
	Reset()
	if got := Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot after Reset, got %+v", got)
	}
}
