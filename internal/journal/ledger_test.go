package journal

import "testing"

func TestLedgerRecordSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	action := Action{Kind: "close", SignalID: "42"}
	ledger.Record(action)

	snapshot := ledger.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 action, got %d", len(snapshot))
	}
	if snapshot[0].SignalID != action.SignalID {
		t.Fatalf("unexpected action signal id")
	}

	ledger.Reset()
	if len(ledger.Snapshot()) != 0 {
		t.Fatalf("expected ledger reset")
	}
}
