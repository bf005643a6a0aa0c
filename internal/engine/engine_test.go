package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/efabiofm/tetrasire/internal/correlate"
	"github.com/efabiofm/tetrasire/internal/execution"
	"github.com/efabiofm/tetrasire/internal/gateway"
	"github.com/efabiofm/tetrasire/internal/message"
	"github.com/efabiofm/tetrasire/internal/parse"
	"github.com/efabiofm/tetrasire/internal/risk"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *gateway.Sim) {
	t.Helper()
	sim := gateway.NewSim(10_000)
	sim.SetMeta("XAUUSD", risk.SymbolMeta{
		TickValue:    1,
		TickSize:     0.01,
		ContractSize: 100,
		Point:        0.01,
		VolumeStep:   0.01,
		VolumeMin:    0.01,
		VolumeMax:    100,
	})
	sim.SetPrice("XAUUSD", 1999.8, 2000.2)

	parser := parse.New("XAUUSD", 0)
	mgr := execution.NewManager(sim, execution.Config{
		Magic:         4242,
		RiskPercent:   1,
		LimitBuffer:   0.5,
		PendingExpiry: time.Hour,
		ReduceFactor:  0.5,
	}, parser, zerolog.Nop(), nil)
	corr := correlate.New(parser, time.Minute, 0.5)
	return New(corr, mgr, zerolog.Nop()), sim
}

func TestHandleStandaloneSignalOpensPosition(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "42", Text: "buy 2000 sl 1990 tp 2010", Ts: base})

	positions, _ := sim.ListOpenPositions(ctx)
	if len(positions) != 1 {
		t.Fatalf("expected one open position, got %d", len(positions))
	}
	if positions[0].Tag != gateway.Tag("42") {
		t.Fatalf("position must carry the signal tag, got %q", positions[0].Tag)
	}
}

func TestHandleMergeFlow(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "1", Text: "buy @ 2000", Ts: base})
	if positions, _ := sim.ListOpenPositions(ctx); len(positions) != 0 {
		t.Fatalf("bare signal must not trade yet")
	}

	eng.Handle(ctx, message.Event{ID: "2", ReplyTo: "1", Text: "sl 1990 tp 2050", Ts: base.Add(30 * time.Second)})
	positions, _ := sim.ListOpenPositions(ctx)
	if len(positions) != 1 {
		t.Fatalf("expected merged signal to trade, got %d positions", len(positions))
	}
	if positions[0].Tag != gateway.Tag("1") {
		t.Fatalf("merged trade must carry the parent's signal id, got %q", positions[0].Tag)
	}
}

func TestHandleMergeOutsideWindowIgnored(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "1", Text: "buy @ 2000", Ts: base})
	eng.Handle(ctx, message.Event{ID: "2", ReplyTo: "1", Text: "sl 1990 tp 2050", Ts: base.Add(90 * time.Second)})

	if positions, _ := sim.ListOpenPositions(ctx); len(positions) != 0 {
		t.Fatalf("late amendment must not trade")
	}
}

func TestHandleCloseFlow(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "42", Text: "buy 2000 sl 1990 tp 2010", Ts: base})
	eng.Handle(ctx, message.Event{ID: "43", ReplyTo: "42", Text: "close", Ts: base.Add(5 * time.Minute)})

	if positions, _ := sim.ListOpenPositions(ctx); len(positions) != 0 {
		t.Fatalf("close must flatten the signal's position")
	}
}

func TestHandleCancelFlow(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "42", Text: "buy limit 1995 sl 1985 tp 2015", Ts: base})
	pendings, _ := sim.ListPendingOrders(ctx)
	if len(pendings) != 1 {
		t.Fatalf("expected one pending order, got %d", len(pendings))
	}

	eng.Handle(ctx, message.Event{ID: "43", ReplyTo: "42", Text: "cancel", Ts: base.Add(time.Minute)})
	if pendings, _ := sim.ListPendingOrders(ctx); len(pendings) != 0 {
		t.Fatalf("cancel must remove the pending order")
	}
}

func TestHandleBreakevenIdempotent(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "42", Text: "buy 2000 sl 1990 tp 2010", Ts: base})
	eng.Handle(ctx, message.Event{ID: "43", ReplyTo: "42", Text: "sl move", Ts: base.Add(time.Minute)})

	positions, _ := sim.ListOpenPositions(ctx)
	if len(positions) != 1 {
		t.Fatalf("expected one position, got %d", len(positions))
	}
	entry := positions[0].Entry
	if positions[0].Stop != entry {
		t.Fatalf("expected stop at entry %v, got %v", entry, positions[0].Stop)
	}

	// Second command finds the stop already in place and changes nothing.
	eng.Handle(ctx, message.Event{ID: "44", ReplyTo: "42", Text: "sl move", Ts: base.Add(2 * time.Minute)})
	positions, _ = sim.ListOpenPositions(ctx)
	if positions[0].Stop != entry {
		t.Fatalf("breakeven must be idempotent")
	}
}

func TestHandleChatFilter(t *testing.T) {
	eng, sim := newTestEngine(t)
	eng.chatID = "gold"
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "42", ChatID: "other", Text: "buy 2000 sl 1990 tp 2010", Ts: base})
	if positions, _ := sim.ListOpenPositions(ctx); len(positions) != 0 {
		t.Fatalf("events from other chats must be dropped")
	}

	eng.Handle(ctx, message.Event{ID: "43", ChatID: "gold", Text: "buy 2000 sl 1990 tp 2010", Ts: base})
	if positions, _ := sim.ListOpenPositions(ctx); len(positions) != 1 {
		t.Fatalf("events from the configured chat must be processed")
	}
}

func TestHandleNoiseThenSignalStillProcessed(t *testing.T) {
	eng, sim := newTestEngine(t)
	ctx := context.Background()

	eng.Handle(ctx, message.Event{ID: "1", Text: "gm gm gm", Ts: base})
	eng.Handle(ctx, message.Event{ID: "2", ReplyTo: "missing", Text: "close", Ts: base})
	eng.Handle(ctx, message.Event{ID: "3", Text: "buy 2000 sl 1990 tp 2010", Ts: base})

	if positions, _ := sim.ListOpenPositions(ctx); len(positions) != 1 {
		t.Fatalf("noise must never block later signals")
	}
}

func TestRecentIndexPrunes(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.retention = time.Minute

	eng.Handle(context.Background(), message.Event{ID: "old", Text: "gm", Ts: base})
	eng.Handle(context.Background(), message.Event{ID: "new", Text: "gm", Ts: base.Add(2 * time.Minute)})

	if _, ok := eng.lookup("old"); ok {
		t.Fatalf("expired events must be pruned")
	}
	if _, ok := eng.lookup("new"); !ok {
		t.Fatalf("fresh events must stay addressable")
	}
}
