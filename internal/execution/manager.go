// Package execution drives order lifecycle against the trade gateway: order
// submission, cancellation, closing, and stop adjustments with bounded
// fallback retries.
package execution

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/efabiofm/tetrasire/internal/gateway"
	"github.com/efabiofm/tetrasire/internal/journal"
	"github.com/efabiofm/tetrasire/internal/metrics"
	"github.com/efabiofm/tetrasire/internal/parse"
	"github.com/efabiofm/tetrasire/internal/risk"
)

const epsilon = 1e-9

// Recorder captures executed lifecycle actions for the trade journal.
type Recorder interface {
	Record(journal.Action)
}

// Config is the read-only runtime policy shared by all lifecycle actions.
type Config struct {
	Magic         int           // strategy tag stamped on every order
	RiskPercent   float64       // percent of balance at risk per trade
	LimitBuffer   float64       // price units a limit rests away from entry
	MarketBuffer  float64       // tolerated slippage on market orders
	PendingExpiry time.Duration // horizon for resting orders
	ReduceFactor  float64       // fallback stop-reduction fraction
	LimitOnly     bool          // force pending placement even for market signals
}

// Manager executes resolved signals and management commands against the
// gateway. It holds no book state; every action re-queries the venue.
type Manager struct {
	gw     gateway.Gateway
	cfg    Config
	sizer  risk.Sizer
	parser *parse.Parser
	log    zerolog.Logger
	rec    Recorder
}

// NewManager wires a lifecycle manager. rec may be nil to skip journaling.
func NewManager(gw gateway.Gateway, cfg Config, parser *parse.Parser, log zerolog.Logger, rec Recorder) *Manager {
	return &Manager{
		gw:     gw,
		cfg:    cfg,
		sizer:  risk.Sizer{RiskPercent: cfg.RiskPercent},
		parser: parser,
		log:    log,
		rec:    rec,
	}
}

// Submit places the order for a complete signal: a market order for market
// signals, a resting limit for limit signals. A computed lot of zero aborts
// with no gateway call. Rejected submissions are logged and dropped; new
// orders are never retried.
func (m *Manager) Submit(ctx context.Context, signalID string, sig parse.Signal) error {
	if !sig.Complete() {
		m.log.Debug().Str("signal", signalID).Msg("incomplete signal dropped")
		return nil
	}

	balance, err := m.gw.AccountBalance(ctx)
	if err != nil {
		return err
	}
	meta, err := m.gw.SymbolMetadata(ctx, sig.Symbol)
	if err != nil {
		return err
	}

	kind := sig.Kind
	if m.cfg.LimitOnly {
		kind = parse.Limit
	}
	if kind == parse.Limit {
		return m.submitPending(ctx, signalID, sig, meta, balance)
	}
	return m.submitMarket(ctx, signalID, sig, meta, balance)
}

func (m *Manager) submitMarket(ctx context.Context, signalID string, sig parse.Signal, meta risk.SymbolMeta, balance float64) error {
	price, err := m.gw.CurrentPrice(ctx, sig.Symbol, sig.Side)
	if err != nil {
		return err
	}
	lots, err := m.sizer.Lots(meta, balance, price, *sig.Stop)
	if err != nil {
		m.log.Warn().Err(err).Str("signal", signalID).Msg("sizing failed, signal dropped")
		return nil
	}
	if lots <= 0 {
		m.log.Warn().Str("signal", signalID).Msg("computed lot below venue minimum, no trade")
		return nil
	}

	res, err := m.gw.SubmitMarketOrder(ctx, gateway.MarketRequest{
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Volume:    lots,
		Price:     price,
		Stop:      *sig.Stop,
		Target:    *sig.Target,
		Deviation: m.cfg.MarketBuffer,
		Magic:     m.cfg.Magic,
		Tag:       gateway.Tag(signalID),
	})
	if err != nil {
		return err
	}
	m.record(journal.Action{Kind: "market_order", SignalID: signalID, Symbol: sig.Symbol,
		Side: string(sig.Side), Volume: lots, Price: price, Stop: *sig.Stop, Target: *sig.Target, OK: res.OK})
	if !res.OK {
		metrics.RejectionsTotal.WithLabelValues("market_order").Inc()
		m.log.Error().Str("signal", signalID).Int("code", res.Code).Str("info", res.Info).Msg("market order rejected")
		return nil
	}
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, string(sig.Side)).Inc()
	m.log.Info().Str("signal", signalID).Str("sym", sig.Symbol).Str("side", string(sig.Side)).
		Float64("lots", lots).Float64("px", price).Msg("market order placed")
	return nil
}

func (m *Manager) submitPending(ctx context.Context, signalID string, sig parse.Signal, meta risk.SymbolMeta, balance float64) error {
	// The limit rests on the far side of the signaled entry so it only
	// fills once price trades through: buys below entry, sells above.
	price := *sig.Entry - m.cfg.LimitBuffer
	if sig.Side == parse.Sell {
		price = *sig.Entry + m.cfg.LimitBuffer
	}
	lots, err := m.sizer.Lots(meta, balance, price, *sig.Stop)
	if err != nil {
		m.log.Warn().Err(err).Str("signal", signalID).Msg("sizing failed, signal dropped")
		return nil
	}
	if lots <= 0 {
		m.log.Warn().Str("signal", signalID).Msg("computed lot below venue minimum, no trade")
		return nil
	}

	res, err := m.gw.SubmitPendingOrder(ctx, gateway.PendingRequest{
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Volume:    lots,
		Price:     price,
		Stop:      *sig.Stop,
		Target:    *sig.Target,
		Magic:     m.cfg.Magic,
		Tag:       gateway.Tag(signalID),
		ExpiresAt: time.Now().Add(m.cfg.PendingExpiry),
	})
	if err != nil {
		return err
	}
	m.record(journal.Action{Kind: "pending_order", SignalID: signalID, Symbol: sig.Symbol,
		Side: string(sig.Side), Volume: lots, Price: price, Stop: *sig.Stop, Target: *sig.Target, OK: res.OK})
	if !res.OK {
		metrics.RejectionsTotal.WithLabelValues("pending_order").Inc()
		m.log.Error().Str("signal", signalID).Int("code", res.Code).Str("info", res.Info).Msg("pending order rejected")
		return nil
	}
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, string(sig.Side)).Inc()
	m.log.Info().Str("signal", signalID).Str("sym", sig.Symbol).Str("side", string(sig.Side)).
		Float64("lots", lots).Float64("px", price).Msg("pending order placed")
	return nil
}

// Cancel removes every pending order tagged with the signal id. Zero
// matches is a benign no-op.
func (m *Manager) Cancel(ctx context.Context, signalID string) error {
	metrics.ManagementTotal.WithLabelValues("cancel").Inc()
	orders, err := m.gw.ListPendingOrders(ctx)
	if err != nil {
		return err
	}
	tag := gateway.Tag(signalID)
	removed := 0
	for _, ord := range orders {
		if ord.Tag != tag {
			continue
		}
		res, err := m.gw.CancelPendingOrder(ctx, ord.Ref)
		if err != nil {
			return err
		}
		m.record(journal.Action{Kind: "cancel", SignalID: signalID, Symbol: ord.Symbol, OK: res.OK})
		if !res.OK {
			metrics.RejectionsTotal.WithLabelValues("cancel").Inc()
			m.log.Error().Str("signal", signalID).Int("code", res.Code).Msg("cancel rejected")
			continue
		}
		removed++
	}
	m.log.Info().Str("signal", signalID).Int("removed", removed).Msg("cancel handled")
	return nil
}

// Close flattens every open position tagged with the signal id via an
// opposing market deal, retrying each rejected close exactly once. It also
// cancels the signal's pending orders, since close can mean never-fill for
// an order that has not traded yet.
func (m *Manager) Close(ctx context.Context, signalID string) error {
	metrics.ManagementTotal.WithLabelValues("close").Inc()
	positions, err := m.gw.ListOpenPositions(ctx)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		if !m.owns(pos, signalID) {
			continue
		}
		price, err := m.gw.CurrentPrice(ctx, pos.Symbol, opposite(pos.Side))
		if err != nil {
			return err
		}
		res, err := m.gw.ClosePosition(ctx, pos.Ref, pos.Volume, price)
		if err != nil {
			return err
		}
		if !res.OK {
			metrics.RejectionsTotal.WithLabelValues("close").Inc()
			m.log.Warn().Str("signal", signalID).Int("code", res.Code).Msg("close rejected, retrying once")
			res, err = m.gw.ClosePosition(ctx, pos.Ref, pos.Volume, price)
			if err != nil {
				return err
			}
		}
		m.record(journal.Action{Kind: "close", SignalID: signalID, Symbol: pos.Symbol,
			Side: string(pos.Side), Volume: pos.Volume, Price: price, OK: res.OK})
		if !res.OK {
			m.log.Error().Str("signal", signalID).Int("code", res.Code).Msg("close rejected twice, giving up")
		}
	}
	return m.Cancel(ctx, signalID)
}

// MoveStopBreakeven sets each matching position's stop to its own entry
// price. A stop already at entry is left untouched. On rejection the stop
// is instead reduced part way toward entry rather than left fully exposed.
func (m *Manager) MoveStopBreakeven(ctx context.Context, signalID string) error {
	metrics.ManagementTotal.WithLabelValues("breakeven").Inc()
	return m.moveStops(ctx, signalID, func(pos gateway.Position) float64 { return pos.Entry })
}

// MoveStopToEntry re-parses the original signal text to recover its entry
// price and moves each matching position's stop there. Without a parseable
// entry the command is a logged no-op.
func (m *Manager) MoveStopToEntry(ctx context.Context, signalID, originalText string) error {
	metrics.ManagementTotal.WithLabelValues("stop_to_entry").Inc()
	parsed := m.parser.Parse(originalText)
	if parsed.Entry == nil {
		m.log.Warn().Str("signal", signalID).Msg("original signal has no entry, stop move skipped")
		return nil
	}
	return m.moveStops(ctx, signalID, func(gateway.Position) float64 { return *parsed.Entry })
}

// ReduceStop moves each matching position's stop a fraction of the way
// toward entry. A rejected modification is retried exactly once.
func (m *Manager) ReduceStop(ctx context.Context, signalID string, factor float64) error {
	metrics.ManagementTotal.WithLabelValues("reduce_stop").Inc()
	positions, err := m.gw.ListOpenPositions(ctx)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		if !m.owns(pos, signalID) {
			continue
		}
		if err := m.modifyWithRetry(ctx, signalID, pos, reducedStop(pos, factor)); err != nil {
			return err
		}
	}
	return nil
}

// moveStops applies target(pos) as the new stop for every matching
// position, falling back to a partial reduction when the venue rejects.
func (m *Manager) moveStops(ctx context.Context, signalID string, target func(gateway.Position) float64) error {
	positions, err := m.gw.ListOpenPositions(ctx)
	if err != nil {
		return err
	}
	for _, pos := range positions {
		if !m.owns(pos, signalID) {
			continue
		}
		newStop := target(pos)
		if math.Abs(pos.Stop-newStop) <= epsilon {
			m.log.Debug().Str("signal", signalID).Msg("stop already in place")
			continue
		}
		res, err := m.gw.ModifyStop(ctx, pos.Ref, newStop)
		if err != nil {
			return err
		}
		m.record(journal.Action{Kind: "modify_stop", SignalID: signalID, Symbol: pos.Symbol, Stop: newStop, OK: res.OK})
		if res.OK {
			continue
		}
		metrics.RejectionsTotal.WithLabelValues("modify_stop").Inc()
		fallback := reducedStop(pos, m.cfg.ReduceFactor)
		m.log.Warn().Str("signal", signalID).Float64("fallback", fallback).
			Msg("stop move rejected, reducing part way instead")
		res, err = m.gw.ModifyStop(ctx, pos.Ref, fallback)
		if err != nil {
			return err
		}
		m.record(journal.Action{Kind: "modify_stop", SignalID: signalID, Symbol: pos.Symbol, Stop: fallback, OK: res.OK})
		if !res.OK {
			m.log.Error().Str("signal", signalID).Int("code", res.Code).Msg("fallback stop move rejected, giving up")
		}
	}
	return nil
}

func (m *Manager) modifyWithRetry(ctx context.Context, signalID string, pos gateway.Position, newStop float64) error {
	if math.Abs(pos.Stop-newStop) <= epsilon {
		return nil
	}
	res, err := m.gw.ModifyStop(ctx, pos.Ref, newStop)
	if err != nil {
		return err
	}
	if !res.OK {
		metrics.RejectionsTotal.WithLabelValues("modify_stop").Inc()
		res, err = m.gw.ModifyStop(ctx, pos.Ref, newStop)
		if err != nil {
			return err
		}
	}
	m.record(journal.Action{Kind: "modify_stop", SignalID: signalID, Symbol: pos.Symbol, Stop: newStop, OK: res.OK})
	if !res.OK {
		m.log.Error().Str("signal", signalID).Int("code", res.Code).Msg("stop reduction rejected twice, giving up")
	}
	return nil
}

// owns matches venue state to a signal by exact tag and strategy magic.
func (m *Manager) owns(pos gateway.Position, signalID string) bool {
	return pos.Tag == gateway.Tag(signalID) && pos.Magic == m.cfg.Magic
}

// reducedStop moves the stop factor of the way from its current level
// toward entry; factor in (0,1) never reaches entry.
func reducedStop(pos gateway.Position, factor float64) float64 {
	return pos.Entry + (pos.Stop-pos.Entry)*factor
}

func opposite(side parse.Side) parse.Side {
	if side == parse.Buy {
		return parse.Sell
	}
	return parse.Buy
}

func (m *Manager) record(action journal.Action) {
	if m.rec == nil {
		return
	}
	action.Ts = time.Now()
	m.rec.Record(action)
}
