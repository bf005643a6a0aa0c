// Package engine routes each inbound chat event through classification to
// execution, strictly one event at a time in arrival order.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/efabiofm/tetrasire/internal/correlate"
	"github.com/efabiofm/tetrasire/internal/execution"
	"github.com/efabiofm/tetrasire/internal/message"
	"github.com/efabiofm/tetrasire/internal/metrics"
)

const defaultRetention = 24 * time.Hour

// Engine is the single entry point for inbound events. It keeps a pruned
// in-memory index of recent events so replies can resolve their parents;
// nothing survives a restart.
type Engine struct {
	corr      *correlate.Correlator
	mgr       *execution.Manager
	log       zerolog.Logger
	chatID    string
	retention time.Duration
	recent    map[string]message.Event
	order     []string // insertion order for pruning
}

// Option configures Engine construction parameters.
type Option func(*Engine)

// WithChatFilter drops events from any chat other than id. Empty disables
// the filter.
func WithChatFilter(id string) Option {
	return func(e *Engine) { e.chatID = id }
}

// WithRetention overrides how long resolved events stay addressable by
// replies.
func WithRetention(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retention = d
		}
	}
}

// New wires the dispatcher.
func New(corr *correlate.Correlator, mgr *execution.Manager, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		corr:      corr,
		mgr:       mgr,
		log:       log,
		retention: defaultRetention,
		recent:    make(map[string]message.Event),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run consumes events until the context is canceled. Processing is
// sequential; a gateway call for one event blocks the next event.
func (e *Engine) Run(ctx context.Context, events <-chan message.Event) {
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("engine shutting down")
			return
		case ev := <-events:
			e.Handle(ctx, ev)
		}
	}
}

// Handle processes one event end to end. Per-event failures are logged and
// never stop the loop.
func (e *Engine) Handle(ctx context.Context, ev message.Event) {
	metrics.MessagesTotal.Inc()
	if e.chatID != "" && ev.ChatID != "" && ev.ChatID != e.chatID {
		return
	}
	e.remember(ev)

	intent := e.corr.Correlate(ev, e.lookup)
	metrics.IntentsTotal.WithLabelValues(intent.Kind.String()).Inc()

	var err error
	switch intent.Kind {
	case correlate.Standalone:
		err = e.mgr.Submit(ctx, ev.ID, intent.Signal)
	case correlate.Merged:
		err = e.mgr.Submit(ctx, intent.TargetID, intent.Signal)
	case correlate.Manage:
		err = e.manage(ctx, intent)
	default:
		e.log.Debug().Str("id", ev.ID).Msg("event ignored")
	}
	if err != nil {
		e.log.Error().Err(err).Str("id", ev.ID).Msg("event handling failed")
	}
}

func (e *Engine) manage(ctx context.Context, intent correlate.Intent) error {
	e.log.Info().Str("action", intent.Action.String()).Str("signal", intent.TargetID).Msg("management command")
	switch intent.Action {
	case correlate.ActionCancel:
		return e.mgr.Cancel(ctx, intent.TargetID)
	case correlate.ActionClose:
		return e.mgr.Close(ctx, intent.TargetID)
	case correlate.ActionBreakeven:
		return e.mgr.MoveStopBreakeven(ctx, intent.TargetID)
	case correlate.ActionStopToEntry:
		originalText := ""
		if parent, ok := e.lookup(intent.TargetID); ok {
			originalText = parent.Text
		}
		return e.mgr.MoveStopToEntry(ctx, intent.TargetID, originalText)
	case correlate.ActionReduceStop:
		return e.mgr.ReduceStop(ctx, intent.TargetID, intent.Factor)
	}
	return nil
}

func (e *Engine) lookup(id string) (message.Event, bool) {
	ev, ok := e.recent[id]
	return ev, ok
}

func (e *Engine) remember(ev message.Event) {
	if ev.ID == "" {
		return
	}
	if _, seen := e.recent[ev.ID]; !seen {
		e.order = append(e.order, ev.ID)
	}
	e.recent[ev.ID] = ev
	e.prune(ev.Ts)
}

func (e *Engine) prune(now time.Time) {
	cut := 0
	for _, id := range e.order {
		ev, ok := e.recent[id]
		if ok && now.Sub(ev.Ts) <= e.retention {
			break
		}
		delete(e.recent, id)
		cut++
	}
	if cut > 0 {
		e.order = e.order[cut:]
	}
}
