// Package correlate classifies inbound chat events into actionable intents:
// management commands on an earlier signal, a merge of a bare signal with a
// follow-up carrying its levels, or a standalone tradable signal.
package correlate

import (
	"regexp"
	"strconv"
	"time"

	"github.com/efabiofm/tetrasire/internal/message"
	"github.com/efabiofm/tetrasire/internal/parse"
	"github.com/efabiofm/tetrasire/internal/text"
)

// Action enumerates management commands recognized in reply text.
type Action int

const (
	// ActionCancel removes the signal's pending orders.
	ActionCancel Action = iota
	// ActionClose flattens the signal's open positions.
	ActionClose
	// ActionBreakeven moves each position's stop to its own entry price.
	ActionBreakeven
	// ActionStopToEntry moves the stop to the original signal's entry price.
	ActionStopToEntry
	// ActionReduceStop moves the stop a fraction of the way toward entry.
	ActionReduceStop
)

// String names the action for logs and metrics labels.
func (a Action) String() string {
	switch a {
	case ActionCancel:
		return "cancel"
	case ActionClose:
		return "close"
	case ActionBreakeven:
		return "breakeven"
	case ActionStopToEntry:
		return "stop_to_entry"
	case ActionReduceStop:
		return "reduce_stop"
	}
	return "unknown"
}

// Kind discriminates the intent variants.
type Kind int

const (
	// Ignore covers chat noise, incomplete signals, and unrecognized replies.
	Ignore Kind = iota
	// Standalone is a complete signal in a single message.
	Standalone
	// Merged is a bare parent signal completed by a timely reply.
	Merged
	// Manage is a management command on an earlier signal.
	Manage
)

// String names the kind for logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case Standalone:
		return "standalone"
	case Merged:
		return "merged"
	case Manage:
		return "manage"
	}
	return "ignore"
}

// Intent is the single classification result for one event. TargetID names
// the originating signal for Merged and Manage intents.
type Intent struct {
	Kind     Kind
	Signal   parse.Signal
	TargetID string
	Action   Action
	Factor   float64 // ActionReduceStop only
}

// Lookup resolves a reply's parent event by id; ok is false when unknown.
type Lookup func(id string) (message.Event, bool)

// Correlator applies the classification pass with a fixed precedence:
// management keywords, then merge eligibility, then standalone parse.
type Correlator struct {
	parser       *parse.Parser
	window       time.Duration
	reduceFactor float64
}

// New builds a correlator. window bounds the parent/reply merge gap and
// reduceFactor is the default fraction for a bare "sl reduce" command.
func New(parser *parse.Parser, window time.Duration, reduceFactor float64) *Correlator {
	return &Correlator{parser: parser, window: window, reduceFactor: reduceFactor}
}

var (
	cancelRe  = regexp.MustCompile(`\b(delete|cancel)\b`)
	closeRe   = regexp.MustCompile(`\bclose\b`)
	slEntryRe = regexp.MustCompile(`\bsl\s+(entry|original)\b`)
	slRedRe   = regexp.MustCompile(`\bsl\s+reduce(?:\s+(\d+(?:\.\d+)?))?`)
	slMoveRe  = regexp.MustCompile(`\bsl\s+move\b|\bbreakeven\b`)
)

// Correlate classifies one event. Keyword checks run before merge checks
// because management phrases are short and could otherwise pass the merge's
// supplies-stop-and-target test.
func (c *Correlator) Correlate(ev message.Event, lookup Lookup) Intent {
	if ev.IsReply() {
		if intent, ok := c.manage(ev); ok {
			return intent
		}
		if parent, ok := lookup(ev.ReplyTo); ok {
			if merged, ok := c.merge(parent, ev); ok {
				return Intent{Kind: Merged, Signal: merged, TargetID: parent.ID}
			}
		}
	}
	parsed := c.parser.Parse(ev.Text)
	if parsed.Complete() {
		return Intent{Kind: Standalone, Signal: parsed, TargetID: ev.ID}
	}
	return Intent{Kind: Ignore}
}

func (c *Correlator) manage(ev message.Event) (Intent, bool) {
	t := text.Normalize(ev.Text)
	intent := Intent{Kind: Manage, TargetID: ev.ReplyTo}
	switch {
	case cancelRe.MatchString(t):
		intent.Action = ActionCancel
	case closeRe.MatchString(t):
		intent.Action = ActionClose
	case slEntryRe.MatchString(t):
		intent.Action = ActionStopToEntry
	case slRedRe.MatchString(t):
		intent.Action = ActionReduceStop
		intent.Factor = c.reduceFactor
		if m := slRedRe.FindStringSubmatch(t); m[1] != "" {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil && f > 0 && f < 1 {
				intent.Factor = f
			}
		}
	case slMoveRe.MatchString(t):
		intent.Action = ActionBreakeven
	default:
		return Intent{}, false
	}
	return intent, true
}

// merge accepts a parent that supplies side and entry but no levels, and a
// reply that supplies stop and target without its own side, as long as the
// two messages are within the configured window of each other.
func (c *Correlator) merge(parent, reply message.Event) (parse.Signal, bool) {
	gap := reply.Ts.Sub(parent.Ts)
	if gap < 0 {
		gap = -gap
	}
	if gap > c.window {
		return parse.Signal{}, false
	}
	ps := c.parser.Parse(parent.Text)
	if ps.Side == "" || ps.Entry == nil || ps.Stop != nil || ps.Target != nil {
		return parse.Signal{}, false
	}
	rs := c.parser.Parse(reply.Text)
	if rs.Side != "" || rs.Stop == nil || rs.Target == nil {
		return parse.Signal{}, false
	}
	ps.Stop = rs.Stop
	ps.Target = rs.Target
	return ps, true
}
