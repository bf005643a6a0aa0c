// Package parse extracts structured trading intent from free-text messages.
package parse

import (
	"regexp"
	"strconv"

	"github.com/efabiofm/tetrasire/internal/text"
)

// Side enumerates trade directions recovered from message text.
type Side string

const (
	// Buy indicates a long signal.
	Buy Side = "BUY"
	// Sell indicates a short signal.
	Sell Side = "SELL"
)

// Kind selects market versus pending placement.
type Kind string

const (
	// Market orders execute at the current venue price.
	Market Kind = "MARKET"
	// Limit orders rest at the signaled entry until filled or expired.
	Limit Kind = "LIMIT"
)

// Signal carries whatever the grammar recovered from one message.
// Absent numeric fields are nil; an absent side is the empty string.
type Signal struct {
	Symbol string
	Side   Side
	Kind   Kind
	Entry  *float64
	Stop   *float64
	Target *float64
}

// Complete reports whether the signal carries everything needed to trade.
func (s Signal) Complete() bool {
	return s.Side != "" && s.Entry != nil && s.Stop != nil && s.Target != nil
}

var (
	sideRe  = regexp.MustCompile(`\b(buy|sell)\b`)
	limitRe = regexp.MustCompile(`\blimit\b`)
	entryRe = regexp.MustCompile(`@?\s*\b(\d+(?:\.\d+)?)\b`)
	stopRe  = regexp.MustCompile(`\bsl\s*@?\s*(\d+(?:\.\d+)?)`)
	tpRe    = regexp.MustCompile(`\btp\d*\s*@?\s*(\d+(?:\.\d+)?)`)
)

// Parser applies the signal grammar with a configured take-profit ordinal.
// It is total: malformed input yields absent fields, never an error.
type Parser struct {
	symbol  string
	tpIndex int // 1-based ordinal into the TP match list; 0 means first
}

// New builds a parser that stamps signals with the given instrument and
// selects the tpIndex-th take-profit level when several are signaled.
func New(symbol string, tpIndex int) *Parser {
	return &Parser{symbol: symbol, tpIndex: tpIndex}
}

// Parse normalizes raw and runs the grammar over it.
func (p *Parser) Parse(raw string) Signal {
	t := text.Normalize(raw)

	sig := Signal{Symbol: p.symbol, Kind: Market}
	if m := sideRe.FindStringSubmatch(t); m != nil {
		if m[1] == "buy" {
			sig.Side = Buy
		} else {
			sig.Side = Sell
		}
	}
	if limitRe.MatchString(t) {
		sig.Kind = Limit
	}
	sig.Entry = number(entryRe.FindStringSubmatch(t))
	sig.Stop = number(stopRe.FindStringSubmatch(t))
	sig.Target = p.target(t)
	return sig
}

// target picks one take-profit level out of every tp token in the text.
// An ordinal past the last listed level clamps to the last one.
func (p *Parser) target(t string) *float64 {
	matches := tpRe.FindAllStringSubmatch(t, -1)
	if len(matches) == 0 {
		return nil
	}
	idx := p.tpIndex - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(matches) {
		idx = len(matches) - 1
	}
	return number(matches[idx])
}

func number(m []string) *float64 {
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}
