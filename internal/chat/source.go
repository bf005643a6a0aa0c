// Package chat hosts connectors for inbound message streams.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/efabiofm/tetrasire/internal/message"
)

const (
	// ProviderStub emits a deterministic scripted conversation (useful for
	// tests/offline work and dry runs).
	ProviderStub = "stub"
	// ProviderWebsocket streams message envelopes from a websocket bridge.
	ProviderWebsocket = "websocket"
	// ProviderLongpoll polls an HTTP bridge for messages after a cursor.
	ProviderLongpoll = "longpoll"
)

// Source represents a pluggable inbound message stream implementation.
type Source struct {
	provider     string
	url          string
	chatID       string
	log          zerolog.Logger
	pollInterval time.Duration
}

// Option configures Source construction parameters.
type Option func(*Source)

const defaultPollInterval = 2 * time.Second

// WithPollInterval overrides the default polling cadence for HTTP sources.
func WithPollInterval(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithChatID stamps stub events and filters bridge events to one chat.
func WithChatID(id string) Option {
	return func(s *Source) { s.chatID = id }
}

// NewSource constructs a source backed by the requested provider.
func NewSource(provider, url string, log zerolog.Logger, opts ...Option) *Source {
	if provider == "" {
		provider = ProviderStub
	}
	s := &Source{
		provider:     strings.ToLower(provider),
		url:          url,
		log:          log,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run pushes events onto the provided channel until the context is canceled.
func (s *Source) Run(ctx context.Context, out chan<- message.Event) error {
	switch s.provider {
	case ProviderWebsocket:
		return s.runWebsocket(ctx, out)
	case ProviderLongpoll:
		return s.runLongpoll(ctx, out)
	default:
		return s.runStub(ctx, out)
	}
}

// runStub replays a small scripted conversation forever: a complete signal,
// then management follow-ups replying to it.
func (s *Source) runStub(ctx context.Context, out chan<- message.Event) error {
	script := []string{
		"buy @ 2000 sl 1990 tp1 2010 tp2 2030",
		"sl move",
		"close",
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var rootID string
	i := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			ev := message.Event{
				ID:     uuid.NewString(),
				ChatID: s.chatID,
				Text:   script[i%len(script)],
				Ts:     ts,
			}
			if i%len(script) == 0 {
				rootID = ev.ID
			} else {
				ev.ReplyTo = rootID
			}
			i++
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
