// Package message standardizes payloads shared between chat ingestion and the engine.
package message

import "time"

// Event models a single inbound chat message as delivered by a source.
type Event struct {
	ID      string
	ChatID  string
	Text    string
	ReplyTo string // id of the replied-to message, empty when not a reply
	Ts      time.Time
}

// IsReply reports whether the event references a parent message.
func (e Event) IsReply() bool { return e.ReplyTo != "" }
