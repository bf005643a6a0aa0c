package chat

import (
	"time"

	"github.com/efabiofm/tetrasire/internal/message"
)

// wireMessage is the JSON envelope both bridge providers deliver.
type wireMessage struct {
	ID      string `json:"id"`
	ChatID  string `json:"chat_id"`
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to,omitempty"`
	Ts      int64  `json:"ts"` // unix milliseconds
}

func (w wireMessage) event() message.Event {
	return message.Event{
		ID:      w.ID,
		ChatID:  w.ChatID,
		Text:    w.Text,
		ReplyTo: w.ReplyTo,
		Ts:      time.UnixMilli(w.Ts),
	}
}

// accept filters bridge traffic down to the configured chat, when set.
func (s *Source) accept(w wireMessage) bool {
	if w.ID == "" {
		return false
	}
	if s.chatID != "" && w.ChatID != "" && w.ChatID != s.chatID {
		return false
	}
	return true
}
