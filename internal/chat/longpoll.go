package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/efabiofm/tetrasire/internal/message"
)

func (s *Source) runLongpoll(ctx context.Context, out chan<- message.Event) error {
	if s.url == "" {
		return fmt.Errorf("longpoll source requires a url")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var cursor string

	if next, err := s.pollOnce(ctx, client, cursor, out); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Msg("initial chat poll failed")
	} else if err == nil {
		cursor = next
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next, err := s.pollOnce(ctx, client, cursor, out)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return ctx.Err()
				}
				s.log.Warn().Err(err).Msg("chat poll failed")
				continue
			}
			cursor = next
		}
	}
}

// pollOnce fetches every message after the cursor id and returns the new
// cursor.
func (s *Source) pollOnce(ctx context.Context, client *http.Client, cursor string, out chan<- message.Event) (string, error) {
	endpoint := s.url
	if cursor != "" {
		endpoint = fmt.Sprintf("%s?after=%s", s.url, url.QueryEscape(cursor))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return cursor, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return cursor, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return cursor, fmt.Errorf("chat bridge returned status %d", resp.StatusCode)
	}

	var batch []wireMessage
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return cursor, err
	}
	for _, w := range batch {
		if !s.accept(w) {
			continue
		}
		select {
		case out <- w.event():
			cursor = w.ID
		case <-ctx.Done():
			return cursor, ctx.Err()
		}
	}
	return cursor, nil
}
