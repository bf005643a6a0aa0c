// Package journal records lifecycle actions for later inspection.
package journal

import "time"

// Action is one executed (or attempted) lifecycle step.
type Action struct {
	Kind     string    `json:"kind"`
	SignalID string    `json:"signal_id"`
	Symbol   string    `json:"symbol,omitempty"`
	Side     string    `json:"side,omitempty"`
	Volume   float64   `json:"volume,omitempty"`
	Price    float64   `json:"price,omitempty"`
	Stop     float64   `json:"stop,omitempty"`
	Target   float64   `json:"target,omitempty"`
	OK       bool      `json:"ok"`
	Ts       time.Time `json:"ts"`
}
