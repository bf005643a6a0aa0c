// Package risk converts account risk appetite into venue-legal lot sizes.
package risk

import (
	"errors"
	"math"
)

// SymbolMeta describes the venue's contract terms for one instrument.
type SymbolMeta struct {
	TickValue    float64 // money value of one tick for one lot
	TickSize     float64 // price size of that tick
	ContractSize float64 // units per lot
	Point        float64
	VolumeStep   float64
	VolumeMin    float64
	VolumeMax    float64
}

// Valid reports whether the venue supplied every field sizing depends on.
func (m SymbolMeta) Valid() bool {
	return m.TickValue > 0 && m.TickSize > 0 && m.ContractSize > 0 &&
		m.VolumeStep > 0 && m.VolumeMin > 0 && m.VolumeMax > 0
}

var (
	// ErrInvalidStop signals a zero or negative entry/stop distance.
	ErrInvalidStop = errors.New("stop distance must be positive")
	// ErrMissingSymbolMeta signals incomplete contract terms from the venue.
	ErrMissingSymbolMeta = errors.New("incomplete symbol metadata")
)

// Sizer computes lot sizes from a fixed risk percentage of account balance.
type Sizer struct {
	RiskPercent float64
}

// Lots returns the volume that puts RiskPercent of balance at risk between
// entry and stop, normalized to the venue's volume step. Rounding to the
// step is half-away-from-zero. A normalized volume below the venue minimum
// returns 0, meaning do not trade; above the maximum it clamps.
func (s Sizer) Lots(meta SymbolMeta, balance, entry, stop float64) (float64, error) {
	if !meta.Valid() {
		return 0, ErrMissingSymbolMeta
	}
	stopDiff := math.Abs(entry - stop)
	if stopDiff <= 0 {
		return 0, ErrInvalidStop
	}

	riskMoney := balance * s.RiskPercent / 100

	// tick_value/tick_size is the money value of one price unit for one lot;
	// dividing by contract size yields the value for one underlying unit.
	valuePerPriceUnitPerLot := meta.TickValue / meta.TickSize
	valuePerPriceUnitPerUnit := valuePerPriceUnitPerLot / meta.ContractSize

	rawUnits := riskMoney / (stopDiff * valuePerPriceUnitPerUnit)
	lotsRaw := rawUnits / meta.ContractSize

	normalized := math.Round(lotsRaw/meta.VolumeStep) * meta.VolumeStep
	if normalized < meta.VolumeMin {
		return 0, nil
	}
	if normalized > meta.VolumeMax {
		normalized = meta.VolumeMax
	}
	return normalized, nil
}
