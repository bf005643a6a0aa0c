package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/efabiofm/tetrasire/internal/parse"
	"github.com/efabiofm/tetrasire/internal/risk"
)

const epsilon = 1e-9

// Rejection codes reported by the simulated venue.
const (
	CodeOK           = 0
	CodeUnknownRef   = 1
	CodeBadVolume    = 2
	CodeUnknownMeta  = 3
	CodeNoQuote      = 4
	CodeVolumeExcess = 5
)

// Sim is an in-memory venue used for dry-run mode and tests. It keeps a
// cash balance, per-symbol contract terms and quotes, a pending order book,
// and open positions, and fills resting orders when marked prices cross.
type Sim struct {
	mu        sync.Mutex
	balance   float64
	metas     map[string]risk.SymbolMeta
	bids      map[string]float64
	asks      map[string]float64
	pendings  map[string]Order
	positions map[string]Position
}

// NewSim constructs a simulated venue with the given starting balance.
func NewSim(balance float64) *Sim {
	return &Sim{
		balance:   balance,
		metas:     make(map[string]risk.SymbolMeta),
		bids:      make(map[string]float64),
		asks:      make(map[string]float64),
		pendings:  make(map[string]Order),
		positions: make(map[string]Position),
	}
}

// SetMeta installs the contract terms for a symbol.
func (s *Sim) SetMeta(symbol string, meta risk.SymbolMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metas[symbol] = meta
}

// SetPrice marks a symbol's bid and ask, filling any resting order whose
// limit price the new quote crosses.
func (s *Sim) SetPrice(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[symbol] = bid
	s.asks[symbol] = ask
	for ref, ord := range s.pendings {
		if ord.Symbol != symbol {
			continue
		}
		filled := (ord.Side == parse.Buy && ask <= ord.Price+epsilon) ||
			(ord.Side == parse.Sell && bid >= ord.Price-epsilon)
		if !filled {
			continue
		}
		delete(s.pendings, ref)
		s.positions[ref] = Position{
			Ref:    ref,
			Symbol: ord.Symbol,
			Side:   ord.Side,
			Volume: ord.Volume,
			Entry:  ord.Price,
			Stop:   ord.Stop,
			Target: ord.Target,
			Magic:  ord.Magic,
			Tag:    ord.Tag,
		}
	}
}

// AccountBalance reports current cash including realized PnL.
func (s *Sim) AccountBalance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

// SymbolMetadata returns the installed contract terms for symbol.
func (s *Sim) SymbolMetadata(ctx context.Context, symbol string) (risk.SymbolMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metas[symbol], nil
}

// CurrentPrice returns the ask for buys and the bid for sells.
func (s *Sim) CurrentPrice(ctx context.Context, symbol string, side parse.Side) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if side == parse.Buy {
		return s.asks[symbol], nil
	}
	return s.bids[symbol], nil
}

// SubmitMarketOrder opens a position at the requested price.
func (s *Sim) SubmitMarketOrder(ctx context.Context, req MarketRequest) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Volume <= 0 {
		return Result{Code: CodeBadVolume, Info: "volume must be positive"}, nil
	}
	if req.Price <= 0 {
		return Result{Code: CodeNoQuote, Info: "no quote for symbol"}, nil
	}
	ref := uuid.NewString()
	s.positions[ref] = Position{
		Ref:    ref,
		Symbol: req.Symbol,
		Side:   req.Side,
		Volume: req.Volume,
		Entry:  req.Price,
		Stop:   req.Stop,
		Target: req.Target,
		Magic:  req.Magic,
		Tag:    req.Tag,
	}
	return Result{OK: true}, nil
}

// SubmitPendingOrder rests an order in the book.
func (s *Sim) SubmitPendingOrder(ctx context.Context, req PendingRequest) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Volume <= 0 {
		return Result{Code: CodeBadVolume, Info: "volume must be positive"}, nil
	}
	ref := uuid.NewString()
	s.pendings[ref] = Order{
		Ref:       ref,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Volume:    req.Volume,
		Price:     req.Price,
		Stop:      req.Stop,
		Target:    req.Target,
		Magic:     req.Magic,
		Tag:       req.Tag,
		ExpiresAt: req.ExpiresAt,
	}
	return Result{OK: true}, nil
}

// CancelPendingOrder removes a resting order by reference.
func (s *Sim) CancelPendingOrder(ctx context.Context, ref string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pendings[ref]; !ok {
		return Result{Code: CodeUnknownRef, Info: "no such pending order"}, nil
	}
	delete(s.pendings, ref)
	return Result{OK: true}, nil
}

// ClosePosition executes an opposing deal against an open position,
// realizing PnL into the balance.
func (s *Sim) ClosePosition(ctx context.Context, ref string, volume, price float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[ref]
	if !ok {
		return Result{Code: CodeUnknownRef, Info: "no such position"}, nil
	}
	if volume <= 0 || volume > pos.Volume+epsilon {
		return Result{Code: CodeVolumeExcess, Info: "close volume exceeds position"}, nil
	}
	direction := 1.0
	if pos.Side == parse.Sell {
		direction = -1.0
	}
	meta := s.metas[pos.Symbol]
	unitValue := 1.0
	if meta.TickSize > 0 {
		unitValue = meta.TickValue / meta.TickSize
	}
	s.balance += direction * (price - pos.Entry) * volume * unitValue
	remaining := pos.Volume - volume
	if remaining <= epsilon {
		delete(s.positions, ref)
	} else {
		pos.Volume = remaining
		s.positions[ref] = pos
	}
	return Result{OK: true}, nil
}

// ModifyStop sets a new stop on an open position.
func (s *Sim) ModifyStop(ctx context.Context, ref string, newStop float64) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[ref]
	if !ok {
		return Result{Code: CodeUnknownRef, Info: "no such position"}, nil
	}
	pos.Stop = newStop
	s.positions[ref] = pos
	return Result{OK: true}, nil
}

// ListPendingOrders snapshots the resting book.
func (s *Sim) ListPendingOrders(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.pendings))
	for _, ord := range s.pendings {
		out = append(out, ord)
	}
	return out, nil
}

// ListOpenPositions snapshots open exposures.
func (s *Sim) ListOpenPositions(ctx context.Context) ([]Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out, nil
}
