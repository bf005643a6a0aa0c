package parse

import "testing"

func f(v float64) *float64 { return &v }

func eq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestParseFullSignal(t *testing.T) {
	p := New("XAUUSD", 0)
	sig := p.Parse("BUY @ 2000 SL 1990 TP 2010")

	if sig.Symbol != "XAUUSD" {
		t.Fatalf("unexpected symbol %q", sig.Symbol)
	}
	if sig.Side != Buy {
		t.Fatalf("expected BUY, got %q", sig.Side)
	}
	if sig.Kind != Market {
		t.Fatalf("expected MARKET, got %q", sig.Kind)
	}
	if !eq(sig.Entry, f(2000)) {
		t.Fatalf("unexpected entry %v", sig.Entry)
	}
	if !eq(sig.Stop, f(1990)) {
		t.Fatalf("unexpected stop %v", sig.Stop)
	}
	if !eq(sig.Target, f(2010)) {
		t.Fatalf("unexpected target %v", sig.Target)
	}
	if !sig.Complete() {
		t.Fatalf("expected complete signal")
	}
}

func TestParseTakeProfitOrdinal(t *testing.T) {
	p := New("XAUUSD", 2)
	sig := p.Parse("BUY 2000 SL 1990 TP1 2010 TP2 2030")
	if !eq(sig.Target, f(2030)) {
		t.Fatalf("expected second target 2030, got %v", sig.Target)
	}
}

func TestParseTakeProfitOrdinalClamps(t *testing.T) {
	p := New("XAUUSD", 3)
	sig := p.Parse("sell 2000 sl 2010 tp 1980")
	if !eq(sig.Target, f(1980)) {
		t.Fatalf("expected clamp to last target, got %v", sig.Target)
	}
}

func TestParseCaseAndDiacritics(t *testing.T) {
	p := New("XAUUSD", 0)
	sig := p.Parse("SEÑAL!! Sell @1950.5, sl@1960.25 tp@1930")
	if sig.Side != Sell {
		t.Fatalf("expected SELL, got %q", sig.Side)
	}
	if !eq(sig.Entry, f(1950.5)) || !eq(sig.Stop, f(1960.25)) || !eq(sig.Target, f(1930)) {
		t.Fatalf("unexpected parse %+v", sig)
	}
}

func TestParseLimitToken(t *testing.T) {
	p := New("XAUUSD", 0)
	sig := p.Parse("buy limit 1995 sl 1985 tp 2015")
	if sig.Kind != Limit {
		t.Fatalf("expected LIMIT, got %q", sig.Kind)
	}
}

func TestParseIsTotal(t *testing.T) {
	p := New("XAUUSD", 0)
	for _, text := range []string{"", "good morning", "close", "sl", "tp", "buy the dip maybe"} {
		sig := p.Parse(text)
		if sig.Complete() {
			t.Fatalf("text %q should not parse to a complete signal", text)
		}
	}
}

func TestParseMissingSide(t *testing.T) {
	p := New("XAUUSD", 0)
	sig := p.Parse("2000 sl 1990 tp 2010")
	if sig.Side != "" {
		t.Fatalf("expected absent side, got %q", sig.Side)
	}
	if sig.Complete() {
		t.Fatalf("signal without side must be incomplete")
	}
}

func TestParseSideNeedsWordBoundary(t *testing.T) {
	p := New("XAUUSD", 0)
	if sig := p.Parse("buyer beware 2000"); sig.Side != "" {
		t.Fatalf("substring must not match side, got %q", sig.Side)
	}
}
