// Binary tetrasire turns free-text trade signals from a chat stream into
// risk-sized orders on a trading venue.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/efabiofm/tetrasire/internal/chat"
	"github.com/efabiofm/tetrasire/internal/config"
	"github.com/efabiofm/tetrasire/internal/correlate"
	"github.com/efabiofm/tetrasire/internal/engine"
	"github.com/efabiofm/tetrasire/internal/execution"
	"github.com/efabiofm/tetrasire/internal/gateway"
	"github.com/efabiofm/tetrasire/internal/journal"
	"github.com/efabiofm/tetrasire/internal/message"
	"github.com/efabiofm/tetrasire/internal/metrics"
	"github.com/efabiofm/tetrasire/internal/parse"
	"github.com/efabiofm/tetrasire/internal/risk"
	"github.com/efabiofm/tetrasire/internal/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("TETRASIRE_CONFIG", "internal/config/config.yaml"))
	if err != nil {
		fallback := util.NewLogger("info")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source := chat.NewSource(cfg.Chat.Provider, cfg.Chat.URL, log,
		chat.WithChatID(cfg.Chat.ChatID),
		chat.WithPollInterval(time.Duration(cfg.Chat.PollInterval)*time.Millisecond),
	)
	events := make(chan message.Event, 256)
	go func() {
		if err := source.Run(ctx, events); err != nil {
			log.Error().Err(err).Msg("chat source stopped")
			cancel()
		}
	}()

	gw := buildGateway(cfg, log)

	var rec execution.Recorder
	if cfg.Trade.JournalPath != "" {
		jr, err := journal.NewJSONLRecorder(cfg.Trade.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open journal")
		}
		defer jr.Close()
		rec = jr
	}

	parser := parse.New(cfg.Trade.Symbol, cfg.Trade.TPIndex)
	mgr := execution.NewManager(gw, execution.Config{
		Magic:         cfg.Trade.Magic,
		RiskPercent:   cfg.Risk.RiskPercent,
		LimitBuffer:   cfg.Trade.LimitBuffer,
		MarketBuffer:  cfg.Trade.MarketBuffer,
		PendingExpiry: time.Duration(cfg.Trade.PendingExpiry) * time.Minute,
		ReduceFactor:  cfg.Trade.ReduceFactor,
		LimitOnly:     cfg.Trade.LimitOnly,
	}, parser, log, rec)
	corr := correlate.New(parser, time.Duration(cfg.Trade.MergeWindow)*time.Second, cfg.Trade.ReduceFactor)

	eng := engine.New(corr, mgr, log, engine.WithChatFilter(cfg.Chat.ChatID))
	log.Info().Str("symbol", cfg.Trade.Symbol).Bool("dry_run", cfg.Trade.DryRun).Msg("engine started")
	eng.Run(ctx, events)
}

// buildGateway selects the venue backend. Only the simulated venue ships in
// this repo; a live venue adapter plugs in behind the same interface.
func buildGateway(cfg *config.Config, log zerolog.Logger) gateway.Gateway {
	if !cfg.Trade.DryRun {
		log.Fatal().Msg("no live venue adapter wired; set trade.dry_run or add a gateway implementation")
	}
	sim := gateway.NewSim(100_000)
	sim.SetMeta(cfg.Trade.Symbol, risk.SymbolMeta{
		TickValue:    1,
		TickSize:     0.01,
		ContractSize: 100,
		Point:        0.01,
		VolumeStep:   0.01,
		VolumeMin:    0.01,
		VolumeMax:    100,
	})
	sim.SetPrice(cfg.Trade.Symbol, 1999.8, 2000.2)
	return sim
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
