// Command gateway streams Kalshi market data and maintains local order books.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"

	"github.com/coachpo/kalshi-gateway/internal/domain/orderbook"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/stream"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/wire"
	"github.com/coachpo/kalshi-gateway/internal/infra/config"
	"github.com/coachpo/kalshi-gateway/internal/infra/telemetry"
)

const (
	gatewayLoggerPrefix      = "gateway "
	shutdownTimeout          = 15 * time.Second
	lifecycleShutdownTimeout = 10 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	defaultSummaryInterval   = 30 * time.Second
)

func main() {
	cfgPath, envFile, summaryEvery := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newGatewayLogger()

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatalf("load env file %s: %v", envFile, err)
	}

	appCfg, err := config.LoadOrDefault(ctx, cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Printf("configuration initialised: env=%s, authenticated=%t, subscriptions=%d",
		appCfg.Environment.Name, appCfg.Credentials.Configured(), len(appCfg.Stream.Subscriptions))

	telemetryProvider, err := initTelemetry(ctx, logger, appCfg)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}

	opts, err := kalshi.OptionsFromConfig(appCfg)
	if err != nil {
		logger.Fatalf("build client options: %v", err)
	}
	opts.Logger = logger
	client, err := kalshi.NewClient(opts)
	if err != nil {
		logger.Fatalf("initialise client: %v", err)
	}

	subs, err := kalshi.SubscriptionsFromConfig(appCfg.Stream.Subscriptions)
	if err != nil {
		logger.Fatalf("subscriptions: %v", err)
	}

	gw := newGateway(client.Stream(), kalshi.NewBookFeed(orderbook.NewBooks(appCfg.Orderbook.Depth)), logger)
	if err := gw.subscribe(ctx, subs); err != nil {
		logger.Fatalf("subscribe: %v", err)
	}

	var lifecycle conc.WaitGroup
	lifecycle.Go(func() {
		if err := client.Stream().Run(ctx, gw.handle); err != nil && ctx.Err() == nil {
			logger.Printf("stream stopped: %v", err)
			cancel()
		}
	})
	lifecycle.Go(func() {
		gw.summarise(ctx, summaryEvery)
	})

	logger.Printf("gateway started against %s; awaiting shutdown signal", client.Environment().WSURL)
	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, logger, gracefulShutdownConfig{
		mainCancel: cancel,
		client:     client,
		lifecycle:  &lifecycle,
		telemetry:  telemetryProvider,
	})
	logger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() (string, string, time.Duration) {
	cfgPath := flag.String("config", "", "Path to application configuration file (defaults apply when empty)")
	envFile := flag.String("env-file", ".env", "Optional dotenv file with KALSHI_* overrides")
	summary := flag.Duration("summary", defaultSummaryInterval, "Interval between order book summaries (0 disables)")
	flag.Parse()
	return *cfgPath, *envFile, *summary
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newGatewayLogger() *log.Logger {
	return log.New(os.Stdout, gatewayLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

func initTelemetry(ctx context.Context, logger *log.Logger, appCfg config.AppConfig) (*telemetry.Provider, error) {
	telemetryCfg := telemetry.DefaultConfig()
	cfg := appCfg.Telemetry
	if cfg.OTLPEndpoint != "" {
		telemetryCfg.OTLPEndpoint = cfg.OTLPEndpoint
	}
	if cfg.ServiceName != "" {
		telemetryCfg.ServiceName = cfg.ServiceName
	}
	telemetryCfg.Environment = string(appCfg.Environment.Name)
	telemetryCfg.OTLPInsecure = cfg.OTLPInsecure
	telemetryCfg.Enabled = cfg.EnableMetrics

	provider, err := telemetry.NewProvider(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}

	if telemetryCfg.Enabled {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", telemetryCfg.OTLPEndpoint, telemetryCfg.ServiceName)
	} else {
		logger.Printf("telemetry disabled")
	}
	return provider, nil
}

// subscriber is the part of the streaming manager the gateway drives.
type subscriber interface {
	Subscribe(ctx context.Context, params wire.SubscriptionParams) (uint64, error)
	Unsubscribe(ctx context.Context, sid uint64) (uint64, error)
	State() stream.Snapshot
}

type gateway struct {
	stream subscriber
	feed   *kalshi.BookFeed
	logger *log.Logger
}

func newGateway(s subscriber, feed *kalshi.BookFeed, logger *log.Logger) *gateway {
	return &gateway{stream: s, feed: feed, logger: logger}
}

func (g *gateway) subscribe(ctx context.Context, subs []wire.SubscriptionParams) error {
	for _, params := range subs {
		id, err := g.stream.Subscribe(ctx, params)
		if err != nil {
			return fmt.Errorf("subscribe %v: %w", params.Channels, err)
		}
		g.logger.Printf("subscribe sent: id=%d channels=%v markets=%v", id, params.Channels, params.MarketTickers)
	}
	return nil
}

// handle is the Run callback. Only errors from the manager itself stop the loop.
func (g *gateway) handle(ctx context.Context, ev stream.Event) error {
	switch e := ev.(type) {
	case stream.DecodeFailure:
		g.logger.Printf("decode failure: %v", e.Err)
		return nil
	case stream.Reconnected:
		g.logger.Printf("reconnected after %d attempt(s); books reset", e.Attempt)
	case stream.Disconnected:
		g.logger.Printf("disconnected: %v", e.Err)
	case stream.MessageEvent:
		g.logControl(e.Message)
	}

	update, err := g.feed.Apply(ev)
	if err != nil {
		g.logger.Printf("book update rejected: %v", err)
		return nil
	}
	if update.Gap != nil {
		return g.resync(ctx, *update.Gap)
	}
	return nil
}

func (g *gateway) logControl(msg wire.Message) {
	switch m := msg.(type) {
	case wire.Subscribed:
		g.logger.Printf("subscribed: id=%s sid=%s", optional(m.ID), optional(m.SID))
	case wire.Unsubscribed:
		g.logger.Printf("unsubscribed: sid=%s", optional(m.SID))
	case wire.Error:
		code := "-"
		if m.Err.Code != nil {
			code = fmt.Sprint(*m.Err.Code)
		}
		text := ""
		if m.Err.Message != nil {
			text = *m.Err.Message
		}
		g.logger.Printf("venue error: id=%s code=%s message=%q", optional(m.ID), code, text)
	case wire.Unknown:
		g.logger.Printf("unhandled message type %q", m.Tag)
	}
}

// resync replaces the subscription behind a gapped sid so the venue sends a fresh snapshot.
func (g *gateway) resync(ctx context.Context, gap stream.Gap) error {
	g.logger.Printf("sequence gap on sid=%d: expected=%d got=%d; resubscribing", gap.SID, gap.Expected, gap.Got)
	params, ok := g.stream.State().Active[gap.SID]
	if !ok {
		g.logger.Printf("sid=%d no longer active; skipping resubscribe", gap.SID)
		return nil
	}
	if _, err := g.stream.Unsubscribe(ctx, gap.SID); err != nil {
		return fmt.Errorf("unsubscribe sid %d: %w", gap.SID, err)
	}
	if _, err := g.stream.Subscribe(ctx, params); err != nil {
		return fmt.Errorf("resubscribe sid %d: %w", gap.SID, err)
	}
	return nil
}

func (g *gateway) summarise(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, line := range g.summary() {
				g.logger.Print(line)
			}
		}
	}
}

func (g *gateway) summary() []string {
	books := g.feed.Books()
	tickers := books.Tickers()
	lines := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		book, ok := books.Lookup(ticker)
		if !ok || !book.HasSnapshot() {
			continue
		}
		lines = append(lines, fmt.Sprintf("book %s: yes bid=%s ask=%s seq=%d",
			ticker, levelText(book.BestBid(schema.Yes)), levelText(book.BestAsk(schema.Yes)), book.LastSeq()))
	}
	return lines
}

func levelText(l orderbook.Level, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%dc x %s", l.PriceCents, l.Quantity.String())
}

func optional(v *uint64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

type gracefulShutdownConfig struct {
	mainCancel context.CancelFunc
	client     *kalshi.Client
	lifecycle  *conc.WaitGroup
	telemetry  *telemetry.Provider
}

func performGracefulShutdown(ctx context.Context, logger *log.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Printf("shutdown: %s...", name)
		if err := fn(stepCtx); err != nil {
			logger.Printf("shutdown: %s failed: %v", name, err)
		} else {
			logger.Printf("shutdown: %s completed", name)
		}
	}

	logger.Print("shutdown: cancelling main context")
	if cfg.mainCancel != nil {
		cfg.mainCancel()
	}

	if cfg.client != nil {
		shutdownStep("closing stream", lifecycleShutdownTimeout, func(context.Context) error {
			return cfg.client.Close()
		})
	}

	if cfg.lifecycle != nil {
		shutdownStep("waiting for lifecycle goroutines", lifecycleShutdownTimeout, func(stepCtx context.Context) error {
			done := make(chan struct{})
			go func() {
				cfg.lifecycle.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stepCtx.Done():
				return fmt.Errorf("timeout waiting for goroutines: %w", stepCtx.Err())
			}
		})
	}

	if cfg.telemetry != nil {
		shutdownStep("shutting down telemetry", telemetryShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.telemetry.Shutdown(stepCtx)
		})
	}
}
