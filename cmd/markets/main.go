// Command markets lists Kalshi markets and prints the top of each order book.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/coachpo/kalshi-gateway/internal/domain/orderbook"
	"github.com/coachpo/kalshi-gateway/internal/domain/schema"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi"
	"github.com/coachpo/kalshi-gateway/internal/infra/adapters/kalshi/rest"
	"github.com/coachpo/kalshi-gateway/internal/infra/config"
)

type browseOptions struct {
	series      string
	events      []string
	status      schema.MarketStatus
	max         int
	depth       int
	concurrency int
}

func main() {
	cfgPath := flag.String("config", "", "Path to application configuration file (defaults apply when empty)")
	envFile := flag.String("env-file", ".env", "Optional dotenv file with KALSHI_* overrides")
	series := flag.String("series", "", "Series ticker filter")
	events := flag.String("events", "", "Comma separated event tickers")
	status := flag.String("status", string(schema.MarketOpen), "Market status filter (empty for all)")
	limit := flag.Int("max", 20, "Maximum markets to list")
	depth := flag.Int("depth", 5, "Order book depth per market")
	concurrency := flag.Int("concurrency", 4, "Concurrent order book requests")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, "markets ", log.LstdFlags)
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatalf("load env file %s: %v", *envFile, err)
	}
	appCfg, err := config.LoadOrDefault(ctx, *cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
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
	defer func() {
		_ = client.Close()
	}()

	err = browse(ctx, client.REST(), browseOptions{
		series:      strings.TrimSpace(*series),
		events:      splitList(*events),
		status:      schema.MarketStatus(strings.TrimSpace(*status)),
		max:         *limit,
		depth:       *depth,
		concurrency: *concurrency,
	}, os.Stdout)
	if err != nil {
		logger.Fatalf("browse: %v", err)
	}
}

type marketsAPI interface {
	MarketsPager(p rest.MarketsParams) *rest.Pager[rest.Market]
	GetOrderbooks(ctx context.Context, tickers []string, depth, concurrency int) (map[string]rest.OrderbookResponse, error)
}

// browse lists up to opts.max markets, fetches their books concurrently and writes one row per
// market.
func browse(ctx context.Context, api marketsAPI, opts browseOptions, w io.Writer) error {
	pageSize := opts.max
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}
	markets, err := api.MarketsPager(rest.MarketsParams{
		Limit:        pageSize,
		SeriesTicker: opts.series,
		EventTickers: opts.events,
		Status:       opts.status,
	}).Collect(ctx, opts.max)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}
	if len(markets) == 0 {
		_, err := fmt.Fprintln(w, "no markets")
		return err
	}

	tickers := make([]string, 0, len(markets))
	for _, m := range markets {
		tickers = append(tickers, m.Ticker)
	}
	books, err := api.GetOrderbooks(ctx, tickers, opts.depth, opts.concurrency)
	if err != nil {
		return fmt.Errorf("fetch order books: %w", err)
	}

	feed := kalshi.NewBookFeed(orderbook.NewBooks(opts.depth))
	for ticker, resp := range books {
		if err := feed.Seed(ticker, resp); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tTITLE\tYES BID\tYES ASK\tSPREAD")
	for _, m := range markets {
		bid, ask, spread := "-", "-", "-"
		if book, ok := feed.Books().Lookup(m.Ticker); ok {
			if l, ok := book.BestBid(schema.Yes); ok {
				bid = fmt.Sprintf("%dc", l.PriceCents)
			}
			if l, ok := book.BestAsk(schema.Yes); ok {
				ask = fmt.Sprintf("%dc", l.PriceCents)
			}
			if s, ok := book.Spread(schema.Yes); ok {
				spread = fmt.Sprintf("%dc", s)
			}
		}
		title := ""
		if m.Title != nil {
			title = *m.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.Ticker, title, bid, ask, spread)
	}
	return tw.Flush()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
