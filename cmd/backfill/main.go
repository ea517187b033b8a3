package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/ai"
	"github.com/selivandex/risklattice/internal/adapters/config"
	"github.com/selivandex/risklattice/internal/adapters/database"
	"github.com/selivandex/risklattice/internal/adapters/news"
	"github.com/selivandex/risklattice/internal/adapters/price"
	"github.com/selivandex/risklattice/internal/backfill"
	"github.com/selivandex/risklattice/internal/risk"
	"github.com/selivandex/risklattice/internal/sentiment"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
	"github.com/selivandex/risklattice/pkg/templates"
)

// historyStore is the price store the backfill reads and the ingest step writes
type historyStore interface {
	backfill.PriceHistory
	SaveDaily(ctx context.Context, points []models.PricePoint) (int, error)
}

// articleStore is the news store the backfill reads and the ingest step writes
type articleStore interface {
	backfill.NewsLister
	SaveItems(ctx context.Context, items []models.NewsItem) (int, error)
}

func main() {
	var (
		symbolsFlag = flag.String("symbols", "", "Comma-separated symbols (default: SYMBOLS from env)")
		days        = flag.Int("days", 0, "Days to backfill (default: RISK_BACKFILL_DAYS)")
		dryRun      = flag.Bool("dry-run", false, "Keep everything in memory, write nothing to the database")
		skipIngest  = flag.Bool("skip-ingest", false, "Use stored prices and news only")
	)

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *dryRun && *skipIngest {
		fmt.Fprintln(os.Stderr, "--skip-ingest with --dry-run leaves nothing to backfill")
		os.Exit(1)
	}

	symbols := cfg.Symbols
	if *symbolsFlag != "" {
		symbols = parseSymbols(*symbolsFlag)
	}
	if *days <= 0 {
		*days = cfg.Risk.BackfillDays
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		prices   historyStore
		articles articleStore
		scores   risk.Store
	)

	if *dryRun {
		prices = price.NewMemoryStore()
		articles = news.NewMemoryStore()
		scores = risk.NewMemoryStore()
	} else {
		db, err := database.New(&cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.RunMigrations(db.Conn(), cfg.Migrations.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
			os.Exit(1)
		}

		prices = price.NewRepository(db.DB())
		articles = news.NewRepository(db.DB())
		scores = risk.NewRepository(db.DB())
	}

	analyzer := newAnalyzer(cfg)

	engine := backfill.NewEngine(prices, articles, analyzer, scores, nil, backfill.Config{
		Weights:     risk.Weights{Market: cfg.Risk.MarketWeight, News: cfg.Risk.NewsWeight},
		Days:        *days,
		CommitEvery: cfg.Risk.BackfillCommitEvery,
	})

	router := price.NewDefaultRouter(&cfg.Prices)
	aggregator := news.NewAggregator([]news.Provider{
		news.NewGoogleNewsProvider(cfg.News.GoogleEnabled, cfg.News.Timeout),
		news.NewCoinDeskProvider(cfg.News.CoinDeskEnabled, cfg.News.Timeout),
	}, cfg.News.MaxArticles)

	mode := "database"
	if *dryRun {
		mode = "dry run (in memory)"
	}
	fmt.Printf("\n📈 Backfilling %d days for %s\n", *days, strings.Join(symbols, ", "))
	fmt.Printf("Mode: %s\n\n", mode)

	failed := 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}

		if !*skipIngest {
			ingest(ctx, router, aggregator, prices, articles, symbol, *days)
		}

		report, err := engine.Run(ctx, symbol, *days)
		printReport(symbol, report, err)
		if err != nil && !errors.Is(err, risk.ErrInsufficientData) {
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// ingest stores fresh bars and articles so the backfill has history to read
func ingest(ctx context.Context, router *price.Router, aggregator *news.Aggregator, prices historyStore, articles articleStore, symbol string, days int) {
	bars, err := router.FetchDaily(ctx, symbol, days)
	if err != nil {
		logger.Warn("price ingest failed, using stored history",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	} else if _, err := prices.SaveDaily(ctx, bars); err != nil {
		logger.Warn("failed to save prices", zap.String("symbol", symbol), zap.Error(err))
	}

	items := aggregator.FetchForSymbol(ctx, symbol)
	if len(items) == 0 {
		return
	}
	if _, err := articles.SaveItems(ctx, items); err != nil {
		logger.Warn("failed to save news", zap.String("symbol", symbol), zap.Error(err))
	}
}

func newAnalyzer(cfg *config.Config) backfill.SentimentAnalyzer {
	keyword := sentiment.NewKeywordAnalyzer()

	provider := ai.NewOpenAIProvider(&cfg.AI)
	if !provider.IsEnabled() {
		return keyword
	}

	tmpl, err := templates.Default()
	if err != nil {
		logger.Warn("failed to load prompt templates, using lexicon analyzer", zap.Error(err))
		return keyword
	}

	return sentiment.NewLLMAnalyzer(provider, tmpl, keyword)
}

func parseSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func printReport(symbol string, report *backfill.Report, err error) {
	switch {
	case errors.Is(err, risk.ErrInsufficientData):
		fmt.Printf("⚠️  %-10s not enough trading dates (%d)\n", symbol, report.TradingDates)
	case err != nil:
		fmt.Printf("❌ %-10s %v\n", symbol, err)
	default:
		fmt.Printf("✅ %-10s status=%s dates=%d created=%d skipped=%d failed=%d in %s\n",
			symbol, report.Status, report.TradingDates, report.Created, report.Skipped, report.Failed,
			report.Duration.Round(time.Millisecond),
		)
	}
}
