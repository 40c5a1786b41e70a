package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/warmup"
	"github.com/fwojciec/warmup/crawl"
	warmhttp "github.com/fwojciec/warmup/http"
	warmprom "github.com/fwojciec/warmup/prometheus"
	"github.com/fwojciec/warmup/rod"
	warmslog "github.com/fwojciec/warmup/slog"
	"github.com/fwojciec/warmup/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if closeErr := m.Close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
	}
	if err != nil {
		// Commands report application errors themselves.
		var appErr *warmup.Error
		if !errors.As(err, &appErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// NewClient builds the HTTP clients of sitemap discovery and of the
	// HTTP crawlers. Tests replace it to control transport behavior.
	NewClient warmup.ClientFactory

	// Browser builds the clients of the browser crawler.
	Browser *rod.Factory

	// SQLite database holding run history, if enabled.
	DB *sqlite.DB

	logFile *os.File
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		NewClient: warmhttp.NewClientFromOptions,
		Browser:   &rod.Factory{},
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.Browser != nil {
		errs = append(errs, m.Browser.Close())
	}
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	if m.logFile != nil {
		errs = append(errs, m.logFile.Close())
		m.logFile = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    time.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("cache-warmup"),
		kong.Description("Warm website caches by requesting every URL listed in XML sitemaps."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(loadConfig),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no sitemaps specified. Run 'cache-warmup --help' to see usage")
	}
	if len(args) == 1 && (args[0] == "help" || args[0] == "--help" || args[0] == "-h") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := m.openLogger(cli, stderr)
	if err != nil {
		return err
	}
	deps.Logger = logger

	if cli.HistoryDB != "" {
		m.DB = sqlite.NewDB(cli.HistoryDB)
		if err := m.DB.Open(); err != nil {
			m.DB = nil
			return fmt.Errorf("failed to open history database at %q: %w", cli.HistoryDB, err)
		}
		deps.Runs = sqlite.NewRunService(m.DB)
	}

	// Wire warm-only dependencies.
	if strings.HasPrefix(kongCtx.Command(), "warm") {
		newClient := warmslog.WrapClientFactory(m.NewClient, logger)
		deps.NewClient = newClient
		deps.Crawlers = crawl.NewRegistry(newClient)

		browserClient := warmslog.WrapClientFactory(m.Browser.NewClient, logger)
		if err := deps.Crawlers.Register(crawlerBrowser, func(observers ...warmup.Observer) warmup.Crawler {
			return crawl.NewOutputtingCrawler(browserClient, observers...)
		}); err != nil {
			return err
		}

		if cli.Warm.MetricsFile != "" {
			metrics, err := warmprom.NewMetrics(nil)
			if err != nil {
				return fmt.Errorf("failed to create metrics: %w", err)
			}
			deps.Metrics = metrics
		}
	}

	return kongCtx.Run(deps)
}

// openLogger builds the logger selected by the global flags. Records go to
// stderr unless a log file is given.
func (m *Main) openLogger(cli *CLI, stderr io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", cli.LogLevel)
	}

	w := stderr
	if cli.LogFile != "" {
		f, err := os.OpenFile(cli.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		m.logFile = f
		w = f
	}

	opts := &slog.HandlerOptions{Level: level}
	if cli.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
