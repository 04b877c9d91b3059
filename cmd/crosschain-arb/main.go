// Package main is the entry point for the cross-chain arbitrage scanner.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fd1az/crosschain-arb/business/arbitrage"
	arbitrageApp "github.com/fd1az/crosschain-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/crosschain-arb/business/arbitrage/di"
	"github.com/fd1az/crosschain-arb/business/arbitrage/infra"
	"github.com/fd1az/crosschain-arb/business/arbitrage/infra/httpapi"
	"github.com/fd1az/crosschain-arb/business/pricing"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apm"
	"github.com/fd1az/crosschain-arb/internal/config"
	"github.com/fd1az/crosschain-arb/internal/health"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/metrics"
	"github.com/fd1az/crosschain-arb/internal/monolith"
	"github.com/fd1az/crosschain-arb/internal/server"
	"github.com/fd1az/crosschain-arb/internal/wsconn"
	"github.com/fd1az/crosschain-arb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	scanToken  string
	tuiToken   string
	chains     string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.scanToken, "scan", "", "Run a single scan for this token and print the result")
	flag.StringVar(&opts.tuiToken, "tui", "", "Watch this token in the terminal dashboard")
	flag.StringVar(&opts.chains, "chains", "", "Comma separated chains for -scan and -tui (default: configured chains)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crosschain-arb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tuiMode := opts.tuiToken != ""

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The dashboard owns the terminal, so logs are discarded there.
	var out io.Writer = os.Stderr
	if opts.tuiToken != "" {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting cross-chain arbitrage scanner",
		"version", version,
		"environment", cfg.App.Environment,
	)

	traceProvider := apm.NewEmptyTraceProvider()
	if cfg.Telemetry.Enabled {
		provider, err := apm.ParseProvider(cfg.Telemetry.TraceProvider)
		if err != nil {
			return err
		}
		traceProvider, err = apm.NewTraceProvider(ctx, provider, apm.TracerOptions{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
			Protocol:    cfg.Telemetry.OTLPProtocol,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	defer traceProvider.Stop()

	if metricOpts, ok := metricOptions(cfg.Telemetry); ok {
		mp, err := metrics.NewMetricProvider(ctx, metricOpts)
		if err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}
		defer mp.Shutdown(context.Background())
	}

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	if err := healthServer.Start(ctx); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		defer healthServer.Stop(context.Background())
	}

	mono, err := monolith.New(ctx, cfg, log, healthServer)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	modules := []monolith.Module{
		&pricing.Module{},   // Quote sources and the aggregator
		&arbitrage.Module{}, // Depends on pricing for quotes
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	scanner := arbitrageDI.GetScanner(mono.Services())

	switch {
	case opts.scanToken != "":
		return runScan(ctx, scanner, opts)
	case opts.tuiToken != "":
		return runTUI(ctx, scanner, cfg, opts, log)
	default:
		return runServer(ctx, scanner, cfg, log)
	}
}

func requestFor(token, chains string) (arbitrageApp.ScanRequest, error) {
	req := arbitrageApp.ScanRequest{TokenID: token}
	if chains == "" {
		return req, nil
	}
	parsed, err := pricingDomain.ParseChains(strings.Split(chains, ","))
	if err != nil {
		return req, err
	}
	req.Chains = parsed
	return req, nil
}

func runScan(ctx context.Context, scanner *arbitrageApp.Scanner, opts options) error {
	req, err := requestFor(opts.scanToken, opts.chains)
	if err != nil {
		return err
	}
	result, err := scanner.Scan(ctx, req)
	if err != nil {
		return err
	}
	infra.NewConsoleReporter(os.Stdout).Report(result)
	return nil
}

func runTUI(ctx context.Context, scanner *arbitrageApp.Scanner, cfg *config.Config, opts options, log logger.LoggerInterface) error {
	req, err := requestFor(opts.tuiToken, opts.chains)
	if err != nil {
		return err
	}
	if err := scanner.Validate(req); err != nil {
		return err
	}

	chains := make([]string, 0, len(req.Chains))
	for _, c := range req.Chains {
		chains = append(chains, c.String())
	}
	if len(chains) == 0 {
		for _, c := range scanner.Config().DefaultChains {
			chains = append(chains, c.String())
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var watcher *arbitrageApp.Watcher
	model := ui.New(ui.Options{
		TokenID:  req.TokenID,
		Chains:   chains,
		Interval: cfg.Scanner.WatchInterval,
		OnRefresh: func() {
			if watcher != nil {
				watcher.Trigger()
			}
		},
	})
	program := ui.NewProgram(ctx, model)
	watcher = arbitrageApp.NewWatcher(scanner, infra.NewTUIReporter(program), req, cfg.Scanner.WatchInterval, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Run(ctx)
	}()

	_, runErr := program.Run()
	interrupted := ctx.Err() != nil
	cancel()
	watchErr := <-errCh

	if runErr != nil && !interrupted {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return watchErr
}

func runServer(ctx context.Context, scanner *arbitrageApp.Scanner, cfg *config.Config, log logger.LoggerInterface) error {
	wsCfg := wsconn.DefaultConfig()
	wsCfg.OriginPatterns = originHosts(cfg.Server.CORSOrigins)

	mux := http.NewServeMux()
	httpapi.NewHandler(scanner, httpapi.Config{
		StreamInterval: cfg.Scanner.WatchInterval,
		WebSocket:      wsCfg,
	}, log).Register(mux)
	if cfg.Telemetry.Metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		CORSOrigins:     cfg.Server.CORSOrigins,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, mux, log)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	log.Info(ctx, "shutting down")

	return srv.Shutdown(context.Background())
}

// originHosts turns CORS origins into the host patterns the WebSocket
// handshake matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		hosts = append(hosts, o)
	}
	return hosts
}

// metricOptions enables Prometheus when metrics are on, and OTLP push when
// tracing already goes to an OTLP gRPC collector.
func metricOptions(t config.TelemetryConfig) (metrics.Options, bool) {
	opts := metrics.Options{
		ServiceName: t.ServiceName,
		Prometheus:  t.Metrics,
	}
	if t.Enabled && strings.EqualFold(t.TraceProvider, string(apm.OTLPProvider)) && t.OTLPProtocol != "http/protobuf" {
		headers, err := apm.ParseHeaders(t.OTLPHeaders)
		if err == nil {
			opts.OTLPEndpoint = t.OTLPEndpoint
			opts.OTLPHeaders = headers
			opts.Insecure = strings.HasPrefix(t.OTLPEndpoint, "http://")
		}
	}
	return opts, opts.Prometheus || opts.OTLPEndpoint != ""
}
