package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"eventstats/config"
	"eventstats/internal/agent"
	"eventstats/internal/api"
	"eventstats/internal/enrich"
	"eventstats/internal/geo"
	"eventstats/internal/input"
	"eventstats/internal/logger"
	"eventstats/internal/rank"
	"eventstats/internal/store"
	"eventstats/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg
		}
		log.Printf("Warning: config file not found at %s, trying default locations", configArg)
	}

	if _, err := os.Stat("eventstats.yml"); err == nil {
		return "eventstats.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), "eventstats.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "eventstats.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.EventStats.Source.Timeout <= 0 {
		cfg.EventStats.Source.Timeout = 60 * time.Second
	}
	if cfg.EventStats.Database.Path == "" {
		cfg.EventStats.Database.Path = "events.db"
	}
	if cfg.EventStats.Server.Addr == "" {
		cfg.EventStats.Server.Addr = ":8080"
	}
	if cfg.EventStats.Logging.Level == "" {
		cfg.EventStats.Logging.Level = "info"
	}
}

func loadConfig(args []string) *config.Config {
	fs := flag.NewFlagSet("eventstats", flag.ExitOnError)
	configArg := fs.String("config", "", "Path to the YAML config file")
	fs.Parse(args)

	configPath := findConfigFile(*configArg)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.EventStats.Logging.Enabled, cfg.EventStats.Logging.Level, cfg.EventStats.Logging.File, cfg.EventStats.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Infof("Config loaded from: %s", configPath)
	return cfg
}

// etl extracts the event log and returns the deduplicated enriched set.
func etl(ctx context.Context, cfg *config.Config) ([]models.EnrichedRecord, func(), error) {
	geoSource, err := geo.OpenMaxMind(cfg.EventStats.Geo.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open geo database: %w", err)
	}
	cleanup := func() {
		if err := geoSource.Close(); err != nil {
			logger.Errorf("Error closing geo database: %v", err)
		}
	}

	src, err := input.NewSource(input.Config{
		URL:     cfg.EventStats.Source.URL,
		Path:    cfg.EventStats.Source.File,
		Timeout: cfg.EventStats.Source.Timeout,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	events, err := src.Events(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to extract event log: %w", err)
	}
	logger.Infof("File extracted and loaded: %d rows", len(events))

	builder := enrich.NewBuilder(geo.NewResolver(geoSource), agent.NewResolver(), cfg.EventStats.Pipeline.Workers)
	records := enrich.Dedup(builder.Build(events))
	logger.Infof("Total number of lines after removing duplicates: %d", len(records))

	return records, cleanup, nil
}

func runSummary(args []string) {
	cfg := loadConfig(args)
	start := time.Now()

	records, cleanup, err := etl(context.Background(), cfg)
	if err != nil {
		logger.Errorf("ETL failed: %v", err)
		log.Fatalf("ETL failed: %v", err)
	}
	defer cleanup()

	browsers, oses := rank.TopBrowsersOS(enrich.UniqueUsers(records), 5)
	logger.Infof("Top 5 browsers and OS calculated.")
	countries, cities := rank.TopCountriesCities(records, 5)
	logger.Infof("Top 5 countries and cities calculated.")

	fmt.Println("\nTop 5 browsers based on num of unique users:")
	fmt.Println()
	for _, b := range browsers {
		fmt.Println(b.Label)
	}
	fmt.Println("\nTop 5 OS based on num of unique users:")
	fmt.Println()
	for _, o := range oses {
		fmt.Println(o.Label)
	}
	fmt.Println("\nTop 5 countries based on num of events:")
	fmt.Println()
	for _, c := range countries {
		fmt.Println(c.Label)
	}
	fmt.Println("\nTop 5 cities based on num of events:")
	fmt.Println()
	for _, c := range cities {
		fmt.Println(c.Label)
	}

	fmt.Printf("\n%s\n", time.Since(start))
}

func runServe(args []string) {
	cfg := loadConfig(args)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("Preparing the data to be consumed by the API ...")

	records, cleanup, err := etl(ctx, cfg)
	if err != nil {
		logger.Errorf("ETL failed: %v", err)
		log.Fatalf("ETL failed: %v", err)
	}
	cleanup()

	st, err := store.Open(cfg.EventStats.Database.Path)
	if err != nil {
		logger.Errorf("Failed to open event store: %v", err)
		log.Fatalf("Failed to open event store: %v", err)
	}
	defer st.Close()

	if err := st.Replace(ctx, records); err != nil {
		logger.Errorf("Failed to load event table: %v", err)
		log.Fatalf("Failed to load event table: %v", err)
	}
	logger.Infof("Ingestion finished in %s", time.Since(start))

	srv := api.NewServer(cfg.EventStats.Server.Addr, st)
	if err := srv.Run(ctx); err != nil {
		logger.Errorf("API server error: %v", err)
		log.Fatalf("API server error: %v", err)
	}

	logger.Infof("eventstats stopped")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: eventstats <command> [-config path]

Commands:
  summary   Print the top 5 countries, cities, browsers and OS's to stdout
  serve     Load the events table and serve the breakdown API
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "summary":
		runSummary(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		usage()
	}
}
