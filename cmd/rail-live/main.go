package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/rail-live/cache"
	"github.com/theoremus-urban-solutions/rail-live/config"
	"github.com/theoremus-urban-solutions/rail-live/gtfs"
	"github.com/theoremus-urban-solutions/rail-live/gtfsrt"
	"github.com/theoremus-urban-solutions/rail-live/metrics"
	"github.com/theoremus-urban-solutions/rail-live/nmbs"
	"github.com/theoremus-urban-solutions/rail-live/server"
	"github.com/theoremus-urban-solutions/rail-live/tracking"
)

func main() {
	var (
		mode       = flag.String("mode", "serve", "run mode: serve or oneshot")
		configPath = flag.String("config", "config.yml", "path to config file")
		maxPages   = flag.Int("maxPages", 0, "override max pages per table (0 = config value)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *maxPages > 0 {
		cfg.API.MaxPages = *maxPages
	}

	store, err := cache.NewStore(cfg.Cache.Dir, time.Duration(cfg.Cache.JanitorSecs)*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("open cache")
	}
	defer store.Close()

	col := metrics.NewCollector()
	client := nmbs.New(cfg.API, store, time.Duration(cfg.Cache.TTLSecs)*time.Second, col)
	poller := tracking.NewPoller(client, col, cfg.Poll, gtfs.Options{
		MaxTripsPerRoute: cfg.Indexer.MaxTripsPerRoute,
	})

	switch *mode {
	case "oneshot":
		if err := runOneshot(client, cfg); err != nil {
			log.Fatal().Err(err).Msg("oneshot failed")
		}
	case "serve":
		poller.Start(context.Background())
		srv := server.New(cfg.Server, poller, client, col)
		srv.Start()
		srv.WaitForShutdown()
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

// runOneshot loads the schedule, polls the feed once, and prints the
// assembled snapshot to stdout.
func runOneshot(client *nmbs.Client, cfg config.AppConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tables, err := client.Tables(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("schedule load incomplete, indexing what arrived")
	}
	idx := gtfs.BuildIndex(tables, gtfs.Options{MaxTripsPerRoute: cfg.Indexer.MaxTripsPerRoute})

	raw, err := client.Realtime(ctx)
	if err != nil {
		return err
	}
	fm, err := gtfsrt.Decode(raw)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		loc = time.UTC
	}
	snap := tracking.Assemble(idx, fm.Entities, time.Now().In(loc))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
