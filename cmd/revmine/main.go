package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/driftline/revmine/internal/playstore"
	"github.com/driftline/revmine/internal/reddit"
	"github.com/driftline/revmine/pkg/logger"
	"github.com/driftline/revmine/pkg/revmine"
	"github.com/driftline/revmine/pkg/revmine/config"
	"github.com/driftline/revmine/pkg/revmine/export"
	"github.com/driftline/revmine/pkg/revmine/review"
	"github.com/driftline/revmine/pkg/revmine/scrape"
	"github.com/driftline/revmine/pkg/revmine/store/sqlite"
)

func main() {
	var (
		appID      = flag.String("app", "", "App to scrape (required unless -list-apps)")
		platforms  = flag.String("platforms", "", "Comma-separated platforms (default: all configured for the app)")
		limit      = flag.Int("limit", 0, "Max reviews per platform (default: config max_reviews_per_app)")
		formats    = flag.String("formats", "csv,json", "Comma-separated export formats")
		configPath = flag.String("config", "", "Config YAML path (optional)")
		outDir     = flag.String("out", "data/exports", "Export output directory")
		dbPath     = flag.String("db", "", "SQLite archive path (optional)")
		listApps   = flag.Bool("list-apps", false, "List configured apps and exit")
	)
	flag.Parse()

	lg := logger.New("revmine")

	loader := config.Loader{Path: *configPath, Logger: lg}
	components, err := loader.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	cfg := components.Cfg

	if *listApps {
		printApps(cfg)
		return
	}
	if *appID == "" {
		log.Fatal("--app required (or use -list-apps)")
	}

	app, ok := cfg.Apps[strings.ToLower(*appID)]
	if !ok {
		log.Fatalf("Unknown app %q; use -list-apps to see the configured apps", *appID)
	}

	wanted := app.Platforms
	if *platforms != "" {
		wanted = strings.Split(*platforms, ",")
	}
	perPlatform := *limit
	if perPlatform <= 0 {
		perPlatform = cfg.Scrape.MaxPerApp
	}

	ctx := context.Background()

	opts := revmine.Options{
		Cleaner:         components.Cleaner,
		Dedup:           components.Dedup,
		Classifier:      components.Classifier,
		Logger:          lg,
		MinQualityScore: cfg.Processing.MinQualityScore,
	}
	if *dbPath != "" {
		st, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatal("Failed to open archive: ", err)
		}
		opts.Store = st
	}
	miner := revmine.New(opts)
	defer miner.Close()

	scrapers := map[string]scrape.Scraper{
		"reddit":     reddit.NewClient(cfg.Scrape, cfg.Subreddits, logger.New("reddit")),
		"play_store": playstore.NewClient(cfg.Scrape, logger.New("playstore")),
	}

	csvExp := export.NewCSVExporter(lg)
	jsonExp := export.NewJSONExporter(lg)
	wantCSV, wantJSON := parseFormats(*formats)

	for _, platform := range wanted {
		platform = strings.TrimSpace(platform)
		scraper, ok := scrapers[platform]
		if !ok {
			lg.Printf("no scraper for platform %q, skipping", platform)
			continue
		}

		raw, err := scraper.Scrape(ctx, app, perPlatform)
		if err != nil {
			lg.Printf("scrape %s failed: %v", platform, err)
			continue
		}
		if len(raw) == 0 {
			lg.Printf("no reviews scraped from %s", platform)
			continue
		}

		batch := review.NewBatch(app.Name, platform, raw)
		processed, err := miner.Process(batch)
		if err != nil {
			lg.Printf("process %s batch failed: %v", platform, err)
			continue
		}
		lg.Printf("batch %s: %d scraped, %d processed", processed.ID, processed.TotalScraped, processed.TotalProcessed)

		if wantCSV {
			if _, err := csvExp.ExportBatch(processed, *outDir); err != nil {
				lg.Printf("csv export failed: %v", err)
			}
		}
		if wantJSON {
			if _, err := jsonExp.ExportBatch(processed, *outDir); err != nil {
				lg.Printf("json export failed: %v", err)
			}
		}
		if *dbPath != "" {
			if err := miner.Archive(ctx, processed); err != nil {
				lg.Printf("archive failed: %v", err)
			}
		}
	}
}

func printApps(cfg config.File) {
	ids := make([]string, 0, len(cfg.Apps))
	for id := range cfg.Apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		app := cfg.Apps[id]
		fmt.Printf("%-12s %s (%s) platforms=%s\n", id, app.Name, app.Category, strings.Join(app.Platforms, ","))
	}
}

func parseFormats(s string) (csv, json bool) {
	for _, f := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(f)) {
		case "csv":
			csv = true
		case "json":
			json = true
		}
	}
	return csv, json
}
