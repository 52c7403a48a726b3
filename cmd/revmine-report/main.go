package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/driftline/revmine/pkg/logger"
	"github.com/driftline/revmine/pkg/revmine"
	"github.com/driftline/revmine/pkg/revmine/export"
	"github.com/driftline/revmine/pkg/revmine/review"
	"github.com/driftline/revmine/pkg/revmine/store/sqlite"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "SQLite archive path (required unless -batch files given)")
		outDir     = flag.String("out", "data/exports", "Report output directory")
		reportName = flag.String("name", "comprehensive_report", "Base name for report files")
		summaryCSV = flag.Bool("summary-csv", true, "Also write a per-batch summary CSV")
	)
	flag.Parse()

	lg := logger.New("revmine-report")
	ctx := context.Background()

	var batches []review.Batch
	if flag.NArg() > 0 {
		for _, path := range flag.Args() {
			b, err := review.LoadJSON(path)
			if err != nil {
				log.Fatalf("Failed to load batch %s: %v", path, err)
			}
			batches = append(batches, b)
		}
	} else {
		if *dbPath == "" {
			log.Fatal("--db required when no batch files are given")
		}
		st, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatal("Failed to open archive: ", err)
		}
		defer st.Close()

		batches, err = st.LoadAll(ctx)
		if err != nil {
			log.Fatal("Failed to load batches: ", err)
		}
	}

	if len(batches) == 0 {
		log.Fatal("No batches to report on")
	}
	lg.Printf("loaded %d batches", len(batches))

	miner := revmine.New(revmine.Options{Logger: lg})
	rep, err := miner.Report(batches)
	if err != nil {
		log.Fatal("Failed to generate report: ", err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal("Failed to create output directory: ", err)
	}
	base := fmt.Sprintf("%s_%s", *reportName, time.Now().Format("20060102_150405"))
	path := filepath.Join(*outDir, export.SafeFilename(base)+"_analysis.json")
	if err := rep.WriteJSON(path); err != nil {
		log.Fatal("Failed to write report: ", err)
	}
	lg.Printf("wrote report %s (%d batches, %d reviews)", path, rep.TotalBatches, rep.Overall.TotalReviews)

	if *summaryCSV {
		csvExp := export.NewCSVExporter(lg)
		if _, err := csvExp.ExportSummary(batches, *reportName+"_summary", *outDir); err != nil {
			log.Fatal("Failed to write summary CSV: ", err)
		}
	}
}
