package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"opsboard/pkg/api"
	"opsboard/pkg/board"
	"opsboard/pkg/config"
	"opsboard/pkg/model"
	"opsboard/pkg/reports"

	log "github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configFile := flag.String("config", "opsboard.toml", "Configuration file")
	table := flag.String("table", "", "Print a table as JSON (abiertos, cerrados, n3, ...)")
	dataset := flag.String("dataset", "", "With -table: all, inv or evo")
	search := flag.String("search", "", "With -table: text search")
	report := flag.Bool("report", false, "Print the summary report as JSON")
	days := flag.String("days", "30", "Report window in days, or 'all'")
	export := flag.String("export", "", "Write the summary report to this .xlsx file")
	logout := flag.Bool("logout", false, "Revoke and forget the saved session")

	flag.Parse()
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel())
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *table == "" && !*report && *export == "" && !*logout {
		log.Error("Nothing to do: use -table, -report, -export or -logout")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, session, err := api.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Google: %v", err)
	}
	defer svc.Close()

	if *logout {
		if err := session.Revoke(ctx); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		log.Info("Session removed")
		return
	}

	if *table != "" {
		ds, ok := board.ParseDataset(*dataset)
		if !ok {
			log.Fatalf("Invalid dataset %q", *dataset)
		}
		snap, err := svc.Snapshot(ctx, *table, board.Filter{Dataset: ds, Search: *search}, false)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *table, err)
		}
		for _, w := range snap.Warnings {
			log.Warn(w)
		}
		printJSON(snap)
	}

	if !*report && *export == "" {
		return
	}
	window, err := model.ParseWindow(*days)
	if err != nil {
		log.Fatalf("Invalid -days: %v", err)
	}
	summary, err := svc.Summary(ctx, window)
	if err != nil {
		log.Fatalf("Failed to build report: %v", err)
	}
	if *report {
		printJSON(summary)
	}
	if *export != "" {
		f, err := os.Create(*export)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *export, err)
		}
		if err := reports.ExportXLSX(f, summary); err != nil {
			f.Close()
			log.Fatalf("Export failed: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.WithField("file", *export).Info("Report exported")
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
