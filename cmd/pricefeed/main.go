package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"AgriIntel/internal/di"
	"AgriIntel/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	file := flag.String("file", "", "CSV file with state,commodity,price_date,modal_price")
	flag.Parse()

	if *file == "" {
		log.Fatalf("-file is required")
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open %s: %v", *file, err)
	}
	defer f.Close()

	rows, rejected, err := ReadPriceCSV(f)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	for _, r := range rejected {
		log.Printf("skip line %d: %v", r.Line, r.Err)
	}

	processor, cleanup, err := di.InitializePriceFeed(cfg)
	if err != nil {
		log.Fatalf("price feed initialization failed: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sent, err := processor.Process(ctx, rows)
	log.Printf("backend=%s sent=%d skipped=%d", cfg.Backend.Type, sent, len(rejected))
	if err != nil {
		log.Printf("price feed error: %v", err)
		cleanup()
		os.Exit(1)
	}
}
