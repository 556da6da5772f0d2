package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"AgriIntel/internal/di"
	"AgriIntel/pkg/config"
)

func main() {
	defaultPath := "config/config.yaml"
	if p := os.Getenv("AGRI_CONFIG"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "config file path (env AGRI_CONFIG)")
	checkOnly := flag.Bool("check-config", false, "validate the config and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *checkOnly {
		fmt.Printf("config %s ok (environment=%s)\n", *configPath, cfg.Environment)
		return
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app stopped with error: %v", err)
		os.Exit(1)
	}
}
