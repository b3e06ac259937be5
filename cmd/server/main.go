package main

import (
	"flag"
	"log"
	"os"

	"github.com/steepan/devops-project/internal/config"
	"github.com/steepan/devops-project/internal/logger"
	"github.com/steepan/devops-project/internal/server"
)

func main() {
	defaultPath := "configs/default.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	srv, err := server.New(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
