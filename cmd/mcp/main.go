package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"partselect/parser/internal/assistant"
	"partselect/parser/internal/config"
	"partselect/parser/internal/container"

	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

var version = "dev"

func main() {
	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ConfigureLogging(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	log.Infof("🚀 Starting %s %s on stdio", assistant.ServerName, version)
	if err := server.ServeStdio(assistant.NewServer(app.Service, version)); err != nil {
		log.Errorf("❌ MCP server stopped: %v", err)
	}
}
