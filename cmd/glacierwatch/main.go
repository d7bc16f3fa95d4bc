// Package main is the glacierwatch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/glacierwatch/internal/catalog"
	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/models"
	"github.com/hyperjump/glacierwatch/internal/server"
	"github.com/hyperjump/glacierwatch/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/glacierwatch/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence; when neither exists, defaults plus environment are used.
// Returns the config and the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "init":
		runInit(args)
	case "glaciers":
		runGlaciers(args)
	case "variables":
		runVariables(args)
	case "session":
		runSession(args)
	case "velocity":
		runVelocity(args)
	case "climate":
		runClimate(args)
	case "ask":
		runAsk(args)
	case "export":
		runExport(args)
	case "version", "--version", "-v":
		fmt.Printf("glacierwatch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (platform calls, catalog reloads, etc.)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, models.ErrCredential) {
			fmt.Fprintf(os.Stderr, "Credential error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		}
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.Path != "" && cfg.Catalog.WatchOrDefault() {
		watchSvc := catalog.NewWatcher(components.Catalog, cfg.Catalog.Path, catalog.WithLogger(logger))
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Warn("catalog watcher not started", zap.String("path", cfg.Catalog.Path), zap.Error(err))
		}
	}

	srv := server.NewServer(components.Sessions, components.Catalog, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "where to write the config file")
	catalogName := fs.String("catalog", "glaciers.yaml", "glacier catalog file to seed next to the config (empty to skip)")
	simulated := fs.Bool("simulated", false, "use the built-in simulated processing platform")
	force := fs.Bool("force", false, "overwrite existing files")
	_ = fs.Parse(args)

	catalogPath, err := writeInitFiles(*configPath, *catalogName, *simulated, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", *configPath)
	if catalogPath != "" {
		fmt.Printf("Glacier catalog written to %s\n", catalogPath)
	}
	fmt.Println("Put GOOGLE_API_KEY in a .env file next to it, or set assistant.provider to ollama.")
	if !*simulated {
		fmt.Println("Set platform.endpoint and GEOPROC_API_KEY, or platform.simulated: true for offline use.")
	}
}

// writeInitFiles writes a default config and, when catalogName is set, a catalog file
// seeded with the built-in glaciers next to it. It returns the catalog path.
func writeInitFiles(configPath, catalogName string, simulated, force bool) (string, error) {
	if _, err := os.Stat(configPath); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	var cfg config.Config
	config.ApplyDefaults(&cfg)
	cfg.Platform.Simulated = simulated

	catalogPath := ""
	if catalogName != "" {
		catalogPath = filepath.Join(filepath.Dir(configPath), catalogName)
		cfg.Catalog.Path = "./" + catalogName
		if _, err := os.Stat(catalogPath); err != nil || force {
			if err := catalog.WriteFile(catalogPath, catalog.Builtin()); err != nil {
				return "", fmt.Errorf("failed to write catalog: %w", err)
			}
		}
	}
	if err := config.Save(configPath, &cfg); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return catalogPath, nil
}

func printUsage() {
	fmt.Println(`glacierwatch - Glacier velocity, climate layers and an AI assistant

Usage:
  glacierwatch server [flags]                 Start the HTTP server
  glacierwatch init [flags]                   Write a default config and glacier catalog
  glacierwatch glaciers [flags]               List preset glaciers
  glacierwatch variables [flags]              List climate variables
  glacierwatch session <create|show|list|delete|turns|suggest> [flags]
  glacierwatch velocity [flags]               Estimate surface velocity between two dates
  glacierwatch climate [flags]                Load a monthly climate layer
  glacierwatch ask [flags] <question>         Ask the assistant about the current analysis
  glacierwatch export [flags]                 Download the analysis report (txt or xlsx)
  glacierwatch version                        Show version
  glacierwatch help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/glacierwatch/config.yaml)
  --debug            Enable debug logging

Client Flags (all client commands):
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Area Flags (velocity, climate, session create):
  --session string   Existing session ID
  --preset string    Preset glacier name (e.g. gangotri)
  --lat, --lon       Custom center coordinates
  --radius float     Buffer radius in km, 1-15 (default: 5)
  --name string      Name for a custom location

Examples:
  glacierwatch server
  glacierwatch glaciers
  glacierwatch session create --preset pindari
  glacierwatch velocity --preset pindari --from 2021-06-01 --to 2021-09-01
  glacierwatch climate --session <id> --variable "Air Temperature" --date 2023-08-15
  glacierwatch ask --session <id> How does temperature affect glacier velocity?
  glacierwatch export --session <id> --format xlsx`)
}
