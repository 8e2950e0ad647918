package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/platewise/menulens/pkg/api"
	"github.com/platewise/menulens/pkg/foodkb"
	"github.com/platewise/menulens/pkg/match"
	"github.com/platewise/menulens/pkg/pipeline"
	"github.com/platewise/menulens/pkg/scanstore"
)

type config struct {
	Addr        string       `yaml:"addr"`
	CatalogsDir string       `yaml:"catalogs_dir"`
	ScanDB      string       `yaml:"scan_db"` // empty disables scan persistence
	Parallelism int          `yaml:"parallelism"`
	Match       match.Config `yaml:"match"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: menulens <command>\n\nCommands:\n  serve    Start the HTTP server\n  mcp      Serve the MCP tools over stdio\n  import   Download and build food catalogs\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(*cfgPath, logger)

	deps, reg, closeStore := buildDeps(cfg, logger)
	defer closeStore()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewRouter(deps),
	}

	// SIGHUP: hot reload catalogs.
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			logger.Info("SIGHUP received, reloading catalogs")
			if err := reg.Reload(); err != nil {
				logger.Error("reload failed", "error", err)
			} else {
				idx := reg.Index()
				logger.Info("catalogs reloaded", "count", reg.CatalogCount(), "entities", idx.EntityCount(), "variants", idx.VariantCount())
			}
		}
	}()

	go func() {
		logger.Info("menulens listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown(context.Background())
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(*cfgPath, logger)

	deps, _, closeStore := buildDeps(cfg, logger)
	defer closeStore()

	srv := server.NewMCPServer("menulens", version)
	api.RegisterMCPTools(srv, deps)

	logger.Info("menulens MCP server on stdio")
	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

const version = "0.3.0"

// buildDeps loads the catalogs and wires the shared collaborators. The
// returned closer releases the scan store (a no-op when persistence is off).
func buildDeps(cfg config, logger *slog.Logger) (api.Deps, *foodkb.Registry, func()) {
	reg := foodkb.NewRegistry(cfg.CatalogsDir)
	if err := reg.Load(); err != nil {
		logger.Error("failed to load catalogs", "error", err)
		os.Exit(1)
	}
	idx := reg.Index()
	logger.Info("catalogs loaded", "count", reg.CatalogCount(), "entities", idx.EntityCount(), "variants", idx.VariantCount())

	var store *scanstore.Store
	closeStore := func() {}
	if cfg.ScanDB != "" {
		s, err := scanstore.Open(cfg.ScanDB)
		if err != nil {
			logger.Error("failed to open scan store", "path", cfg.ScanDB, "error", err)
			os.Exit(1)
		}
		store = s
		closeStore = func() { s.Close() }
	}

	resolver := pipeline.NewResolver(match.New(cfg.Match), cfg.Parallelism, logger)

	return api.Deps{
		Registry: reg,
		Resolver: resolver,
		Store:    store,
		Logger:   logger,
	}, reg, closeStore
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := config{
		Addr:        ":8520",
		CatalogsDir: "catalogs",
		ScanDB:      "scans.db",
		Match:       match.DefaultConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}
