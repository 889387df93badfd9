package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/neuro-elements/session-export/internal/api"
	"github.com/neuro-elements/session-export/internal/config"
	"github.com/neuro-elements/session-export/internal/db"
	"github.com/neuro-elements/session-export/internal/export"
	"github.com/neuro-elements/session-export/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode")
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", DB_FILE, "Path to the sqlite metadata database")
	configPath = flag.String("config", "", "Path to export config JSON (defaults to "+config.DefaultConfigPath+" when present)")
)

// Constants
const DB_FILE = "sessions.db"

// loadConfig returns the export configuration: the -config flag if given,
// the defaults file if present, or built-in defaults.
func loadConfig() *config.ExportConfig {
	if *configPath != "" {
		cfg, err := config.LoadExportConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %q: %v", *configPath, err)
		}
		return cfg
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		cfg, err := config.LoadExportConfig(config.DefaultConfigPath)
		if err != nil {
			log.Fatalf("Failed to load config %q: %v", config.DefaultConfigPath, err)
		}
		return cfg
	}
	return config.EmptyExportConfig()
}

// newExporter wires the aggregator's providers from configuration. Provider
// selection happens here, once; the exporter never probes at runtime.
func newExporter(database *db.DB, cfg *config.ExportConfig) *export.Exporter {
	var subjects export.SubjectProvider = export.NoSubjects{}
	var labs export.LabProvider = export.NoLabs{}
	if cfg.GetSubjectProvider() {
		subjects = export.StoreSubjects{DB: database}
	}
	if cfg.GetLabProvider() {
		labs = export.StoreLabs{DB: database}
	}
	return export.New(database, subjects, labs, cfg.GetDisplayTimeZone())
}

// Main
func main() {
	flag.Parse()

	// migrate subcommand manages the schema itself and exits
	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		db.RunMigrateCommand(args[1:], *dbPath)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("session-export %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Warn on startup if the schema is behind the bundled migrations.
	if migrationsFS, err := db.MigrationsFS(); err == nil {
		if _, err := database.CheckAndPromptMigrations(migrationsFS); err != nil {
			log.Printf("migration check: %v", err)
		}
	}

	cfg := loadConfig()
	exporter := newExporter(database, cfg)

	// Create a wait group for the HTTP server routine
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		// mount the API handlers
		apiMux := api.NewServer(database, exporter).ServeMux()
		mux.Handle("/api/", apiMux)

		var h http.Handler = mux
		if *devMode {
			h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				log.Printf("got request %q", r.URL.Path)
				mux.ServeHTTP(w, r)
			})
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(h),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
