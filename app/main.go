package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/bookmark-comb/app/api"
	"github.com/lysyi3m/bookmark-comb/app/bookmarks"
	"github.com/lysyi3m/bookmark-comb/app/cfg"
	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/organizer"
	"github.com/lysyi3m/bookmark-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Bookmark Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DataDir)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	nodeRepo := database.NewNodeRepository(db)
	settingsRepo := database.NewSettingsRepository(db)

	if appCfg.SettingsFile != "" {
		if err := seedSettings(settingsRepo, appCfg.SettingsFile); err != nil {
			slog.Error("Failed to seed settings", "file", appCfg.SettingsFile, "error", err)
			os.Exit(1)
		}
	}

	if appCfg.ImportFile != "" {
		if err := importBookmarks(nodeRepo, appCfg.ImportFile); err != nil {
			slog.Error("Failed to import bookmarks", "file", appCfg.ImportFile, "error", err)
			os.Exit(1)
		}
	}

	org := organizer.New(nodeRepo, settingsRepo)
	if err := org.RecoverState(); err != nil {
		slog.Error("Failed to recover run state", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(org, settingsRepo, nodeRepo)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(nodeRepo, settingsRepo, org, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer; an in-flight organize run is
	// cancelled by its task and releases the run slot on the way out.
	slog.Info("Shutdown complete")
}

// seedSettings applies a YAML settings file on top of the stored settings.
// Run-state flags are never taken from the file. The YAML is routed through
// JSON so the field names match the settings schema exactly.
func seedSettings(repo database.SettingsRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	delete(raw, "isProcessing")
	delete(raw, "isInitialized")

	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	settings, err := repo.GetSettings()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(encoded, settings); err != nil {
		return fmt.Errorf("invalid settings values: %w", err)
	}

	if err := repo.SaveSettings(settings); err != nil {
		return err
	}

	slog.Info("Settings seeded", "file", path)
	return nil
}

// importBookmarks loads a Netscape bookmark HTML export into an empty
// database. A non-empty database skips the import so restarts are safe.
func importBookmarks(repo database.NodeRepository, path string) error {
	nodes, err := repo.GetTree()
	if err != nil {
		return err
	}
	if len(nodes) > 0 {
		slog.Info("Database not empty, skipping bookmark import", "file", path)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	stats, err := bookmarks.ImportHTML(file, repo, nil)
	if err != nil {
		return err
	}

	slog.Info("Bookmark import complete", "folders", stats.Folders, "bookmarks", stats.Bookmarks)
	return nil
}
