// Command obraledger runs the offline-first record-keeping daemon: it opens
// the local store, restores the session, schedules periodic reconciliation
// with the remote authority, and serves sync status and Prometheus metrics
// on a local port.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obraledger/obraledger/internal/auth"
	"github.com/obraledger/obraledger/internal/config"
	"github.com/obraledger/obraledger/internal/remote"
	"github.com/obraledger/obraledger/internal/storage"
	"github.com/obraledger/obraledger/internal/storage/sqlite"
	syncengine "github.com/obraledger/obraledger/internal/sync"
	"github.com/obraledger/obraledger/pkg/logging"
)

// clientIDKey is the settings entry holding this device's stable identifier.
const clientIDKey = "client.id"

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientID, err := deviceID(ctx, store)
	if err != nil {
		slog.Error("Failed to establish device ID", "error", err)
		os.Exit(1)
	}

	authority := remote.NewClient(cfg.APIBaseURL, clientID, cfg.APITimeout)

	sessions := auth.NewService(store, authority, slog.Default())
	if err := sessions.Bootstrap(ctx); err != nil {
		slog.Error("Failed to bootstrap session holder", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := syncengine.NewMetrics(registry)

	online := syncengine.DialProbe(cfg.APIBaseURL, 2*time.Second)
	engine := syncengine.NewEngine(store, authority, sessions, online, nil, metrics, slog.Default())
	reporter := syncengine.NewReporter(engine)

	scheduler := syncengine.NewScheduler(engine, sessions, cfg.SyncInterval, slog.Default())
	scheduler.Start(ctx)
	defer scheduler.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		report := reporter.Report()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"state":    report.State,
			"lastSync": report.LastSync,
			"age":      report.Age.String(),
		})
	})
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		ok := engine.Sync(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"success": ok})
	})

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		slog.Info("Status server starting", "address", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Status server shutdown", "error", err)
	}
}

// deviceID returns the persisted per-device UUID, creating it on first run.
func deviceID(ctx context.Context, store storage.Store) (string, error) {
	id, err := store.GetSetting(ctx, clientIDKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := store.SetSetting(ctx, clientIDKey, id); err != nil {
		return "", err
	}
	slog.Info("Assigned device ID", "client_id", id)
	return id, nil
}
