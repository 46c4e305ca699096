package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solatis/routekeeper/internal/builder"
	"github.com/solatis/routekeeper/internal/core/config"
	"github.com/solatis/routekeeper/internal/envmgr"
	"github.com/solatis/routekeeper/internal/event"
	"github.com/solatis/routekeeper/internal/helper"
	"github.com/solatis/routekeeper/internal/queue"
	"github.com/solatis/routekeeper/internal/router"
	"github.com/solatis/routekeeper/internal/store"
	"github.com/solatis/routekeeper/internal/types"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the event routing daemon",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen-addr", "", "admin API listen address")
	serveCmd.Flags().Int("workers", 0, "router worker count")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("listen-addr") {
		cfg.ListenAddr, _ = cmd.Flags().GetString("listen-addr")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	db, err := store.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var migrationID string
	err = db.Get(&migrationID, db.Rebind("SELECT migration_id FROM migrations WHERE migration_id = ?"), "001_documents.sql")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("migration 001_documents not applied - run 'routekeeper migrate' first")
		}
		return fmt.Errorf("failed to check migrations: %w", err)
	}

	st, err := store.NewSQLStore(db)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	envs := envmgr.NewManager(cfg.EnvQueueCapacity, nil, log)
	b, err := builder.NewStoreBuilder(st, helper.DefaultRegistry())
	if err != nil {
		return err
	}

	r, err := router.New(cfg.Workers, b, envs, st, log)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	if err := r.RestoreTable(); err != nil {
		return fmt.Errorf("failed to restore route table: %w", err)
	}

	q := queue.New(cfg.QueueCapacity)
	if err := r.Run(q); err != nil {
		return err
	}
	defer r.Stop()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      adminHandler(r.APICallbacks()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin API listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin API failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// adminHandler mounts the router's command dispatcher on a single JSON
// endpoint. Transport stays this thin on purpose; the action surface is
// the dispatcher's.
func adminHandler(dispatch router.CommandFn) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/router", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(req.Body, types.MaxEventSize))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		params, err := event.Parse(body)
		if err != nil {
			http.Error(w, "request body is not valid JSON", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dispatch(params))
	})
	return mux
}
