package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	bridgeadapter "github.com/jcrawford/networth/internal/adapter/driven/bridge"
	"github.com/jcrawford/networth/internal/adapter/driven/identity"
	sqliteadapter "github.com/jcrawford/networth/internal/adapter/driven/sqlite"
	walletadapter "github.com/jcrawford/networth/internal/adapter/driven/wallet"
	httphandler "github.com/jcrawford/networth/internal/adapter/driving/http"
	"github.com/jcrawford/networth/internal/application"
	"github.com/jcrawford/networth/internal/config"
	"github.com/jcrawford/networth/internal/domain/port/driven"
	"github.com/jcrawford/networth/internal/fetch"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sync_interval", cfg.SyncInterval,
		"owner_id", cfg.OwnerID,
		"encryption", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	accountStore := sqliteadapter.NewAccountRepo(db)
	transactionStore := sqliteadapter.NewTransactionRepo(db)
	snapshotStore := sqliteadapter.NewSnapshotRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	resolver := identity.NewStaticResolver(cfg.OwnerID)

	fetcher := fetch.NewClient(nil)
	bridgeClient := bridgeadapter.NewClient(fetcher)
	walletClient := walletadapter.NewClient(fetcher, cfg.WalletRPCURL, cfg.WalletIndexURL, cfg.PriceURL)

	// 6. Wire application services.
	reconciler := application.NewReconciler(accountStore, transactionStore, snapshotStore)
	syncSvc := application.NewSyncService(
		[]driven.ProviderClient{bridgeClient, walletClient},
		credentialStore,
		reconciler,
		resolver,
		cfg.SyncInterval,
	)
	connectSvc := application.NewConnectService(bridgeClient, credentialStore, syncSvc)
	portfolioSvc := application.NewPortfolioService(accountStore, snapshotStore)

	// 7. Start the periodic sync loop.
	go syncSvc.Start(ctx)

	// 8. Create HTTP handler and server.
	apiHandler := httphandler.NewHandler(accountStore, resolver, syncSvc, connectSvc, portfolioSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("networth started",
		"listen_addr", cfg.ListenAddr,
		"sync_interval", cfg.SyncInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
