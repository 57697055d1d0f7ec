package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"exoscan/internal/api"
	"exoscan/internal/cfg"
	"exoscan/internal/dashboard"
	"exoscan/internal/ensemble"
	"exoscan/internal/metrics"
	"exoscan/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	configureLogging(c.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	store, err := ensemble.LoadStore(c.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("model store configuration invalid")
	}
	if store.Ready() {
		m.ModelReady.Set(1)
	} else {
		m.ModelReady.Set(0)
		log.Warn().Msg("serving in degraded mode, all predictions will return ERROR")
	}

	engine := ensemble.New(store,
		ensemble.WithMetrics(metrics.NewWrapper(m)),
		ensemble.WithWorkers(c.BatchWorkers),
	)

	archive := openArchive(c)
	if archive != nil {
		defer archive.Close()
	}

	hub := dashboard.NewHub(archive)
	defer hub.Close()

	server := api.NewServer(engine, archive, m, hub, c)
	hub.Register(server.Router())

	startMetricsServer(ctx, c, m, store)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}

func configureLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// openArchive initializes prediction history storage if a data path is
// configured. The service runs fine without it; the dashboard summary just
// stays empty.
func openArchive(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		log.Info().Msg("no data path configured, prediction archive disabled")
		return nil
	}
	archive, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("failed to open prediction archive, continuing without it")
		return nil
	}
	log.Info().Str("path", c.DataPath).Msg("prediction archive enabled")
	return archive
}

func startMetricsServer(ctx context.Context, c cfg.Settings, m *metrics.Metrics, store *ensemble.Store) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Int("port", c.MetricsPort).Msg("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	// Keep the model age gauge current.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = srv.Shutdown(shutdownCtx)
				cancel()
				return
			case <-ticker.C:
				if store.Ready() {
					m.ModelAge.Set(time.Since(store.LoadedAt()).Seconds())
				}
			}
		}
	}()
}

func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutdown signal received")
		cancel()
	case <-ctx.Done():
	}
}
