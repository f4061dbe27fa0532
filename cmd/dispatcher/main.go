package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slavakukuyev/dispatch-engine/internal/engine"
	"github.com/slavakukuyev/dispatch-engine/internal/infra/config"
	"github.com/slavakukuyev/dispatch-engine/internal/infra/health"
	"github.com/slavakukuyev/dispatch-engine/internal/infra/logging"
	"github.com/slavakukuyev/dispatch-engine/internal/simclient"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		slog.Error("failed to initialize configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.InfoContext(ctx, "dispatch engine starting up",
		slog.String("environment", cfg.Environment),
		slog.String("simulator_base_url", cfg.SimulatorBaseURL),
		slog.Float64("tick_delay_seconds", cfg.TickDelaySeconds),
		slog.Int64("reassign_after_ticks", cfg.ReassignAfterTicks),
		slog.Float64("target_load_factor", cfg.TargetLoadFactor),
		slog.String("heavy_cars", cfg.HeavyCars),
		slog.Float64("heavy_activation_ratio", cfg.HeavyActivationRatio))

	sim := simclient.New(cfg.SimulatorBaseURL, simclient.WithTimeout(cfg.SimulatorTimeout))

	eng := engine.New(sim, engine.Config{
		TickDelay:            cfg.TickDelay(),
		ReassignAfterTicks:   cfg.ReassignAfterTicks,
		TargetLoadFactor:     cfg.TargetLoadFactor,
		HeavyCars:            cfg.HeavyCarSet(),
		HeavyActivationRatio: cfg.HeavyActivationRatio,
	})

	healthService := health.NewHealthService(5 * time.Second)
	healthService.Register(health.NewLivenessChecker())
	healthService.Register(health.NewComponentHealthChecker("simulator", func(ctx context.Context) (bool, string, map[string]interface{}) {
		if _, err := sim.GetState(ctx); err != nil {
			return false, err.Error(), nil
		}
		return true, "simulator reachable", nil
	}))

	mux := http.NewServeMux()
	if cfg.MetricsEnabled {
		mux.Handle(cfg.MetricsPath, promhttp.Handler())
	}
	if cfg.HealthEnabled {
		mux.HandleFunc(cfg.HealthPath, func(w http.ResponseWriter, r *http.Request) {
			status, _ := healthService.GetOverallStatus(r.Context())
			w.Header().Set("Content-Type", "text/plain")
			if status != health.StatusHealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			fmt.Fprintln(w, status)
		})
	}

	observabilityServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		slog.InfoContext(ctx, "starting observability server", slog.Int("port", cfg.Port))
		if err := observabilityServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "observability server failed", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- eng.Run(ctx)
	}()

	go runRoundAdvanceLoop(ctx, eng, sim, cfg.TickDelay())

	select {
	case sig := <-quit:
		slog.InfoContext(ctx, "received shutdown signal", slog.String("signal", sig.String()))
		eng.Stop()
		cancel()
	case err := <-runErrCh:
		if err != nil {
			slog.ErrorContext(ctx, "dispatch engine run loop exited with error", slog.String("error", err.Error()))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := observabilityServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "observability server shutdown failed", slog.String("error", err.Error()))
	}

	slog.InfoContext(ctx, "dispatch engine shutdown complete")
}

// runRoundAdvanceLoop watches the engine's idle state and advances the
// simulator to its next traffic round once the current round's demand has
// been fully served. It only fires on the false-to-true idle transition, so
// a round that is already drained and waiting does not repeatedly request
// the next round.
func runRoundAdvanceLoop(ctx context.Context, eng *engine.Engine, sim *simclient.Client, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	wasIdle := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := eng.Idle()
			if idle && !wasIdle {
				advanced, err := sim.NextTrafficRound(ctx, false)
				if err != nil {
					slog.ErrorContext(ctx, "failed to advance traffic round", slog.String("error", err.Error()))
				} else if advanced {
					slog.InfoContext(ctx, "traffic round complete, advanced to next round")
				}
			}
			wasIdle = idle
		}
	}
}
