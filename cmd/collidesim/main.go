// cmd/collidesim/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/health"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/render"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "", "Path to a world configuration file (.json, .yaml or .yml)")
	templateName := flag.String("template", "", "Use a built-in scenario template instead of a file")
	listTemplates := flag.Bool("list", false, "List built-in scenario templates and exit")
	createDefault := flag.Bool("default", false, "Write the selected configuration to -config and exit")
	frames := flag.Int("frames", 60, "Number of frames to simulate (ignored with -serve)")
	serveAddr := flag.String("serve", "", "Run until interrupted, serving /health, /ready and /stats on this address")
	tick := flag.Duration("tick", 16*time.Millisecond, "Frame interval with -serve")
	renderEvery := flag.Int("render", 0, "Print an ASCII view of the world every N frames (0 disables)")
	flag.Parse()

	if *serveAddr != "" && *tick <= 0 {
		logger.Error(ctx, "Invalid frame interval", nil, "tick", tick.String())
		os.Exit(1)
	}

	if *listTemplates {
		for _, name := range config.ListScenarioTemplates() {
			display, description, _ := config.DescribeScenarioTemplate(name)
			fmt.Printf("%-10s %s: %s\n", name, display, description)
		}
		return
	}

	// Select configuration
	worldConfig, err := selectConfig(*configPath, *templateName, *createDefault)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
			"template", *templateName,
		)
		os.Exit(1)
	}

	// Create default configuration file if requested
	if *createDefault {
		if *configPath == "" {
			logger.Error(ctx, "-default requires -config", nil)
			os.Exit(1)
		}
		if err := config.SaveConfig(worldConfig, *configPath); err != nil {
			logger.Error(ctx, "Failed to write configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created configuration file", "config_path", *configPath)
		return
	}

	// Apply environment variable overrides
	if err := config.ApplyEnvironmentOverrides(worldConfig); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}

	sim, err := newSimulation(worldConfig, logger)
	if err != nil {
		logger.Error(ctx, "Failed to build simulation", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Simulation ready",
		"bodies", len(sim.bodies),
		"layers", sim.world.Layers(),
		"index", worldConfig.Index.Kind,
	)

	if *serveAddr != "" {
		if err := serve(ctx, sim, logger, *serveAddr, *tick); err != nil {
			logger.Error(ctx, "Simulation server failed", err)
			os.Exit(1)
		}
		return
	}

	var view *render.TerminalRenderer
	if *renderEvery > 0 {
		view = render.FitTo(sim.world.Boundary(), 80, 40)
	}

	for i := 0; i < *frames; i++ {
		stats, err := sim.step()
		if err != nil {
			logger.Warn(ctx, "Frame reported an error", "frame", stats.Frame, "error", err.Error())
		}
		if view != nil && stats.Frame%uint64(*renderEvery) == 0 {
			sim.draw(view)
			fmt.Printf("frame %d\n", stats.Frame)
			if err := view.Present(os.Stdout); err != nil {
				logger.Warn(ctx, "Render failed", "error", err.Error())
			}
		}
	}

	for _, b := range sim.bodies {
		pos := b.shape.Position()
		logger.Info(ctx, "Final body state",
			"body", b.name,
			"layer", b.layer,
			"x", pos.X,
			"y", pos.Y,
			"hits", b.hits,
		)
	}
	logger.Info(ctx, "Simulation complete", "frames", *frames, "contacts", sim.contacts)
}

// selectConfig resolves the configuration: an explicit template wins, then
// an existing file, then the default configuration.
func selectConfig(path, template string, creating bool) (*config.WorldConfig, error) {
	if template != "" {
		cfg := config.GetScenarioTemplate(template)
		if cfg == nil {
			return nil, fmt.Errorf("unknown template %q (available: %v)", template, config.ListScenarioTemplates())
		}
		return cfg, nil
	}
	if path == "" || creating {
		return config.DefaultConfig(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration file %s not found", path)
	}
	return config.LoadConfig(path)
}

// serve steps the simulation on a ticker and exposes health endpoints until
// SIGINT or SIGTERM.
func serve(ctx context.Context, sim *simulation, logger *logging.Logger, addr string, tick time.Duration) error {
	if tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", tick)
	}
	monitor := health.NewFrameMonitor()
	checker := health.NewChecker(monitor)
	checker.AddCheck(health.NewFrameLoopHealthCheck(monitor, 10*tick+time.Second))
	checker.AddCheck(health.NewDispatchHealthCheck(monitor, 0))
	checker.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))

	server := &http.Server{
		Addr:         addr,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting health server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ticker.C:
			stats, err := sim.step()
			monitor.Record(stats)
			if err != nil {
				logger.Warn(ctx, "Frame reported an error", "frame", stats.Frame, "error", err.Error())
			}
		case err := <-serverErr:
			runErr = err
			break loop
		case <-sigChan:
			logger.Info(ctx, "Shutting down simulation")
			break loop
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Health server shutdown failed", err)
	}
	return runErr
}
