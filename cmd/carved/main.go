// Command carved serves seam carving over HTTP.
//
//	carved -config carved.yaml
//	curl -F image=@photo.jpg -F width=640 localhost:8080/v1/carve > narrow.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gogpu/seamcarve"
	"github.com/gogpu/seamcarve/internal/config"
	"github.com/gogpu/seamcarve/internal/logging"
	"github.com/gogpu/seamcarve/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		envFile    = flag.String("env", "", "dotenv file (default .env)")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		backend    = flag.String("backend", "", "energy backend (overrides config)")
	)
	flag.Parse()

	if err := run(*configPath, *envFile, *addr, *backend); err != nil {
		fmt.Fprintf(os.Stderr, "carved: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile, addr, backendName string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if backendName != "" {
		cfg.Backend = backendName
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	seamcarve.SetLogger(logger)

	backend, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if lvl, _ := config.ParseLevel(cfg.Log.Level); lvl > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(backend, cfg, logger).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 2 * cfg.Server.ReadTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening",
			"addr", cfg.Server.Addr,
			"backend", backend.Name(),
			"algorithm", cfg.Algorithm,
			"max_upload_bytes", cfg.Server.MaxUploadBytes)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// openBackend opens the configured backend, replacing an unavailable GPU
// backend with "cpu".
func openBackend(cfg *config.Config, logger *slog.Logger) (seamcarve.Backend, error) {
	bc := seamcarve.BackendConfig{Workers: cfg.Workers, ShaderDir: cfg.ShaderDir}
	b, err := seamcarve.OpenBackend(cfg.Backend, bc)
	if err == nil {
		return b, nil
	}
	if cfg.Backend == "cpu" {
		return nil, err
	}
	logger.Warn("energy backend unavailable, using cpu",
		"backend", cfg.Backend,
		"gpu_build", gpuBuild,
		"expected", errors.Is(err, seamcarve.ErrFallbackToCPU),
		"err", err)
	return seamcarve.OpenBackend("cpu", bc)
}
