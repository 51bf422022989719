// Command carve narrows an image by seam carving.
//
//	carve -in photo.jpg -out narrow.png -width 640
//	carve -in photo.jpg -out narrow.png -scale 70 -algo greedy -backend gpu-compute
//
// Settings come from the optional -config YAML file, a .env file and
// SEAMCARVE_* environment variables. Flags given on the command line win.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/gogpu/seamcarve"
	"github.com/gogpu/seamcarve/internal/config"
	"github.com/gogpu/seamcarve/internal/imageio"
	"github.com/gogpu/seamcarve/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "carve: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	in, out, compare string
	width, scale     int
	configPath       string
	envFile          string
	quiet            bool

	algo, backend, shaders string
	workers                int
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("carve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.in, "in", "", "input image (png, jpeg, gif, bmp, tiff, webp)")
	fs.StringVar(&o.out, "out", "", "output image; format from extension (png, jpg, bmp, tiff)")
	fs.StringVar(&o.compare, "compare", "", "also write a bilinear resize to the same width")
	fs.IntVar(&o.width, "width", 0, "target width in pixels")
	fs.IntVar(&o.scale, "scale", 0, fmt.Sprintf("target width as a percentage (%d-%d); -width wins", seamcarve.MinScalePercent, seamcarve.MaxScalePercent))
	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.envFile, "env", "", "dotenv file (default .env)")
	fs.BoolVar(&o.quiet, "quiet", false, "no console progress")

	fs.StringVar(&o.algo, "algo", "", "seam algorithm: greedy or dp")
	fs.StringVar(&o.backend, "backend", "", "energy backend: "+strings.Join(seamcarve.Backends(), ", "))
	fs.StringVar(&o.shaders, "shaders", "", "directory overriding the embedded GPU shaders")
	fs.IntVar(&o.workers, "workers", 0, "CPU energy workers (0 or 1 is serial)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if o.in == "" || o.out == "" {
		fs.Usage()
		return nil, nil, errors.New("-in and -out are required")
	}
	return &o, fs, nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cfg *config.Config, o *options, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "algo":
			cfg.Algorithm = o.algo
		case "backend":
			cfg.Backend = o.backend
		case "shaders":
			cfg.ShaderDir = o.shaders
		case "workers":
			cfg.Workers = o.workers
		}
	})
}

func run(args []string, stdout, stderr io.Writer) error {
	o, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, o, fs)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()
	seamcarve.SetLogger(logger)
	defer seamcarve.SetLogger(nil)

	src, format, err := imageio.Load(o.in)
	if err != nil {
		return err
	}
	target, err := resolveTarget(src.Width(), o.width, o.scale)
	if err != nil {
		return err
	}
	logger.Debug("input loaded", "path", o.in, "format", format,
		"width", src.Width(), "height", src.Height(), "target", target)

	backend, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	var sinks seamcarve.MultiSink
	if !o.quiet {
		sinks = append(sinks, newConsoleSink(stdout))
	}
	if cfg.Log.File != "" {
		sinks = append(sinks, seamcarve.LogSink{Logger: logger})
	}

	r := seamcarve.NewReducer(
		seamcarve.WithEnergy(backend),
		seamcarve.WithProgress(sinks),
		seamcarve.WithRunID(uuid.NewString()),
		seamcarve.WithSlowIteration(cfg.SlowIteration),
	)
	out, err := r.Reduce(src, target, cfg.AlgorithmValue())
	if err != nil {
		return err
	}
	if err := imageio.Save(o.out, out); err != nil {
		return err
	}
	logger.Info("output written", "path", o.out, "width", out.Width(), "height", out.Height())

	if o.compare != "" {
		scaled, err := imageio.ScaleWidth(src, out.Width())
		if err != nil {
			return err
		}
		if err := imageio.Save(o.compare, scaled); err != nil {
			return err
		}
		logger.Info("comparison written", "path", o.compare)
	}
	return nil
}

// resolveTarget picks the target width. An explicit width wins over a
// scale percentage. Non-positive explicit widths are passed through for
// the reducer to reject.
func resolveTarget(width, explicit, scale int) (int, error) {
	switch {
	case explicit != 0:
		return explicit, nil
	case scale != 0:
		return seamcarve.ScaleTarget(width, scale), nil
	default:
		return 0, errors.New("one of -width or -scale is required")
	}
}

// openBackend opens the configured energy backend. A GPU backend that
// cannot open is replaced by "cpu" with a warning.
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
