package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docgallery/internal/build"
	"git.home.luguber.info/inful/docgallery/internal/config"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
	"git.home.luguber.info/inful/docgallery/internal/manifest"
	"git.home.luguber.info/inful/docgallery/internal/metrics"
	"git.home.luguber.info/inful/docgallery/internal/version"
	"git.home.luguber.info/inful/docgallery/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docgallery.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		NoManifest bool `help:"Skip recording the build manifest"`
	} `cmd:"" help:"Build the content tree and example gallery once"`

	Watch struct{} `cmd:"" help:"Watch the docs tree and rebuild on changes"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

const starterConfig = `# docgallery configuration
source: docs
output: site/content

gallery:
  enabled: true
  output_directory: examples
  # What to do with links inside an example that only resolve on the
  # originating page: "backlink" rewrites them, "error" fails the build.
  unresolved_reference: backlink

watch:
  # interval: 10m
  # nats_url: nats://localhost:4222
  # nats_subject: docgallery.builds
  # metrics_addr: :9180
`

func main() {
	// Environment overrides (e.g. NATS credentials) may live in a .env file.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch kctx.Command() {
	case "build":
		if err := runBuild(); err != nil {
			slog.Error("build failed", logfields.Error(err))
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(); err != nil {
			slog.Error("watch mode failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := runInit(); err != nil {
			slog.Error("init failed", logfields.Error(err))
			os.Exit(1)
		}
	case "version":
		fmt.Printf("docgallery %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	default:
		_ = kctx.PrintUsage(false)
		os.Exit(1)
	}
}

func runBuild() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	var store *manifest.Store
	if !CLI.Build.NoManifest {
		store, err = openManifest(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signalContext()
	defer stop()

	report, err := build.NewBuilder(cfg, store).Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("build complete",
		slog.Int("documents", report.Documents),
		slog.Int("examples", report.Examples),
		slog.Int("pages_written", report.PagesWritten),
		slog.Int("pages_purged", report.PagesPurged))
	return nil
}

func runWatch() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	store, err := openManifest(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signalContext()
	defer stop()

	recorder := metrics.NewPrometheusRecorder()
	if cfg.Watch.MetricsAddr != "" {
		go watch.ServeMetrics(ctx, cfg.Watch.MetricsAddr, recorder.Handler())
	}

	var publisher *watch.Publisher
	if cfg.Watch.NATSURL != "" {
		publisher, err = watch.NewPublisher(cfg.Watch.NATSURL, cfg.Watch.NATSSubject)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	run := func(ctx context.Context) (*build.Report, error) {
		return build.NewBuilder(cfg, store).WithRecorder(recorder).Run(ctx)
	}

	w, err := watch.New(cfg, run, publisher)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func runInit() error {
	if _, err := os.Stat(CLI.Config); err == nil && !CLI.Init.Force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", CLI.Config)
	}
	if err := os.WriteFile(CLI.Config, []byte(starterConfig), 0o600); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	slog.Info("configuration file created", logfields.Path(CLI.Config))
	return nil
}

// openManifest opens the build manifest database next to the output tree.
func openManifest(cfg *config.Config) (*manifest.Store, error) {
	dir := filepath.Dir(cfg.Output)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return manifest.Open(filepath.Join(dir, ".docgallery.db"))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
