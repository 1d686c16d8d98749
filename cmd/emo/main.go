package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/4thel00z/emo/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

// registryTimeout bounds HuggingFace API calls. Model downloads are not
// bounded.
const registryTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	rootCmd := NewRootCmd(version, newApp())
	if err := fang.Execute(ctx, rootCmd, fang.WithNotifySignal(os.Interrupt)); err != nil {
		os.Exit(1)
	}
}

type selectorOpener func(ctx context.Context, cfg *internal.Config, override string) (internal.OpenedSelector, error)

type app struct {
	paths    internal.Paths
	dataset  *internal.Dataset
	registry *internal.Registry
	loaded   bool

	// openSelector is nil in production; tests replace it with a fake.
	openSelector selectorOpener

	debug  bool
	stderr io.Writer
}

func newApp() *app {
	return &app{stderr: os.Stderr}
}

// load resolves paths and the embedded tables on first use, so --help and
// --version work even when the config dir cannot be resolved.
func (a *app) load() error {
	if a.loaded {
		return nil
	}

	paths, err := internal.ResolvePaths()
	if err != nil {
		return err
	}

	dataset, err := internal.LoadDataset()
	if err != nil {
		return err
	}

	registry, err := internal.NewRegistry(
		internal.WithRegistryToken(os.Getenv("HF_TOKEN")),
		internal.WithRegistryClient(&http.Client{Timeout: registryTimeout}),
	)
	if err != nil {
		return err
	}

	a.paths = paths
	a.dataset = dataset
	a.registry = registry
	a.loaded = true
	return nil
}

func (a *app) selector(ctx context.Context, cfg *internal.Config, override string) (internal.OpenedSelector, error) {
	if a.openSelector != nil {
		return a.openSelector(ctx, cfg, override)
	}

	progress := newProgressPrinter(a.stderr)
	factory := &internal.SelectorFactory{
		ConfigPath: a.paths.ConfigPath(),
		Registry:   a.registry,
		Downloader: internal.NewDownloader(a.paths.ModelDir(), os.Getenv("HF_TOKEN")),
		Catalog:    a.dataset,
		Debug:      a.debug,
		OnProgress: progress.Update,
	}
	defer progress.Done()

	return factory.Open(ctx, cfg, override)
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
