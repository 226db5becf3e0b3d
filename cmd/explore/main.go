package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/logger"
	"github.com/lao-tseu-is-alive/go-boids-explore/internal/remote"
	"github.com/lao-tseu-is-alive/go-boids-explore/internal/simulation"
)

// Options is the command line configuration
type Options struct {
	ConfigFile string
	SchemaFile string
	Headless   bool
	// LogLevel is global log level: Debug(-1), Info(0), Warn(1), Error(2), DPanic(3), Panic(4), Fatal(5)
	LogLevel int
	// LogTimeFormat is print time format for logger e.g. 2006-01-02T15:04:05Z07:00
	LogTimeFormat string
}

func main() {
	var opts Options
	flag.StringVar(&opts.ConfigFile, "config", "configs/config.json", "Path to the JSON config file")
	flag.StringVar(&opts.SchemaFile, "schema", "configs/config.schema.json", "Path to the config JSON schema")
	flag.BoolVar(&opts.Headless, "headless", false, "Run the simulation without a window")
	flag.IntVar(&opts.LogLevel, "log-level", 0, "Global log level")
	flag.StringVar(&opts.LogTimeFormat, "log-time-format", "",
		"Print time format for logger e.g. 2006-01-02T15:04:05Z07:00")
	flag.Parse()

	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()

	l, err := logger.New(opts.LogLevel, opts.LogTimeFormat)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer l.Sync()

	if err := run(opts, l); err != nil {
		l.Fatal("explore stopped", zap.Error(err))
	}
}

func run(opts Options, l *zap.Logger) error {
	cfg, err := simulation.LoadConfig(opts.ConfigFile, opts.SchemaFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, closer, err := newSnapshotSource(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closer.Close()

	var params remote.ParamsSource = remote.StaticParams(cfg.Params)
	if cfg.ParamsURL != "" {
		params = remote.NewHTTPParamsSource(cfg.ParamsURL, cfg.RequestTimeout(), l.Named("params"))
	}

	sim := simulation.NewSimulator(cfg, snapshots, params, l.Named("simulator"))

	if opts.Headless {
		return sim.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowTitle(simulation.WindowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// a signal cancels ctx, the game then ends RunGame with ebiten.Termination
	if err := ebiten.RunGame(simulation.NewGame(ctx, sim, cfg.Params, l.Named("game"))); err != nil {
		return err
	}
	cancel()
	return <-done
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newSnapshotSource builds the configured source, wrapped in the redis cache when one is set.
func newSnapshotSource(ctx context.Context, cfg *simulation.Config, l *zap.Logger) (remote.SnapshotSource, io.Closer, error) {
	var (
		src     remote.SnapshotSource
		closers multiCloser
	)
	switch cfg.Source {
	case simulation.SourceFirestore:
		fs, err := remote.NewFirestoreSource(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID, cfg.FirestoreCollection)
		if err != nil {
			return nil, nil, err
		}
		src = fs
		closers = append(closers, fs)
		l.Info("reading snapshots from firestore", zap.String("collection", cfg.FirestoreCollection))
	default:
		src = remote.NewHTTPSource(cfg.SnapshotURL, cfg.RequestTimeout(), l.Named("snapshot"))
		l.Info("reading snapshots over http", zap.String("url", cfg.SnapshotURL))
	}

	if cfg.RedisAddr == "" {
		return src, closers, nil
	}

	client, err := remote.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		closers.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	closers = append(closers, client)
	l.Info("caching snapshots in redis", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL()))
	return remote.NewCachedSource(src, client, cfg.CacheTTL(), l.Named("cache")), closers, nil
}
