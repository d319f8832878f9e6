package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/espfs/webnav/internal/app"
	"github.com/espfs/webnav/internal/config"
	"github.com/espfs/webnav/pkg/assets"
	"github.com/espfs/webnav/pkg/middleware"
	"github.com/espfs/webnav/pkg/server"
)

type serveFlags struct {
	base      string
	addr      string
	static    string
	bucket    string
	prefix    string
	region    string
	endpoint  string
	logLevel  string
	noMetrics bool
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the application",
		Long: `Serve the application in history mode.

Files that exist in the asset source are served as-is. Every other
path under the base is answered with the index document: 200 when it
matches a route, 404 when it does not. Browsers connect to the
history bridge at {base}/_nav.

Assets come from a directory (--static) or an S3 bucket (--s3-bucket).

Examples:
  webnav serve
  webnav serve --base=/app --static=dist
  BASE_URL=/app webnav serve --addr=:9000
  webnav serve --s3-bucket=my-site --s3-region=eu-central-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.base, "base", "", "Base path the app is deployed under (overrides "+config.EnvBase+")")
	f.StringVarP(&flags.addr, "addr", "a", "", "Listen address (overrides "+config.EnvAddress+")")
	f.StringVar(&flags.static, "static", "", "Asset directory")
	f.StringVar(&flags.bucket, "s3-bucket", "", "Serve assets from this S3 bucket")
	f.StringVar(&flags.prefix, "s3-prefix", "", "Key prefix inside the bucket")
	f.StringVar(&flags.region, "s3-region", "", "Bucket region")
	f.StringVar(&flags.endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.BoolVar(&flags.noMetrics, "no-metrics", false, "Disable the metrics endpoint")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("base") {
		cfg.Base = f.base
	}
	if set("addr") {
		cfg.Address = f.addr
	}
	if set("static") {
		cfg.Static.Dir = f.static
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.noMetrics {
		cfg.Metrics.Disabled = true
	}
	if set("s3-bucket") {
		if cfg.S3 == nil {
			cfg.S3 = &config.S3Config{}
		}
		cfg.S3.Bucket = f.bucket
	}
	if cfg.S3 != nil {
		if set("s3-prefix") {
			cfg.S3.Prefix = f.prefix
		}
		if set("s3-region") {
			cfg.S3.Region = f.region
		}
		if set("s3-endpoint") {
			cfg.S3.Endpoint = f.endpoint
			cfg.S3.UsePathStyle = true
		}
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	fsys, err := openAssets(ctx, cfg)
	if err != nil {
		return err
	}
	manifest, err := assets.LoadManifest(fsys, cfg.Static.Manifest)
	if err != nil {
		logger.Warn("manifest not loaded, fingerprinted caching disabled", "error", err)
		manifest = assets.NewManifest()
	}

	socket, err := cfg.SocketConfig()
	if err != nil {
		return err
	}
	serverConfig := server.DefaultConfig()
	serverConfig.Address = cfg.Address
	serverConfig.Base = cfg.Base
	serverConfig.Index = cfg.Static.Index
	serverConfig.Socket = socket
	serverConfig.MetricsPath = cfg.Metrics.Path
	if cfg.Metrics.Disabled {
		serverConfig.MetricsPath = ""
	}

	srv, err := server.New(serverConfig, app.Registry(cfg.Routes), fsys,
		server.WithLogger(logger.With("component", "server")),
		server.WithManifest(manifest),
		server.WithRouterMiddleware(middleware.OpenTelemetry()),
	)
	if err != nil {
		return err
	}

	if cfg.Path() != "" {
		logger.Info("configuration loaded", "file", cfg.Path())
	}
	return srv.Run(ctx)
}

func openAssets(ctx context.Context, cfg *config.Config) (fs.FS, error) {
	if cfg.S3 == nil {
		return assets.Dir(cfg.StaticPath())
	}
	client := assets.NewS3Client(assets.S3Options{
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
	})
	s3fs, err := assets.NewS3FS(client, cfg.S3.Bucket, cfg.S3.Prefix)
	if err != nil {
		return nil, err
	}
	return s3fs.WithContext(ctx), nil
}
