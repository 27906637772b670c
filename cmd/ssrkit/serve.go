package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssrkit/ssrkit"
	"github.com/ssrkit/ssrkit/internal/config"
	"github.com/ssrkit/ssrkit/internal/demo"
	"github.com/ssrkit/ssrkit/internal/errors"
	"github.com/ssrkit/ssrkit/pkg/static"
)

type serveFlags struct {
	mode    string
	config  string
	verbose bool
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		Long: `Start the server in one of three modes.

  browser-dev   dev asset paths, BROWSER_HOST/BROWSER_PORT (default 8080)
  server-dev    dev asset paths and live reload, SERVER_DEV_HOST/SERVER_DEV_PORT (default 8081)
  server-prod   assets from the dist manifests, HOST/PORT (default 4000)

SSL_PORT starts an HTTPS listener next to the plain one.

Examples:
  ssrkit serve
  ssrkit serve --mode server-prod
  ssrkit serve --config deploy/ssrkit.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "Runtime mode (default from ssrkit.yaml, else server-dev)")
	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "Path to the configuration file")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log at debug level")
	return cmd
}

func loadConfig(flags serveFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	if flags.mode != "" {
		mode, err := config.ParseMode(flags.mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// appConfig maps the file configuration onto the App configuration.
func appConfig(cfg *config.Config, logger *slog.Logger) ssrkit.Config {
	out := ssrkit.Config{
		Dev:             cfg.Mode.IsDev(),
		Addr:            cfg.Addr(),
		TLSAddr:         cfg.TLSAddr(),
		ServerURL:       cfg.URL(false),
		Dist:            cfg.DistPath(),
		StaticDir:       cfg.StaticPath(),
		StaticPrefix:    cfg.Static.Prefix,
		Metrics:         cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
		Reload:          cfg.Mode == config.ModeServerDev && cfg.Dev.Reload,
		Watch:           cfg.WatchPaths(),
		WatchIgnore:     cfg.Dev.Ignore,
		WatchDebounce:   cfg.Dev.Debounce,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	}
	if s3 := cfg.Static.S3; s3.Enabled() {
		client := static.NewS3Client(static.S3ClientOptions{
			Region:    s3.Region,
			Endpoint:  s3.Endpoint,
			PathStyle: s3.PathStyle,
		})
		out.Static = static.NewS3Source(client, s3.Bucket, s3.Prefix)
	}
	return out
}

func appSettings(cfg *config.Config) *ssrkit.Settings {
	s := demo.Settings(demo.Options{
		GraphQLURL:      cfg.GraphQL.URL,
		GraphQLEndpoint: cfg.GraphQL.Endpoint,
		GraphiQL:        cfg.GraphiQLEnabled(),
	})
	if cfg.TLS.CertFile != "" {
		s.EnableSSL(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}
	if cfg.TLS.ForceSSL {
		s.ForceSSL(cfg.SSLPort)
	}
	if cfg.TLS.DisableHTTP {
		s.DisableHTTP()
	}
	return s
}

func runServe(ctx context.Context, flags serveFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	app, err := ssrkit.New(demo.Root, appSettings(cfg), appConfig(cfg, logger))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.New("E120").
				WithDetail("Looked in " + cfg.DistPath() + ".").
				WithSuggestion("Build the browser bundle, or run with --mode server-dev").
				Wrap(err)
		}
		return errors.New("E121").Wrap(err)
	}

	printStarted(cfg)
	if cfg.Mode == config.ModeServerProd && cfg.Dev.Reload {
		warn("Live reload is ignored in %s mode", cfg.Mode)
	}

	if err := app.Run(ctx); err != nil {
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.New("E130").
				WithDetail(cfg.Addr() + " is taken.").
				WithSuggestion(fmt.Sprintf("Stop the other process or set %s", cfg.Mode.PortEnv())).
				Wrap(err)
		}
		return errors.New("E131").Wrap(err)
	}
	return nil
}

// printStarted prints the startup box with the local and network URLs.
func printStarted(cfg *config.Config) {
	printBanner()
	lines := []string{
		fmt.Sprintf("Mode:     %s", cfg.Mode),
		fmt.Sprintf("Local:    %s", cfg.URL(cfg.TLS.DisableHTTP)),
	}
	if host := config.NetworkHost(); host != "" {
		lines = append(lines, fmt.Sprintf("Network:  %s", config.ServerURL(host, cfg.Port, cfg.SSLPort, cfg.TLS.DisableHTTP)))
	}
	if cfg.SSLPort > 0 && !cfg.TLS.DisableHTTP {
		lines = append(lines, fmt.Sprintf("HTTPS:    %s", cfg.URL(true)))
	}

	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	border := strings.Repeat("─", width+2)
	fmt.Println("  ┌" + border + "┐")
	for _, l := range lines {
		fmt.Printf("  │ %s%s │\n", l, strings.Repeat(" ", width-len([]rune(l))))
	}
	fmt.Println("  └" + border + "┘")
	fmt.Println()
	success("Serving the demo app")
	info("Press Ctrl+C to stop")
	fmt.Println()
}
