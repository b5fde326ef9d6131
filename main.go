package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	clirunner "github.com/dptools869/dp-tools-server/internal/cli"
	"github.com/dptools869/dp-tools-server/internal/config"
	"github.com/dptools869/dp-tools-server/internal/convertapi"
	"github.com/dptools869/dp-tools-server/internal/pipeline"
	"github.com/dptools869/dp-tools-server/internal/registry"
	"github.com/dptools869/dp-tools-server/internal/server"
	"github.com/dptools869/dp-tools-server/internal/tools/conversion"

	// Import all tool packages to register them
	_ "github.com/dptools869/dp-tools-server/internal/imports"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// parseLogLevel parses the LOG_LEVEL environment variable and returns the
// appropriate logrus level. Defaults to InfoLevel if not set or invalid.
func parseLogLevel() logrus.Level {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		return logrus.InfoLevel
	}

	switch strings.ToLower(strings.TrimSpace(logLevelStr)) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetLevel(parseLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	registry.Init(logger)

	app := &cli.App{
		Name:    "dp-tools-server",
		Usage:   "HTTP API for document and image conversion tools",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Address to listen on",
				EnvVars: []string{"ADDR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server (default)",
				Action: func(c *cli.Context) error {
					return runServe(c.Context, logger, c.String("addr"))
				},
			},
			{
				Name:  "tools",
				Usage: "List registered tools and exit",
				Flags: []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					return newRunner(logger, c.Bool("json")).ListTools()
				},
			},
			{
				Name:      "describe",
				Usage:     "Show a tool's parameters",
				ArgsUsage: "<tool>",
				Flags:     []cli.Flag{jsonFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return fmt.Errorf("usage: describe <tool>")
					}
					return newRunner(logger, c.Bool("json")).HelpTool(c.Args().First())
				},
			},
			{
				Name:      "run",
				Usage:     "Invoke a tool in-process without starting the server",
				ArgsUsage: "<tool> [--param=value ...] ['{json}']",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return fmt.Errorf("usage: run <tool> [arguments]")
					}
					configureConversion(logger, config.FromEnv())
					runner := newRunner(logger, true)
					return runner.RunTool(c.Context, c.Args().First(), c.Args().Tail())
				},
			},
		},
		// Running with no subcommand starts the server
		Action: func(c *cli.Context) error {
			return runServe(c.Context, logger, c.String("addr"))
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "Render output as JSON",
}

func newRunner(logger *logrus.Logger, asJSON bool) *clirunner.Runner {
	format := clirunner.OutputText
	if asJSON {
		format = clirunner.OutputJSON
	}
	return clirunner.NewRunner(logger, format, os.Stdout)
}

// configureConversion wires the conversion tools to the upstream client.
func configureConversion(logger *logrus.Logger, cfg *config.Config) {
	if cfg.Secret == "" {
		logger.Warn("CONVERT_API_SECRET is not set; conversion tools will fail until it is provided")
	}

	client := convertapi.NewClient(cfg.BaseURL, logger,
		convertapi.WithRateLimit(cfg.UpstreamRate, int(cfg.UpstreamRate)),
	)
	conversion.Configure(client, logger, pipeline.Credentials{Secret: cfg.Secret}, cfg.JobTimeout)
}

func runServe(ctx context.Context, logger *logrus.Logger, addrOverride string) error {
	cfg := config.FromEnv()
	if addrOverride != "" {
		cfg.ListenAddr = addrOverride
	}

	configureConversion(logger, cfg)

	logger.WithFields(logrus.Fields{
		"tools": len(registry.GetToolNames()),
		"addr":  cfg.ListenAddr,
	}).Info("Starting dp-tools-server")

	srv := server.New(cfg.ListenAddr, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
