package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "escoba",
		Usage:   "review moderation daemon (sweeps the review corpus clean)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "info",
			EnvVars: []string{"ESCOBA_LOG_LEVEL", "LOG_LEVEL"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for event deliveries",
			Value:   ":3999",
			EnvVars: []string{"ESCOBA_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"ESCOBA_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database connection string (sqlite:// or postgres://); ignored when firestore-project is set",
			Value:   "sqlite://data/escoba/escoba.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "firestore-project",
			Usage:   "GCP project of the Firestore database holding the documents; selects Firestore over SQL",
			EnvVars: []string{"ESCOBA_FIRESTORE_PROJECT", "GOOGLE_CLOUD_PROJECT"},
		},
		&cli.StringFlag{
			Name:    "google-credentials",
			Usage:   "path to a service account key file, for Firestore and GCS",
			EnvVars: []string{"GOOGLE_APPLICATION_CREDENTIALS"},
		},
		&cli.StringFlag{
			Name:     "gcs-bucket",
			Usage:    "bucket holding uploaded review images",
			Required: true,
			EnvVars:  []string{"ESCOBA_GCS_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for the user ban-status cache",
			EnvVars: []string{"ESCOBA_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "vision-api-key",
			Usage:   "API key for the safe-search image classifier",
			EnvVars: []string{"ESCOBA_VISION_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "vision-endpoint",
			Usage:   "override the safe-search annotation endpoint",
			EnvVars: []string{"ESCOBA_VISION_ENDPOINT"},
		},
		&cli.IntFlag{
			Name:    "vision-rate-limit",
			Usage:   "max classifier requests per second",
			Value:   8,
			EnvVars: []string{"ESCOBA_VISION_RATE_LIMIT"},
		},
		&cli.BoolFlag{
			Name:    "oracle-fail-open",
			Usage:   "approve images when the classifier fails or is unconfigured (NOT for production)",
			EnvVars: []string{"ESCOBA_ORACLE_FAIL_OPEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := configLogger(cctx, os.Stdout)
		configOTEL("escoba")

		srv, err := NewServer(cctx.Context, Config{
			Logger:           logger,
			Bind:             cctx.String("bind"),
			DatabaseURL:      cctx.String("database-url"),
			FirestoreProject: cctx.String("firestore-project"),
			CredentialsFile:  cctx.String("google-credentials"),
			GCSBucket:        cctx.String("gcs-bucket"),
			RedisURL:         cctx.String("redis-url"),
			VisionAPIKey:     cctx.String("vision-api-key"),
			VisionEndpoint:   cctx.String("vision-endpoint"),
			VisionRateLimit:  cctx.Int("vision-rate-limit"),
			OracleFailOpen:   cctx.Bool("oracle-fail-open"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				os.Exit(-1)
			}
		}()

		return srv.RunAPI()
	},
}

func configLogger(cctx *cli.Context, writer *os.File) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}
