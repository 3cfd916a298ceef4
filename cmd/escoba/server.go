package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/resenapp/escoba/moderation"
	"github.com/resenapp/escoba/moderation/cachestore"
	"github.com/resenapp/escoba/moderation/visual"
	"github.com/resenapp/escoba/objstore"
	"github.com/resenapp/escoba/store"
	"github.com/resenapp/escoba/util/cliutil"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"google.golang.org/api/option"
)

type Server struct {
	logger *slog.Logger
	engine *moderation.Engine
	echo   *echo.Echo
	httpd  *http.Server
}

type Config struct {
	Logger           *slog.Logger
	Bind             string
	DatabaseURL      string
	FirestoreProject string
	CredentialsFile  string
	GCSBucket        string
	RedisURL         string
	VisionAPIKey     string
	VisionEndpoint   string
	VisionRateLimit  int
	OracleFailOpen   bool
}

func NewServer(ctx context.Context, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var reviews store.ReviewStore
	var users store.UserStore
	var notices store.NoticeStore
	var bannedIPs store.BannedIPStore
	if config.FirestoreProject != "" {
		logger.Info("using firestore document backend", "project", config.FirestoreProject)
		var opts []option.ClientOption
		if config.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
		}
		fsc, err := firestore.NewClient(ctx, config.FirestoreProject, opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing firestore client: %w", err)
		}
		reviews = &store.FirestoreReviewStore{Client: fsc}
		users = &store.FirestoreUserStore{Client: fsc}
		notices = &store.FirestoreNoticeStore{Client: fsc}
		bannedIPs = &store.FirestoreBannedIPStore{Client: fsc}
	} else {
		db, err := cliutil.SetupDatabase(config.DatabaseURL, 40)
		if err != nil {
			return nil, err
		}
		if err := store.MigrateGorm(db); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		reviews = &store.GormReviewStore{DB: db}
		users = &store.GormUserStore{DB: db}
		notices = &store.GormNoticeStore{DB: db}
		bannedIPs = &store.GormBannedIPStore{DB: db}
	}

	var cache cachestore.BanCache
	if config.RedisURL != "" {
		csh, err := cachestore.NewRedisBanCache(config.RedisURL, cachestore.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis ban cache: %v", err)
		}
		cache = csh
	} else {
		cache = cachestore.NewMemBanCache(5_000, cachestore.DefaultTTL)
	}

	objects, err := objstore.NewGCSObjectStore(ctx, config.GCSBucket)
	if err != nil {
		return nil, err
	}

	var classifier visual.Classifier
	policy := visual.FailClosed
	if config.OracleFailOpen {
		policy = visual.FailOpen
	}
	if config.VisionAPIKey != "" {
		logger.Info("configuring safe-search image classifier")
		ssc := visual.NewSafeSearchClient(config.VisionAPIKey, config.VisionRateLimit)
		if config.VisionEndpoint != "" {
			ssc.Endpoint = config.VisionEndpoint
		}
		classifier = ssc
	} else if !config.OracleFailOpen {
		// fail-closed with no oracle would reject every upload; refuse to start
		// rather than silently doing either
		return nil, fmt.Errorf("no vision-api-key configured; set one, or set oracle-fail-open explicitly")
	}

	engine := moderation.Engine{
		Logger:       logger,
		Reviews:      reviews,
		Users:        users,
		Notices:      notices,
		BannedIPs:    bannedIPs,
		Objects:      objects,
		Classifier:   classifier,
		OraclePolicy: policy,
		Cache:        cache,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4M"))

	srv := &Server{
		logger: logger,
		engine: &engine,
		echo:   e,
	}
	srv.httpd = &http.Server{
		Handler:        e,
		Addr:           config.Bind,
		WriteTimeout:   60 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 * (1024 * 1024),
	}

	e.GET("/_health", srv.HandleHealthCheck)
	e.POST("/events/storage-finalize", srv.HandleStorageFinalize)
	e.POST("/events/user-update", srv.HandleUserUpdate)

	return srv, nil
}

func (srv *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// RunAPI serves the event ingress endpoints until an OS exit signal.
func (srv *Server) RunAPI() error {
	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	quit := make(chan struct{})
	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSignals
		srv.logger.Info("received OS exit signal", "signal", sig)
		if err := srv.Shutdown(); err != nil {
			srv.logger.Error("HTTP server shutdown error", "err", err)
		}
		close(quit)
	}()
	<-quit
	srv.logger.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.httpd.Shutdown(ctx)
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "escoba"})
}
