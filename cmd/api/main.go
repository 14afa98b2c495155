package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spacebook/internal/apiclient"
	"spacebook/internal/availability"
	"spacebook/internal/cache"
	"spacebook/internal/config"
	"spacebook/internal/database"
	"spacebook/internal/middleware"
	"spacebook/internal/modules/auth"
	"spacebook/internal/modules/reservations"
	"spacebook/internal/modules/spaces"
	"spacebook/internal/notification"
	jwtsvc "spacebook/internal/pkg/jwt"
	"spacebook/internal/pkg/logger"
	"spacebook/internal/pkg/metrics"
	"spacebook/internal/pkg/response"
	"spacebook/internal/pkg/viewseq"
	"spacebook/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.IsProduction(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.Database.URL, lg)
	if err != nil {
		lg.Fatal("db connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("db migration failed", zap.Error(err))
	}

	m := metrics.New()

	tokens := jwtsvc.New(cfg.Upstream.JWTSecret)
	if !tokens.Verifies() {
		lg.Warn("UPSTREAM_JWT_SECRET not set, token claims are read unverified")
	}
	sessions := session.NewService(
		session.NewRepository(db),
		session.NewSealer(cfg.Session.Secret),
		tokens,
		cfg.Session.TTL,
	)

	api := apiclient.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout,
		apiclient.WithObserver(m),
		apiclient.WithLogger(lg.Named("apiclient")),
	)

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		lg.Warn("redis unavailable, space list cache disabled", zap.Error(err))
	}
	spaceCache := cache.NewSpaceCache(rdb, cfg.Redis.TTL, lg, m)
	defer func() { _ = spaceCache.Close() }()

	hub := notification.NewHub(lg.Named("ws"))
	defer hub.Close()

	views := viewseq.NewTracker()

	authService := auth.NewService(api, sessions, views, lg)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})

	spacesService := spaces.NewService(api, spaceCache, hub, lg)
	spacesHandler := spaces.NewHandler(spacesService)

	reservationsService := reservations.NewService(api, hub, views, m, lg, reservations.Options{
		Slots:    availability.BuildSlots(cfg.Schedule.BusinessStartHour, cfg.Schedule.BusinessEndHour),
		Location: cfg.Schedule.Location,
	})
	reservationsHandler := reservations.NewHandler(reservationsService)

	wsHandler := notification.NewHandler(hub, middleware.AllowedOrigin(cfg.CORS.AllowedOrigins))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(lg),
		middleware.RequestLogger(lg, m),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "online_users": hub.GetOnlineCount()})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	requireSession := middleware.SessionAuth(sessions, cfg.Session.CookieName)
	r.GET("/ws/notifications", requireSession, wsHandler.ServeWS)

	v1 := r.Group(cfg.APIPrefix)
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		// protected
		protected := v1.Group("")
		protected.Use(requireSession)
		{
			authHandler.RegisterProtectedRoutes(protected)
			spacesHandler.RegisterRoutes(protected, middleware.RequireAdmin())
			reservationsHandler.RegisterRoutes(protected)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sessions that expire without a logout leave view state behind.
	go pruneViews(ctx, views, cfg.Session.TTL, lg)

	go func() {
		lg.Info("server starting", zap.String("addr", srv.Addr), zap.String("upstream", cfg.Upstream.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}

func pruneViews(ctx context.Context, views *viewseq.Tracker, idle time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := views.Prune(idle); n > 0 {
				lg.Debug("pruned idle view state", zap.Int("owners", n))
			}
		}
	}
}
