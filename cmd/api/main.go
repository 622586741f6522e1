package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cliphub.org/internal/activity"
	"cliphub.org/internal/auth"
	"cliphub.org/internal/cache"
	"cliphub.org/internal/config"
	"cliphub.org/internal/httpapi"
	"cliphub.org/internal/obs"
	"cliphub.org/internal/social"
	"cliphub.org/internal/stream"
	"cliphub.org/internal/video"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()

	// Without a DSN everything runs on in-memory stores, which is enough
	// for local development against the frontend.
	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		userStore     auth.UserStore
		videoStore    video.Store
		socialStore   social.Store
		activityStore activity.Store
	)
	if db != nil {
		userStore = auth.NewPGStore(db)
		videoStore = video.NewPGStore(db)
		socialStore = social.NewPGStore(db)
		activityStore = activity.NewPGStore(db)
	} else {
		log.Println("no CLIPHUB_PG_DSN set, using in-memory stores")
		userStore = auth.NewInMemory()
		videoStore = video.NewInMemory()
		socialStore = social.NewInMemory()
		activityStore = activity.NewInMemory()
	}

	tokens, err := auth.NewTokens(cfg.AccessSecret, cfg.RefreshSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token config: %v", err)
	}

	views := cache.NewViews(cfg.RedisAddr)
	defer func() { _ = views.Close() }()

	api := httpapi.New(httpapi.Config{
		Sessions:   auth.NewSessions(userStore, tokens),
		Videos:     video.NewService(videoStore, video.WithViewDeduper(views)),
		Social:     social.NewService(socialStore),
		Activity:   activity.NewRecorder(activityStore),
		Stream:     stream.New(),
		Ready:      httpapi.ReadyProbe{DB: db, Cache: views},
		Version:    version,
		CORSOrigin: cfg.CORSOrigin,
		RefreshTTL: cfg.RefreshTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// No WriteTimeout: /v1/events holds the connection open.
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("Starting cliphub-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	obs.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
