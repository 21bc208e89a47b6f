package main

import (
	"context"
	"time"

	"github.com/tnpportal/portal/config"
	"github.com/tnpportal/portal/metrics"
	"github.com/tnpportal/portal/routes"
	"github.com/tnpportal/portal/services"
	"github.com/tnpportal/portal/store"
	"github.com/tnpportal/portal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.SyncLogger()

	db, err := config.InitDatabase(cfg, store.Models()...)
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}

	rc := utils.NewRedis(cfg)
	cache := utils.NewCache(rc, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	blacklist := utils.NewTokenBlacklist(rc)

	m, metricsHandler, err := metrics.Setup("tnp-portal")
	if err != nil {
		utils.Sugar.Warnf("metrics disabled: %v", err)
	}

	postStore := store.NewPostStore(db)
	userStore := store.NewUserStore(db)
	query := services.NewQueryEngine(postStore, cache)
	posts := services.NewPostService(postStore, query)
	verifier := services.NewTokenVerifier(cfg.JWTSecret, userStore, blacklist)

	r := routes.SetupRouter(routes.Dependencies{
		Config:         cfg,
		Posts:          posts,
		Query:          query,
		Verifier:       verifier,
		Revoker:        verifier,
		Metrics:        m,
		MetricsHandler: metricsHandler,
	})

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DefaultReadTimeout, utils.DefaultWriteTimeout)
	srv.OnShutdown("database", func(context.Context) error { return config.CloseDatabase(db) })
	srv.OnShutdown("redis", func(context.Context) error { return cache.Close() })
	srv.OnShutdown("metrics", m.Shutdown)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
