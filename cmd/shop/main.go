package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/internal/config"
	"MiniShop/internal/session"
	"MiniShop/internal/shop"
	"MiniShop/pkg/kit"
)

func main() {
	service := "shop"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	var closers []kit.CloseFunc

	products, closeCatalog, err := openCatalog(cfg, log)
	if err != nil {
		log.Fatal("open catalog failed", zap.Error(err))
	}
	if closeCatalog != nil {
		closers = append(closers, closeCatalog)
	}

	store, closeSessions, err := openSessions(cfg, log)
	if err != nil {
		log.Fatal("open session store failed", zap.Error(err))
	}
	if closeSessions != nil {
		closers = append(closers, closeSessions)
	}

	tokens, err := session.NewTokenMaker(cfg.Session.Secret)
	if err != nil {
		log.Fatal("init session tokens failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()

	s := &shop.Server{
		Catalog:  products,
		Sessions: store,
		CartKey:  cfg.CartSessionKey,
		Log:      log,
		Ops:      shop.NewOpsCounter(reg),
	}

	h := shop.NewHandler(s, shop.HTTPDeps{
		Log:      log,
		Service:  service,
		Registry: reg,
		Sessions: &session.Manager{
			Store:      store,
			Tokens:     tokens,
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.CookieSecure,
			Log:        log,
			Commits:    session.NewCommitCounter(reg),
		},
		MetricsEnabled:  cfg.MetricsEnabled,
		MetricsToken:    cfg.MetricsToken,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, closers...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openCatalog(cfg config.Config, log *zap.Logger) (catalog.Store, kit.CloseFunc, error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := catalog.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("catalog backend", zap.String("backend", "postgres"))
		return catalog.NewPostgresStore(db), db.Close, nil
	case cfg.CatalogURL != "":
		log.Info("catalog backend", zap.String("backend", "http"), zap.String("url", cfg.CatalogURL))
		return catalog.NewClient(cfg.CatalogURL), nil, nil
	default:
		log.Warn("no DATABASE_URL or CATALOG_URL, serving demo catalog from memory")
		return catalog.NewMemStore(catalog.SeedProducts()...), nil, nil
	}
}

func openSessions(cfg config.Config, log *zap.Logger) (session.Store, kit.CloseFunc, error) {
	if cfg.Session.Backend != config.BackendRedis {
		log.Warn("session backend is memory, sessions are lost on restart")
		return session.NewMemStore(), nil, nil
	}

	rs := session.NewRedisStore(session.NewRedisClient(session.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		_ = rs.Close()
		return nil, nil, err
	}

	log.Info("session backend", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
	return rs, rs.Close, nil
}
