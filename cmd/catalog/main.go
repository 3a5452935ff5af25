package main

import (
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniShop/internal/catalog"
	"MiniShop/pkg/kit"
)

func main() {
	service := "catalog"
	log := kit.NewLogger(service, getenv("LOG_LEVEL", "info"))
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8082")

	var (
		store   catalog.Store
		closers []kit.CloseFunc
	)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := catalog.OpenPostgres(dsn)
		if err != nil {
			log.Fatal("open database failed", zap.Error(err))
		}
		store = catalog.NewPostgresStore(db)
		closers = append(closers, db.Close)
	} else {
		log.Warn("DATABASE_URL not set, serving demo catalog from memory")
		store = catalog.NewMemStore(catalog.SeedProducts()...)
	}

	metricsOn, _ := strconv.ParseBool(getenv("METRICS_ENABLED", "true"))

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: metricsOn,
		MetricsToken:   os.Getenv("METRICS_TOKEN"),
	})

	if err := kit.RunHTTPServer(":"+port, h, log, closers...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
