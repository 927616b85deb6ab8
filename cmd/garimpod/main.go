package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"garimpo-backend/lib/configutil"
	"garimpo-backend/lib/keyval"
	"garimpo-backend/lib/scrapers/retail"
	"garimpo-backend/lib/serviceutil"
	"garimpo-backend/lib/sqliteutil"
	"garimpo-backend/services/offers"
	"garimpo-backend/services/offers/db"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8200
	}
	if cfg.Database == "" {
		cfg.Database = "garimpo.db"
	}

	slog.InfoContext(ctx, "opening database...", "path", cfg.Database)
	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}

	cache := keyval.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	engine := retail.NewEngine(retail.NewClient())
	service := offers.NewService(database, engine, cache, cfg.Channels)

	mux := http.NewServeMux()
	Api{offers: service}.Register(mux)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
