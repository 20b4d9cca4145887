package main

import (
	"flag"
	"log/slog"
	"medprice-backend/internal/config"
	"medprice-backend/internal/telemetry"
	"medprice-backend/lib/serviceutil"
	"medprice-backend/services/search"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the json5 configuration.")
	port := flag.Int("port", 0, "Port to listen on, overrides the configuration.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}

	service, err := search.NewService(cfg.Stores, search.Options{
		CacheTTL:       cfg.CacheTTL(),
		MaxConcurrency: cfg.MaxConcurrency,
	}, telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("init search", err)
	}

	for _, store := range service.Stores() {
		slog.Info("store enabled", "name", store.Name, "kind", store.Kind)
	}

	err = serviceutil.StartHttpServer(ctx, cfg.Port, search.NewHandler(service, slog.Default()))
	if err != nil {
		serviceutil.Fatal("http server", err)
	}
}
