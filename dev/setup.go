package main

import (
	"fmt"
	"log/slog"
	devenv "medprice-backend/dev/env"
	"os"
	"path/filepath"
)

const configTemplate = `{
	port: 8000,
	// seconds a search result is reused for, 0 disables the cache
	cache_ttl_seconds: 60,
	// 0 queries every store at once
	max_concurrency: 0,
	stores: [
		{name: "Extrafarma", kind: "vtex", domain: "www.extrafarma.com.br"},
		{name: "Pague Menos", kind: "vtex", domain: "www.paguemenos.com.br"},
		{name: "Globo", kind: "vtex", domain: "www.drogariasglobo.com.br"},
		{
			name: "Drogasil",
			kind: "raiadrogasil",
			base_url: "https://api-gateway-prod.raiadrogasil.com.br",
			site_url: "https://www.drogasil.com.br",
			brand: "drogasil",
			api_key: "rd-site",
		},
		// {
		// 	name: "Farmacia Exemplo",
		// 	kind: "html",
		// 	search_url: "https://www.example.com.br/busca?q={query}",
		// 	selectors: {item: "li.product", name: ".name", price: ".price", link: "a", image: "img"},
		// 	cloudflare_bypass: true,
		// 	rate_limit: 1,
		// },
	],
}
`

const telemetryTemplate = `{
	otlp: {
		traces: {grpc_endpoint: "http://localhost:4317"},
		metrics: {grpc_endpoint: "http://localhost:4317"},
		metric_interval: 15,
	},
}
`

func writeTemplate(path, contents string) error {
	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("config already exists at", path)
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	fmt.Println("writing config template to", path)
	return os.WriteFile(path, []byte(contents), 0666)
}

func CreateConfigTemplates() error {
	root, err := devenv.GetWorkspaceRoot()
	if err != nil {
		return err
	}
	err = writeTemplate(filepath.Join(root, "config.json5"), configTemplate)
	if err != nil {
		return err
	}
	return writeTemplate(filepath.Join(root, "telemetry.json5"), telemetryTemplate)
}

func CreateStateDir() error {
	dir, err := devenv.ResolvePath("<dev_state>")
	if err != nil {
		return err
	}
	slog.Info("dev state directory", "path", dir)
	return nil
}

func PrintConfigLocations() {
	slog.Info("edit config.json5 to choose the stores that are searched and telemetry.json5 to point at your otlp collector, `config.local.json5` and `telemetry.local.json5` are merged over them.")
}
