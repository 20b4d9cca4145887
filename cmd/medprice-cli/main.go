package main

import (
	"context"
	"medprice-backend/cmd/medprice-cli/commands"
	"medprice-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "medprice-cli")
	commands.ExecuteContext(context.Background())
}
