package main

import (
	"causawatch-backend/cmd/causawatch/commands"
	"causawatch-backend/lib/serviceutil"
	"causawatch-backend/lib/telemetry"
	"context"
)

func main() {
	ctx := context.Background()
	telemetry.InitSlog(false)
	t, err := telemetry.SetupFromEnv(ctx, "causawatch")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(serviceutil.SignalContext())
}
