package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzaruba/fvemon"
)

func main() {
	// start mock endpoint (see mock_server.go)
	go StartMockFVEServer(":9999", "demo-client", "demo-token")
	time.Sleep(100 * time.Millisecond)

	creds, err := fvemon.NewCredentials("http://localhost:9999/data", "demo-client", "demo-token")
	if err != nil {
		slog.Error("failed to create credentials", "error", err)
		os.Exit(1)
	}

	// print the PV power on every cycle
	pvWatcher := fvemon.MetricFunc(fvemon.PVPowerW, func(v fvemon.Value, ok, healthy bool) {
		if !healthy {
			fmt.Println("pv power: stale (cycle degraded)")
			return
		}
		fmt.Printf("pv power: %.0f W\n", v.Num)
	})

	// alert on degraded cycles
	health := fvemon.SubscriberFunc(func(_ *fvemon.Snapshot, healthy bool, f *fvemon.FailureRecord) {
		if !healthy {
			fmt.Printf("ALERT: cycle failed (%s): %s\n", f.Kind, f.Message)
		}
	})

	m, err := fvemon.New(
		fvemon.WithCredentials(creds),
		fvemon.WithPollInterval(5*time.Second),
		fvemon.WithSubscriber(pvWatcher),
		fvemon.WithSubscriber(health),
		fvemon.WithStatusAddr(":8080"), // curl localhost:8080/api/status
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		slog.Error("monitor error", "error", err)
		os.Exit(1)
	}
}
