package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/nettable/internal/config"
	"github.com/nfrund/nettable/internal/logging"
	"github.com/nfrund/nettable/internal/server"
	"github.com/nfrund/nettable/internal/table"
	"github.com/nfrund/nettable/internal/transport"
)

func main() {
	logging.New()

	cfg, err := config.New()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	inst := table.New()
	defer inst.Close()

	bridge := transport.NewBridge(inst)
	if err := bridge.Start(context.Background()); err != nil {
		slog.Error("failed to start change bridge", "error", err)
		os.Exit(1)
	}
	defer bridge.Close()

	slog.Info("starting nettable server",
		"instance", cfg.InstanceName, "addr", cfg.ListenAddr, "id", inst.ID())

	s := server.New(cfg, inst)
	s.Start()
}
