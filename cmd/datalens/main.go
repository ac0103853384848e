package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tabulario/datalens/internal/chart"
	"github.com/tabulario/datalens/internal/config"
	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/logging"
	"github.com/tabulario/datalens/internal/network"
	"github.com/tabulario/datalens/internal/nlq"
	"github.com/tabulario/datalens/internal/repl"
	"github.com/tabulario/datalens/internal/web"
)

func main() {
	serverMode := flag.Bool("server", false, "Run the TCP protocol server")
	webMode := flag.Bool("web", false, "Run the browser dashboard")
	flag.Parse()

	cfg := config.Load()

	logger, closeFn := logging.SetupLogger(cfg.SeqURL)
	defer closeFn()
	slog.SetDefault(logger)

	fmt.Println("Starting datalens...")

	// Ensure working directories exist
	for _, dir := range []string{cfg.DataDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("failed to create directory", "dir", dir, "error", err)
			closeFn()
			os.Exit(1)
		}
	}

	store := dataset.NewStore(cfg.DataDir)
	renderer := chart.NewPNGRenderer(cfg.OutputDir)
	dispatcher := dispatch.New(store, renderer, cfg.OutputDir)
	dispatcher.AddObserver(dispatch.NewLoggingObserver())

	slog.Info("Application ready",
		"data_dir", cfg.DataDir,
		"output_dir", cfg.OutputDir,
	)

	switch {
	case *serverMode:
		slog.Info("Starting protocol server mode...")
		if err := network.Start(cfg.TCPAddr, dispatcher); err != nil {
			closeFn()
			os.Exit(1)
		}
	case *webMode:
		slog.Info("Starting dashboard mode...")
		server := web.NewServer(cfg.HTTPAddr, dispatcher, store, cfg.OutputDir, cfg.CORSOrigin, cfg.SessionKey)
		if err := server.Run(); err != nil {
			slog.Error("dashboard stopped", "error", err)
			closeFn()
			os.Exit(1)
		}
	default:
		slog.Info("Starting interactive mode...")
		translator := nlq.NewOllama(cfg.OllamaURL, cfg.OllamaModel, dispatcher.Catalog())
		repl.Start(dispatcher, translator)
	}
}
