package main

import (
	"context"
	"os"

	"github.com/tabulario/datalens/internal/chart"
	"github.com/tabulario/datalens/internal/config"
	"github.com/tabulario/datalens/internal/dataset"
	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/logging"
)

// Direct in-process caller: drives the dispatcher against the data
// directory without any transport, the same way the protocol server
// and dashboard do.
func main() {
	cfg := config.Load()

	logger, closeFn := logging.SetupLogger(cfg.SeqURL)
	defer closeFn()

	logger.Info("Starting direct client...")

	store := dataset.NewStore(cfg.DataDir)
	renderer := chart.NewPNGRenderer(cfg.OutputDir)
	dispatcher := dispatch.New(store, renderer, cfg.OutputDir)

	ctx := context.Background()

	// 1. What datasets do we have?
	listing := dispatcher.Invoke(ctx, "list_datasets", nil)
	if listing.Error != nil {
		logger.Error("failed to list datasets", "kind", listing.Error.Kind, "error", listing.Error.Message)
		closeFn()
		os.Exit(1)
	}
	files := listing.Payload.(*dispatch.DatasetList).Files
	logger.Info("available datasets", "count", len(files), "files", files)

	if len(files) == 0 {
		logger.Warn("no CSV files found", "data_dir", cfg.DataDir)
		return
	}

	// 2. Summarize the first one
	first := files[0]
	summary := dispatcher.Invoke(ctx, "get_stats", map[string]any{"path": first})
	if summary.Error != nil {
		logger.Error("get_stats failed", "kind", summary.Error.Kind, "error", summary.Error.Message)
	} else {
		logger.Info("dataset summary", "dataset", first, "payload", summary.Payload)
	}

	// 3. Column profiles
	info := dispatcher.Invoke(ctx, "get_column_info", map[string]any{"path": first})
	if info.Error != nil {
		logger.Error("get_column_info failed", "kind", info.Error.Kind, "error", info.Error.Message)
	} else {
		logger.Info("column profiles", "dataset", first, "payload", info.Payload)
	}

	logger.Info("Direct client done")
}
