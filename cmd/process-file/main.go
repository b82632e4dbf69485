package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/etl"
	"github.com/parkingutility/revenue_backend/loader"
	"github.com/parkingutility/revenue_backend/models"
)

// Runs the full pipeline for one uploaded file from the command line:
// optional staging load, then the promote/reject pass (or the settlement
// reconciliation pass for a payments file), under the same per-file lock
// the HTTP trigger uses.
func main() {
	fileId := flag.Int("file-id", 0, "Required: uploaded file id to process")
	load := flag.Bool("load", false, "Parse the file into its staging table before processing")
	flag.Parse()

	if *fileId <= 0 {
		fmt.Fprintln(os.Stderr, "usage: process-file -file-id <id> [-load]")
		os.Exit(2)
	}

	ctx := context.Background()
	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	file, err := models.GetUploadedFile(ctx, *fileId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load uploaded file %d: %v\n", *fileId, err)
		os.Exit(1)
	}

	lock, err := etl.ObtainFileLock(ctx, *fileId)
	if err != nil {
		if errors.Is(err, etl.ErrFileLocked) {
			fmt.Fprintf(os.Stderr, "file %d is already being processed\n", *fileId)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "obtain file lock: %v\n", err)
		os.Exit(1)
	}
	defer etl.ReleaseFileLock(ctx, lock)

	running, err := models.HasRunningEtl(ctx, config.GetDB(), *fileId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check run state: %v\n", err)
		os.Exit(1)
	}
	if running {
		fmt.Fprintf(os.Stderr, "an etl run is already marked running for file %d\n", *fileId)
		os.Exit(1)
	}

	if *load {
		count, err := loader.LoadFile(ctx, logger, *fileId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "staging load: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("loaded %d staging rows for file %d (%s)\n", count, *fileId, file.DataSourceType)
	}

	if file.DataSourceType == models.DataSourcePIPayments {
		result, err := etl.ReconcilePaymentsInsider(ctx, logger, *fileId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconciliation: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("reconciled file %d: %d processed, %d matched, %d unmatched\n",
			*fileId, result.Processed, result.Matched, result.Unmatched)
		return
	}

	adapter, ok := etl.AdapterFor(file.DataSourceType)
	if !ok {
		fmt.Fprintf(os.Stderr, "no adapter for data source type %s\n", file.DataSourceType)
		os.Exit(1)
	}
	result, err := etl.Run(ctx, logger, adapter, *fileId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "etl run: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("processed file %d: %d staging rows, %d promoted, %d rejected\n",
		*fileId, result.Processed, result.Promoted, result.Rejected)
}
