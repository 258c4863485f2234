// Package handler runs the summarise pipeline for one export: discover
// the export's downloads, stream each one through the partition reader on
// a bounded worker pool, and merge the per-partition aggregates into a
// single run-level Aggregate.
package handler

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ONSdigital/log.go/v2/log"

	"github.com/carelog/export-summariser/apiclient"
	"github.com/carelog/export-summariser/config"
	"github.com/carelog/export-summariser/partition"
	"github.com/carelog/export-summariser/summary"
)

// ExportSummary is the handler for one summarise run
type ExportSummary struct {
	cfg    config.Config
	api    ExportAPIClient
	reader PartitionReader
}

// NewExportSummary creates a new ExportSummary handler
func NewExportSummary(cfg config.Config, api ExportAPIClient) *ExportSummary {
	return &ExportSummary{
		cfg:    cfg,
		api:    api,
		reader: partition.NewReader(cfg.ReadChunkSize),
	}
}

// partitionResult is what a worker sends back for one download: either a
// completed aggregate or the error that terminated the partition.
type partitionResult struct {
	download apiclient.Download
	agg      *summary.Aggregate
	err      error
}

// Handle summarises the given export. It returns the merged aggregate for
// all partitions that completed, the list of partitions that failed (the
// run continues without them), and a fatal error only when the downloads
// for the export could not be discovered at all.
func (h *ExportSummary) Handle(ctx context.Context, exportID string) (*summary.Aggregate, []PartitionError, error) {
	logData := log.Data{"export_id": exportID}

	downloads, err := h.api.GetDownloads(ctx, exportID)
	if err != nil {
		return nil, nil, NewError(
			fmt.Errorf("failed to discover downloads: %w", err),
			logData,
		)
	}

	logData["num_downloads"] = len(downloads)
	log.Info(ctx, "downloads discovered", logData)

	// cancelling the run context stops queued and in-flight partitions
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	numWorkers := h.cfg.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan apiclient.Download)
	results := make(chan partitionResult)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				agg, err := h.processPartition(ctx, workerID, d)
				select {
				case results <- partitionResult{download: d, agg: agg, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, d := range downloads {
			select {
			case jobs <- d:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// single-writer merge loop: only this goroutine touches the run-level
	// aggregate, so merges are serialised and completion order is free
	run := summary.New()
	var failed []PartitionError

	for res := range results {
		if res.err != nil {
			pErr := PartitionError{Download: res.download, Err: res.err}
			failed = append(failed, pErr)
			log.Error(ctx, "partition failed, continuing without it", res.err, log.Data{
				"export_id":   exportID,
				"download_id": res.download.ID,
			})
			continue
		}
		run.Merge(res.agg)
	}

	return run, failed, nil
}

// processPartition fetches one download and streams its body into an
// aggregate, bounded by the configured per-download timeout.
func (h *ExportSummary) processPartition(ctx context.Context, workerID int, d apiclient.Download) (*summary.Aggregate, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.DownloadTimeout)
	defer cancel()

	log.Info(ctx, "fetching download", log.Data{
		"worker_id":   workerID,
		"download_id": d.ID,
	})

	body, err := h.api.DownloadData(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch download data: %w", err)
	}
	defer closeDownloadBody(ctx, d, body)

	agg, err := h.reader.Read(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition: %w", err)
	}

	return agg, nil
}

func closeDownloadBody(ctx context.Context, d apiclient.Download, body io.Closer) {
	if err := body.Close(); err != nil {
		log.Error(ctx, "error closing download body", err, log.Data{"download_id": d.ID})
	}
}
