package main

import (
	"context"
	"errors"
	"os"

	dphttp "github.com/ONSdigital/dp-net/v2/http"
	"github.com/ONSdigital/log.go/v2/log"
	"github.com/spf13/cobra"

	"github.com/carelog/export-summariser/apiclient"
	"github.com/carelog/export-summariser/config"
	"github.com/carelog/export-summariser/handler"
)

const serviceName = "export-summariser"

func main() {
	log.Namespace = serviceName

	// stdout carries only the JSON report; diagnostics go to stderr
	log.SetDestination(os.Stderr, os.Stderr)

	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		apiURL  string
		outfile string
		workers int
	)

	cmd := &cobra.Command{
		Use:           "summarise [flags] EXPORT_ID",
		Short:         "Fetch an export's CSV downloads and summarise patient event counts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], apiURL, outfile, workers)
		},
	}

	cmd.Flags().StringVarP(&apiURL, "url", "u", "", "base URL of the export API (overrides EXPORT_API_URL)")
	cmd.Flags().StringVarP(&outfile, "outfile", "o", "", "write the JSON report to this file instead of stdout")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent downloads (overrides NUM_WORKERS)")

	return cmd
}

func run(ctx context.Context, exportID, apiURL, outfile string, workers int) error {
	cfg, err := config.Get()
	if err != nil {
		log.Error(ctx, "error getting config", err)
		return err
	}

	if apiURL != "" {
		cfg.ExportAPIURL = apiURL
	}
	if workers > 0 {
		cfg.NumWorkers = workers
	}
	if outfile != "" {
		cfg.OutputFilePath = outfile
	}

	api := apiclient.New(cfg.ExportAPIURL, dphttp.NewClient())
	summariser := handler.NewExportSummary(*cfg, api)

	agg, failed, err := summariser.Handle(ctx, exportID)
	if err != nil {
		logData := log.Data(handler.UnwrapLogData(err))
		if errors.Is(err, apiclient.ErrExportNotFound) {
			log.Error(ctx, "export not found", err, logData)
		} else {
			log.Error(ctx, "failed to summarise export", err, logData)
		}
		return err
	}

	// partial failures are reported but never mixed into the JSON payload
	if len(failed) > 0 {
		ids := make([]string, 0, len(failed))
		for _, f := range failed {
			ids = append(ids, f.Download.ID)
		}
		log.Warn(ctx, "partitions failed and are excluded from the report", log.Data{
			"failed_partitions": ids,
		})
	}
	if agg.SkippedRows > 0 {
		log.Warn(ctx, "malformed rows skipped", log.Data{"skipped_rows": agg.SkippedRows})
	}

	b, err := agg.Report().MarshalIndented()
	if err != nil {
		log.Error(ctx, "failed to marshal report", err)
		return err
	}

	if cfg.OutputFilePath != "" {
		if err := os.WriteFile(cfg.OutputFilePath, b, 0644); err != nil {
			log.Error(ctx, "failed to write report file", err, log.Data{"path": cfg.OutputFilePath})
			return err
		}
		log.Info(ctx, "report written", log.Data{"path": cfg.OutputFilePath})
		return nil
	}

	if _, err := os.Stdout.Write(b); err != nil {
		log.Error(ctx, "failed to write report to stdout", err)
		return err
	}
	return nil
}
