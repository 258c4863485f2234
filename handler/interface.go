package handler

import (
	"context"
	"io"

	"github.com/carelog/export-summariser/apiclient"
	"github.com/carelog/export-summariser/summary"
)

//go:generate moq -out mock/export-api-client.go -pkg mock . ExportAPIClient

// ExportAPIClient contains the required methods for the export API client
type ExportAPIClient interface {
	GetDownloads(ctx context.Context, exportID string) ([]apiclient.Download, error)
	DownloadData(ctx context.Context, d apiclient.Download) (io.ReadCloser, error)
}

// PartitionReader streams one download body into an Aggregate
type PartitionReader interface {
	Read(ctx context.Context, body io.Reader) (*summary.Aggregate, error)
}

type dataLogger interface {
	LogData() map[string]interface{}
}
