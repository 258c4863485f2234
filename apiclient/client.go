// Package apiclient is the HTTP client for the export data service. It
// covers the two collaborators the summariser needs: discovery (which
// downloads belong to an export) and fetch (the CSV byte stream for one
// download).
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	dphttp "github.com/ONSdigital/dp-net/v2/http"
	"github.com/ONSdigital/log.go/v2/log"
)

// ErrExportNotFound is returned when the service does not know the
// requested export id. It is fatal to a summarise run.
var ErrExportNotFound = errors.New("export not found")

// Download describes one fetchable CSV partition of an export. Time
// ranges of downloads within the same export are guaranteed disjoint by
// the service, which is what makes order-independent merging safe.
type Download struct {
	ID         string
	ExportID   string
	Rows       int
	EventTypes []string
	Patients   []string
	StartTime  time.Time
	EndTime    time.Time
}

// Client accesses the export API.
type Client struct {
	host       string
	httpClient dphttp.Clienter
}

// New creates a Client for the export API at the given host.
func New(host string, httpClient dphttp.Clienter) *Client {
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

// all API responses are wrapped in a `data` envelope
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type exportListData struct {
	ExportIDs []string `json:"export_ids"`
}

type exportDetailData struct {
	ID          string   `json:"id"`
	DownloadIDs []string `json:"download_ids"`
}

type downloadData struct {
	ID         string    `json:"id"`
	Rows       int       `json:"rows"`
	EventTypes []string  `json:"event_types"`
	Patients   []string  `json:"patients"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// ListExports returns the ids of all exports the service offers.
func (c *Client) ListExports(ctx context.Context) ([]string, error) {
	var data exportListData
	if err := c.getData(ctx, c.url("export"), &data); err != nil {
		return nil, err
	}
	return data.ExportIDs, nil
}

// GetDownloads returns the descriptors for every download belonging to
// the given export, in the order the service lists them. An unknown
// export id fails with ErrExportNotFound.
func (c *Client) GetDownloads(ctx context.Context, exportID string) ([]Download, error) {
	var detail exportDetailData
	if err := c.getData(ctx, c.url("export/%s", exportID), &detail); err != nil {
		return nil, err
	}

	downloads := make([]Download, 0, len(detail.DownloadIDs))
	for _, downloadID := range detail.DownloadIDs {
		var d downloadData
		if err := c.getData(ctx, c.url("export/%s/%s", exportID, downloadID), &d); err != nil {
			return nil, fmt.Errorf("failed to get download metadata: %w", err)
		}
		downloads = append(downloads, Download{
			ID:         d.ID,
			ExportID:   exportID,
			Rows:       d.Rows,
			EventTypes: d.EventTypes,
			Patients:   d.Patients,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
		})
	}

	return downloads, nil
}

// DownloadData opens the CSV byte stream for the given download. The
// caller owns the returned body and must close it.
func (c *Client) DownloadData(ctx context.Context, d Download) (io.ReadCloser, error) {
	resp, err := c.httpClient.Get(ctx, c.url("export/%s/%s/data", d.ExportID, d.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to get download data: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeResponseBody(ctx, resp.Body)
		return nil, c.statusError(resp.StatusCode, log.Data{
			"export_id":   d.ExportID,
			"download_id": d.ID,
		})
	}

	return resp.Body, nil
}

// getData performs a GET and decodes the `data` field of the response
// envelope into out.
func (c *Client) getData(ctx context.Context, url string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to get %q: %w", url, err)
	}
	defer closeResponseBody(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp.StatusCode, log.Data{"url": url})
	}

	var e envelope
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return &Error{
			err:     fmt.Errorf("failed to decode response envelope: %w", err),
			logData: log.Data{"url": url},
		}
	}
	if e.Data == nil {
		return &Error{
			err:     errors.New("no data field in response"),
			logData: log.Data{"url": url},
		}
	}

	if err := json.Unmarshal(e.Data, out); err != nil {
		return &Error{
			err:     fmt.Errorf("failed to decode response data: %w", err),
			logData: log.Data{"url": url},
		}
	}

	return nil
}

func (c *Client) statusError(statusCode int, logData log.Data) error {
	if statusCode == http.StatusNotFound {
		return &Error{
			err:        ErrExportNotFound,
			statusCode: statusCode,
			logData:    logData,
		}
	}
	return &Error{
		err:        fmt.Errorf("unexpected status code %d", statusCode),
		statusCode: statusCode,
		logData:    logData,
	}
}

func (c *Client) url(format string, args ...interface{}) string {
	return c.host + "/api/" + fmt.Sprintf(format, args...)
}

func closeResponseBody(ctx context.Context, body io.Closer) {
	if err := body.Close(); err != nil {
		log.Error(ctx, "error closing response body", err)
	}
}
