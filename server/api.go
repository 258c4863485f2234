package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ONSdigital/dp-healthcheck/healthcheck"
	"github.com/ONSdigital/log.go/v2/log"
	"github.com/gorilla/mux"
)

// API serves the export endpoints from a registry built at startup.
type API struct {
	registry   map[string]ExportMeta
	chunkLimit int
}

// Setup creates the API and registers its routes on the given router.
func Setup(r *mux.Router, registry map[string]ExportMeta) *API {
	api := &API{
		registry:   registry,
		chunkLimit: defaultChunkLimit,
	}

	r.HandleFunc("/api/export", api.ListExportsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/export/{exportID}", api.GetExportHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/export/{exportID}/{downloadID}", api.GetDownloadHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/export/{exportID}/{downloadID}/data", api.GetDownloadDataHandler).Methods(http.MethodGet)

	return api
}

// Checker reports the registry state for the healthcheck endpoint.
func (api *API) Checker(ctx context.Context, state *healthcheck.CheckState) error {
	if len(api.registry) == 0 {
		return state.Update(healthcheck.StatusCritical, "export registry is empty", 0)
	}
	return state.Update(healthcheck.StatusOK, fmt.Sprintf("serving %d exports", len(api.registry)), 0)
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

// ListExportsHandler is the handler for GET /api/export
func (api *API) ListExportsHandler(w http.ResponseWriter, req *http.Request) {
	ids := make([]string, 0, len(api.registry))
	for id := range api.registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	api.writeData(req.Context(), w, exportListData{ExportIDs: ids})
}

// GetExportHandler is the handler for GET /api/export/{exportID}
func (api *API) GetExportHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	export, ok := api.registry[vars["exportID"]]
	if !ok {
		api.writeError(req.Context(), w, http.StatusNotFound, "export not found")
		return
	}

	api.writeData(req.Context(), w, exportDetailData{
		ID:          export.ID,
		DownloadIDs: export.DownloadIDs,
	})
}

// GetDownloadHandler is the handler for GET /api/export/{exportID}/{downloadID}
func (api *API) GetDownloadHandler(w http.ResponseWriter, req *http.Request) {
	download, ok := api.lookupDownload(req)
	if !ok {
		api.writeError(req.Context(), w, http.StatusNotFound, "download not found")
		return
	}

	api.writeData(req.Context(), w, downloadData{
		ID:         download.ID,
		Rows:       download.Rows,
		EventTypes: download.EventTypes,
		Patients:   download.Patients,
		StartTime:  download.StartTime,
		EndTime:    download.EndTime,
	})
}

// GetDownloadDataHandler is the handler for
// GET /api/export/{exportID}/{downloadID}/data. The CSV body is generated
// and streamed on the fly.
func (api *API) GetDownloadDataHandler(w http.ResponseWriter, req *http.Request) {
	download, ok := api.lookupDownload(req)
	if !ok {
		api.writeError(req.Context(), w, http.StatusNotFound, "download not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv")

	if err := download.WriteCSV(w, api.chunkLimit); err != nil {
		// headers are already gone; all we can do is log and cut the stream
		log.Error(req.Context(), "failed to stream download data", err, log.Data{
			"download_id": download.ID,
		})
	}
}

func (api *API) lookupDownload(req *http.Request) (DownloadMeta, bool) {
	vars := mux.Vars(req)

	export, ok := api.registry[vars["exportID"]]
	if !ok {
		return DownloadMeta{}, false
	}

	download, ok := export.Downloads[vars["downloadID"]]
	return download, ok
}

type dataEnvelope struct {
	Data interface{} `json:"data"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (api *API) writeData(ctx context.Context, w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: data}); err != nil {
		log.Error(ctx, "failed to encode response", err)
	}
}

func (api *API) writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Message: message}); err != nil {
		log.Error(ctx, "failed to encode error response", err)
	}
}
