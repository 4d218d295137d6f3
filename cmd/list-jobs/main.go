package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/jobboard/internal/app"
	"github.com/Lllllllleong/jobboard/internal/config"
	"github.com/Lllllllleong/jobboard/internal/models"
	"github.com/Lllllllleong/jobboard/internal/services"
)

var (
	appInstance *app.App
	once        sync.Once
	initErr     error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	functions.HTTP("HandleListJobs", handleListJobs)
	functions.HTTP("HandleMetrics", handleMetrics)
}

// main is required by the Go Functions Framework.
func main() {}

func initApp() error {
	once.Do(func() {
		var cfg *config.Config
		cfg, initErr = config.Load()
		if initErr != nil {
			return
		}
		appInstance, initErr = app.New(context.Background(), cfg, app.NewLogger(os.Stdout, cfg.LogLevel))
	})
	return initErr
}

func handleListJobs(w http.ResponseWriter, r *http.Request) {
	if err := initApp(); err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	serveListJobs(w, r, appInstance.Jobs)
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if err := initApp(); err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	appInstance.MetricsHandler().ServeHTTP(w, r)
}

type jobLister interface {
	ListAllOrdered(ctx context.Context, order services.Order) ([]*models.Job, error)
}

func serveListJobs(w http.ResponseWriter, r *http.Request, jobs jobLister) {
	req, err := decodeListRequest(r)
	if err != nil {
		slog.Error("Could not decode request", "error", err)
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}

	list, err := jobs.ListAllOrdered(r.Context(), services.ParseOrder(req.Order))
	if err != nil {
		// Already logged by the store.
		http.Error(w, "Internal Server Error: failed to list jobs", http.StatusInternalServerError)
		return
	}
	if req.Limit > 0 && len(list) > req.Limit {
		list = list[:req.Limit]
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(models.ListJobsResponse{Status: "ok", Count: len(list), Jobs: list}); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// decodeListRequest reads an optional JSON body, then lets the order and limit query
// parameters override it.
func decodeListRequest(r *http.Request) (models.ListJobsRequest, error) {
	var req models.ListJobsRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, errors.New("could not parse JSON")
		}
	}
	q := r.URL.Query()
	if v := q.Get("order"); v != "" {
		req.Order = v
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errors.New("limit must be a non-negative integer")
		}
		req.Limit = n
	}
	if req.Limit < 0 {
		return req, errors.New("limit must be a non-negative integer")
	}
	return req, nil
}
