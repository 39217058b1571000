package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saral/aadhaar-pulse/internal/archive"
	"github.com/saral/aadhaar-pulse/internal/cache"
	"github.com/saral/aadhaar-pulse/internal/datagov"
	"github.com/saral/aadhaar-pulse/internal/ingest"
	"github.com/saral/aadhaar-pulse/internal/insights"
	"github.com/saral/aadhaar-pulse/internal/pkg/httputil"
	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
	"github.com/saral/aadhaar-pulse/internal/repository/postgres"
)

// maxUploadBytes caps CSV uploads at 256 MB.
const maxUploadBytes = 256 << 20

// Store is the slice of the aggregate repository the handlers read from.
type Store interface {
	ListStateAggregates(ctx context.Context) ([]*postgres.StateRow, error)
	GetStateAggregate(ctx context.Context, state string) (*postgres.StateRow, error)
	ListMonthly(ctx context.Context, f postgres.MonthlyFilter) ([]*postgres.MonthlyRow, error)
	GetNationalSummary(ctx context.Context) (*postgres.NationalSummary, error)
}

// Narrator generates written summaries of dashboard charts.
type Narrator interface {
	Narrate(ctx context.Context, chart insights.ChartPayload) (string, error)
}

// Syncer pulls a data.gov.in resource through the ingestion pipeline.
type Syncer interface {
	Sync(ctx context.Context, dataType string) (*ingest.ImportSummary, error)
}

// Handlers holds the dependencies of all HTTP handlers. narrator, syncer,
// archiver and cache may be nil or disabled; the corresponding endpoints
// degrade rather than fail at startup.
type Handlers struct {
	pipeline *ingest.Pipeline
	store    Store
	cache    *cache.Cache
	archiver *archive.Archiver
	narrator Narrator
	syncer   Syncer
}

// NewHandlers wires the handler set.
func NewHandlers(w ingest.Writer, store Store, c *cache.Cache, arch *archive.Archiver, narrator Narrator, syncer Syncer) *Handlers {
	if c == nil {
		c = cache.New(nil, 0)
	}
	return &Handlers{
		pipeline: ingest.NewPipeline(w),
		store:    store,
		cache:    c,
		archiver: arch,
		narrator: narrator,
		syncer:   syncer,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ImportCSV ingests an uploaded CSV for the data type in the path. The body
// is either raw CSV or a multipart form with a "file" field.
func (h *Handlers) ImportCSV(w http.ResponseWriter, r *http.Request) {
	dataType := chi.URLParam(r, "dataType")

	content, err := readUpload(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	h.archiver.Store(r.Context(), dataType, content)

	summary, err := h.pipeline.Run(r.Context(), dataType, content)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedDataType) {
			httputil.BadRequest(w, fmt.Sprintf("unsupported data type %q", dataType))
			return
		}
		httputil.InternalError(w, err)
		return
	}

	h.cache.Invalidate(r.Context())
	httputil.OK(w, summary)
}

func readUpload(r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("reading multipart file: %w", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", fmt.Errorf("reading multipart file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("reading request body: %w", err)
	}
	return string(data), nil
}

// ListStates returns the lifetime enrollment aggregate of every state.
func (h *Handlers) ListStates(w http.ResponseWriter, r *http.Request) {
	var rows []*postgres.StateRow
	if h.cache.Get(r.Context(), "states", &rows) {
		httputil.OK(w, rows)
		return
	}

	rows, err := h.store.ListStateAggregates(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if rows == nil {
		rows = []*postgres.StateRow{}
	}
	h.cache.Set(r.Context(), "states", rows)
	httputil.OK(w, rows)
}

// GetState returns one state's lifetime aggregate.
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")

	row, err := h.store.GetStateAggregate(r.Context(), state)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if row == nil {
		httputil.NotFound(w, fmt.Sprintf("no aggregate for state %q", state))
		return
	}
	httputil.OK(w, row)
}

// ListMonthly returns monthly buckets, optionally filtered by state and year.
func (h *Handlers) ListMonthly(w http.ResponseWriter, r *http.Request) {
	filter := postgres.MonthlyFilter{State: r.URL.Query().Get("state")}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid year %q", y))
			return
		}
		filter.Year = year
	}

	cacheKey := fmt.Sprintf("monthly:%s:%d", filter.State, filter.Year)
	var rows []*postgres.MonthlyRow
	if h.cache.Get(r.Context(), cacheKey, &rows) {
		httputil.OK(w, rows)
		return
	}

	rows, err := h.store.ListMonthly(r.Context(), filter)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if rows == nil {
		rows = []*postgres.MonthlyRow{}
	}
	h.cache.Set(r.Context(), cacheKey, rows)
	httputil.OK(w, rows)
}

// GetSummary returns the national totals.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	var summary *postgres.NationalSummary
	if h.cache.Get(r.Context(), "summary", &summary) {
		httputil.OK(w, summary)
		return
	}

	summary, err := h.store.GetNationalSummary(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	h.cache.Set(r.Context(), "summary", summary)
	httputil.OK(w, summary)
}

// GenerateNarrative turns a chart payload into a written summary.
func (h *Handlers) GenerateNarrative(w http.ResponseWriter, r *http.Request) {
	if h.narrator == nil {
		httputil.Unavailable(w, "narrative generation is not configured")
		return
	}

	var chart insights.ChartPayload
	if !httputil.Decode(w, r, &chart) {
		return
	}

	narrative, err := h.narrator.Narrate(r.Context(), chart)
	if err != nil {
		logger.Error("narrative generation failed", "chart", chart.Title, "error", err.Error())
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"narrative": narrative})
}

// SyncDataGov triggers a pull of the configured data.gov.in resource. The
// data type comes from the "dataType" query parameter and defaults to
// enrollment.
func (h *Handlers) SyncDataGov(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		httputil.Unavailable(w, "data.gov.in sync is not configured")
		return
	}

	dataType := r.URL.Query().Get("dataType")
	if dataType == "" {
		dataType = string(ingest.DataEnrollment)
	}

	summary, err := h.syncer.Sync(r.Context(), dataType)
	if err != nil {
		switch {
		case errors.Is(err, datagov.ErrSyncInProgress):
			httputil.Conflict(w, err.Error())
		case errors.Is(err, ingest.ErrUnsupportedDataType):
			httputil.BadRequest(w, fmt.Sprintf("unsupported data type %q", dataType))
		default:
			httputil.InternalError(w, err)
		}
		return
	}

	h.cache.Invalidate(r.Context())
	httputil.OK(w, summary)
}
