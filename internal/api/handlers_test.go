package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saral/aadhaar-pulse/internal/config"
	"github.com/saral/aadhaar-pulse/internal/datagov"
	"github.com/saral/aadhaar-pulse/internal/ingest"
	"github.com/saral/aadhaar-pulse/internal/insights"
	"github.com/saral/aadhaar-pulse/internal/repository/postgres"
)

type fakeWriter struct {
	states  map[string]*ingest.StateAggregate
	monthly map[ingest.MonthKey]*ingest.MonthlyBucket
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		states:  make(map[string]*ingest.StateAggregate),
		monthly: make(map[ingest.MonthKey]*ingest.MonthlyBucket),
	}
}

func (f *fakeWriter) UpsertStateAggregate(_ context.Context, agg *ingest.StateAggregate) error {
	f.states[agg.State] = agg
	return nil
}

func (f *fakeWriter) MergeMonthlyBucket(_ context.Context, b *ingest.MonthlyBucket) error {
	f.monthly[b.Key()] = b
	return nil
}

type fakeStore struct {
	stateRows []*postgres.StateRow
	monthly   []*postgres.MonthlyRow
	summary   *postgres.NationalSummary
	err       error
}

func (f *fakeStore) ListStateAggregates(context.Context) ([]*postgres.StateRow, error) {
	return f.stateRows, f.err
}

func (f *fakeStore) GetStateAggregate(_ context.Context, state string) (*postgres.StateRow, error) {
	for _, row := range f.stateRows {
		if row.State == state {
			return row, nil
		}
	}
	return nil, f.err
}

func (f *fakeStore) ListMonthly(context.Context, postgres.MonthlyFilter) ([]*postgres.MonthlyRow, error) {
	return f.monthly, f.err
}

func (f *fakeStore) GetNationalSummary(context.Context) (*postgres.NationalSummary, error) {
	return f.summary, f.err
}

type fakeNarrator struct {
	narrative string
	err       error
}

func (f *fakeNarrator) Narrate(context.Context, insights.ChartPayload) (string, error) {
	return f.narrative, f.err
}

type fakeSyncer struct {
	summary *ingest.ImportSummary
	err     error
}

func (f *fakeSyncer) Sync(context.Context, string) (*ingest.ImportSummary, error) {
	return f.summary, f.err
}

func testRouter(w ingest.Writer, store Store, narrator Narrator, syncer Syncer) http.Handler {
	return SetupRoutes(config.ServerConfig{}, NewHandlers(w, store, nil, nil, narrator, syncer))
}

func doRequest(t *testing.T, h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestImportCSV(t *testing.T) {
	w := newFakeWriter()
	h := testRouter(w, &fakeStore{}, nil, nil)

	csv := "state,district,date,age_0_5,age_5_17,age_18_greater\n" +
		"Kerala,Kollam,05-03-2024,15,35,100\n"
	rec := doRequest(t, h, http.MethodPost, "/api/import/enrollment", "text/csv", []byte(csv))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary ingest.ImportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.Success)
	assert.Equal(t, "enrollment", summary.DataType)
	assert.Equal(t, 1, summary.TotalRows)

	require.Contains(t, w.states, "Kerala")
	assert.Equal(t, int64(150), w.states["Kerala"].Total)
}

func TestImportCSVMultipart(t *testing.T) {
	w := newFakeWriter()
	h := testRouter(w, &fakeStore{}, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "enrollment.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("state,age_0_5,age_5_17,age_18_greater\nGoa,1,2,3\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := doRequest(t, h, http.MethodPost, "/api/import/enrollment", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, w.states, "Goa")
}

func TestImportCSVUnknownDataType(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, nil)
	rec := doRequest(t, h, http.MethodPost, "/api/import/census", "text/csv", []byte("state\nKerala\n"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported data type")
}

func TestListStates(t *testing.T) {
	store := &fakeStore{stateRows: []*postgres.StateRow{
		{State: "Kerala", Total: 150},
		{State: "Goa", Total: 42},
	}}
	h := testRouter(newFakeWriter(), store, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/states", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []*postgres.StateRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Kerala", rows[0].State)
}

func TestListStatesEmptyIsArray(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/states", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestGetStateNotFound(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/states/Kerala", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMonthlyInvalidYear(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/monthly?year=twenty", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummary(t *testing.T) {
	store := &fakeStore{summary: &postgres.NationalSummary{States: 2, EnrollmentTotal: 192}}
	h := testRouter(newFakeWriter(), store, nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/summary", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary postgres.NationalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(192), summary.EnrollmentTotal)
}

func TestGenerateNarrative(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, &fakeNarrator{narrative: "Kerala leads."}, nil)

	body, _ := json.Marshal(insights.ChartPayload{
		Title:    "Totals",
		Labels:   []string{"Kerala"},
		Datasets: []insights.Dataset{{Label: "Total", Values: []float64{150}}},
	})
	rec := doRequest(t, h, http.MethodPost, "/api/insights/narrative", "application/json", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kerala leads.")
}

func TestGenerateNarrativeUnconfigured(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, nil)
	rec := doRequest(t, h, http.MethodPost, "/api/insights/narrative", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncDataGov(t *testing.T) {
	syncer := &fakeSyncer{summary: &ingest.ImportSummary{Success: true, DataType: "enrollment"}}
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, syncer)

	rec := doRequest(t, h, http.MethodPost, "/api/datagov/sync", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestSyncDataGovConflict(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, &fakeSyncer{err: datagov.ErrSyncInProgress})
	rec := doRequest(t, h, http.MethodPost, "/api/datagov/sync", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSyncDataGovUnsupportedType(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{}, nil, &fakeSyncer{err: ingest.ErrUnsupportedDataType})
	rec := doRequest(t, h, http.MethodPost, "/api/datagov/sync?dataType=census", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListStatesStoreError(t *testing.T) {
	h := testRouter(newFakeWriter(), &fakeStore{err: errors.New("db down")}, nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/states", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
