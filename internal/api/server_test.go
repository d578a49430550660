package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/cache"
	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/schedule"
	"github.com/Veraticus/the-ledger-must-balance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *testutil.TestDB) {
	t.Helper()

	db := testutil.SetupTestDB(t, testutil.BasicFixture())
	svc, err := ledger.New(ledger.Deps{
		Storage: db.Storage,
		Clock:   schedule.FixedClock(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)),
		Totals:  cache.NewInvoiceTotals(time.Minute),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(svc).Routes())
	t.Cleanup(srv.Close)
	return srv, db
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

const rentBody = `{
	"id": "rent",
	"description": "Rent",
	"amount": "1500.00",
	"type": "expense",
	"frequency": "monthly",
	"start_date": "2024-01-15",
	"funding": {"kind": "account", "id": "checking"}
}`

func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_RecurrenceLifecycle(t *testing.T) {
	srv, db := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/recurrences", rentBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(4), body["created"])
	assert.Equal(t, "2024-05-15", body["next_occurrence"])

	resp, body = do(t, http.MethodPost, srv.URL+"/recurrences/rent/process?horizon=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["created"])

	occs := db.MustOccurrences(model.SeriesRecurrence, "rent")
	require.Len(t, occs, 6)

	// Confirmed history cannot be rewritten forward.
	resp, _ = do(t, http.MethodPatch, srv.URL+"/occurrences/"+occs[0].ID+"?scope=this_and_future", `{"amount": "1600"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPatch, srv.URL+"/occurrences/"+occs[2].ID+"?scope=this_and_future", `{"amount": "1600"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, srv.URL+"/occurrences/"+occs[4].ID+"?scope=this_and_future", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	occs = db.MustOccurrences(model.SeriesRecurrence, "rent")
	require.Len(t, occs, 4)
	assert.Equal(t, "1500.00", occs[1].Amount.StringFixed(2))
	assert.Equal(t, "1600.00", occs[3].Amount.StringFixed(2))

	resp, _ = do(t, http.MethodPost, srv.URL+"/occurrences/"+occs[1].ID+"/confirm", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_InstallmentsAndInvoice(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/installments", `{
		"description": "Laptop",
		"amount": "100.00",
		"amount_mode": "total",
		"frequency": "monthly",
		"first_date": "2024-03-06",
		"total_installments": 3,
		"funding": {"kind": "credit_card", "id": "visa"}
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	occs, ok := body["occurrences"].([]any)
	require.True(t, ok)
	assert.Len(t, occs, 3)

	resp, body = do(t, http.MethodGet, srv.URL+"/cards/visa/invoices/2024-06", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "33.34", body["total"])
	assert.Equal(t, "open", body["status"])
	assert.Equal(t, "2024-05-06", body["period_start"])
	assert.Equal(t, "2024-06-05", body["period_end"])

	invoiceID, _ := body["id"].(string)
	resp, _ = do(t, http.MethodPost, srv.URL+"/invoices/"+invoiceID+"/pay", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{
			name:   "malformed body",
			method: http.MethodPost,
			path:   "/transactions",
			body:   `{"amount": `,
			want:   http.StatusBadRequest,
		},
		{
			name:   "bad date",
			method: http.MethodPost,
			path:   "/transactions",
			body:   `{"description": "x", "amount": "1", "type": "expense", "date": "01/02/2024", "funding": {"kind": "account", "id": "a"}}`,
			want:   http.StatusBadRequest,
		},
		{
			name:   "unknown scope",
			method: http.MethodDelete,
			path:   "/occurrences/abc?scope=everything",
			want:   http.StatusBadRequest,
		},
		{
			name:   "missing occurrence",
			method: http.MethodDelete,
			path:   "/occurrences/abc",
			want:   http.StatusNotFound,
		},
		{
			name:   "bad month",
			method: http.MethodGet,
			path:   "/cards/visa/invoices/June",
			want:   http.StatusBadRequest,
		},
		{
			name:   "missing invoice",
			method: http.MethodGet,
			path:   "/cards/visa/invoices/2030-01",
			want:   http.StatusNotFound,
		},
		{
			name:   "bad horizon",
			method: http.MethodPost,
			path:   "/recurrences/rent/process?horizon=soon",
			want:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(common.InvalidInput("x")))
	assert.Equal(t, http.StatusConflict, statusFor(common.ConsistencyViolation("x")))
	assert.Equal(t, http.StatusNotFound, statusFor(common.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(common.ErrStoreFailure))
}

func TestRequestLogger_RecordsDuration(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	require.NoError(t, common.SetupLogger(&buf, "debug", "json"))

	h := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/healthz", entry["path"])
	assert.InDelta(t, http.StatusTeapot, entry["status"], 0)
	assert.Contains(t, entry, "duration")
}
