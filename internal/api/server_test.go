package api_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/settleup/internal/api"
	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/application/telemetry"
	"github.com/eshaffer321/settleup/internal/domain/settlement"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	return newTestServerWith(t, api.DefaultConfig())
}

func newTestServerWith(t *testing.T, cfg api.Config, storeOpts ...worksheet.StoreOption) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	engine := settlement.NewEngine(
		settlement.WithLogger(logger),
		settlement.WithRecorder(telemetry.NewRecorder(repo)),
	)
	server := api.NewServer(cfg, engine, worksheet.NewStore(engine, storeOpts...), repo, logger)
	return server, repo
}

func do(t *testing.T, server *api.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

const threePeople = `{"participants":[
	{"name":"A","amount":"300"},
	{"name":"B","amount":100},
	{"name":"C","amount":""}
]}`

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	response := decode[dto.HealthResponse](t, rec)
	assert.Equal(t, "ok", response.Status)
	assert.NotEmpty(t, response.Timestamp)
}

func TestServer_SettlementsEndpoint(t *testing.T) {
	t.Run("computes transfers", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements", threePeople)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.SettlementResponse](t, rec)
		assert.Equal(t, 400.0, response.Total)
		assert.Equal(t, 133.33, response.Average)
		assert.Equal(t, 3, response.Participants)
		require.Len(t, response.Transactions, 2)
		assert.Equal(t, "C", response.Transactions[0].From)
		assert.Equal(t, "A", response.Transactions[0].To)
		assert.Equal(t, 133.33, response.Transactions[0].Amount)
		assert.Equal(t, "B", response.Transactions[1].From)
		assert.Equal(t, 33.33, response.Transactions[1].Amount)
		assert.Empty(t, response.Report)
	})

	t.Run("adds share text", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements?format=text", threePeople)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.SettlementResponse](t, rec)
		assert.Contains(t, response.Report, "C owes A $133.33")
		assert.Contains(t, response.Report, "B owes A $33.33")
	})

	t.Run("whatsapp share text", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements?format=whatsapp", threePeople)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.SettlementResponse](t, rec)
		assert.Contains(t, response.Report, "*Expense summary*")
	})

	t.Run("unknown format", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements?format=pdf", threePeople)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("one participant is rejected", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements", `{"participants":[{"name":"Solo","amount":"10"}]}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodeInsufficientParticipants, decode[dto.APIError](t, rec).Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements", `{"participants":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
	})

	t.Run("all square", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/settlements?format=text",
			`{"participants":[{"name":"A","amount":"50"},{"name":"B","amount":"50"}]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.SettlementResponse](t, rec)
		assert.Empty(t, response.Transactions)
		assert.Contains(t, response.Report, "Everyone is square")
	})
}

func TestServer_SheetsEndpoints(t *testing.T) {
	t.Run("summary is invalidated by edits", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/sheets", `{"rows":[{"name":"A","amount":"30"},{"name":"B","amount":"10"}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		sheet := decode[dto.SheetResponse](t, rec)
		require.Len(t, sheet.Rows, 2)
		assert.True(t, sheet.Stale)
		base := "/api/sheets/" + sheet.ID

		rec = do(t, server, http.MethodGet, base+"/summary", "")
		assert.Equal(t, http.StatusConflict, rec.Code, "nothing calculated yet")

		rec = do(t, server, http.MethodPost, base+"/calculate", "")
		require.Equal(t, http.StatusOK, rec.Code)
		summary := decode[dto.SettlementResponse](t, rec)
		require.Len(t, summary.Transactions, 1)
		assert.Equal(t, 10.0, summary.Transactions[0].Amount)

		rec = do(t, server, http.MethodGet, base+"/summary?format=text", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, decode[dto.SettlementResponse](t, rec).Report, "B owes A $10.00")

		rec = do(t, server, http.MethodPut, base+"/rows/"+sheet.Rows[1].ID, `{"amount":"30"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, server, http.MethodGet, base+"/summary", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, dto.ErrCodeStaleSummary, decode[dto.APIError](t, rec).Code)

		rec = do(t, server, http.MethodPost, base+"/calculate", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[dto.SettlementResponse](t, rec).Transactions)
	})

	t.Run("add and remove rows", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodPost, "/api/sheets", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		sheet := decode[dto.SheetResponse](t, rec)
		base := "/api/sheets/" + sheet.ID

		rec = do(t, server, http.MethodPost, base+"/rows", `{"name":"A","amount":12}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		row := decode[worksheet.Row](t, rec)
		assert.NotEmpty(t, row.ID)

		rec = do(t, server, http.MethodPost, base+"/calculate", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = do(t, server, http.MethodDelete, base+"/rows/"+row.ID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, server, http.MethodDelete, base+"/rows/"+row.ID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, server, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[dto.SheetResponse](t, rec).Rows)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		server, _ := newTestServer(t)

		rec := do(t, server, http.MethodGet, "/api/sheets/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)
	})

	t.Run("delete sheet", func(t *testing.T) {
		server, _ := newTestServer(t)

		sheet := decode[dto.SheetResponse](t, do(t, server, http.MethodPost, "/api/sheets", ""))

		assert.Equal(t, http.StatusNoContent, do(t, server, http.MethodDelete, "/api/sheets/"+sheet.ID, "").Code)
		assert.Equal(t, http.StatusNotFound, do(t, server, http.MethodGet, "/api/sheets/"+sheet.ID, "").Code)
	})
}

func TestServer_VisitsEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/api/visits/settle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decode[dto.VisitResponse](t, rec).Count)

	do(t, server, http.MethodPost, "/api/visits/settle", "")
	rec = do(t, server, http.MethodPost, "/api/visits/settle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.VisitResponse{Key: "settle", Count: 2}, decode[dto.VisitResponse](t, rec))

	rec = do(t, server, http.MethodPost, "/api/visits/"+strings.Repeat("x", 65), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StatsEndpoint(t *testing.T) {
	t.Run("counts runs", func(t *testing.T) {
		server, _ := newTestServer(t)

		do(t, server, http.MethodPost, "/api/settlements", threePeople)
		do(t, server, http.MethodPost, "/api/settlements", `{"participants":[]}`)

		rec := do(t, server, http.MethodGet, "/api/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode[dto.StatsResponse](t, rec)
		assert.Equal(t, 2, stats.TotalRuns)
		assert.Equal(t, 1, stats.OutcomeCounts[settlement.OutcomeSettled])
		assert.Equal(t, 1, stats.OutcomeCounts[settlement.OutcomeInsufficientParticipants])
		assert.Len(t, stats.RecentRuns, 2)
	})

	t.Run("storage failure", func(t *testing.T) {
		server, repo := newTestServer(t)
		repo.GetRunStatsErr = assert.AnError

		rec := do(t, server, http.MethodGet, "/api/stats", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, dto.ErrCodeInternalError, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_UnknownRoute(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_TotalOutOfRange(t *testing.T) {
	server, repo := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/settlements",
		`{"participants":[{"name":"A","amount":"10000000000000"},{"name":"B","amount":"10000000000000"},{"name":"C","amount":0}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	require.NotNil(t, repo.LastSavedRun)
	assert.Equal(t, settlement.OutcomeInvalidAmount, repo.LastSavedRun.Outcome)
}

func TestServer_HugeExponentIsCheap(t *testing.T) {
	server, _ := newTestServer(t)

	start := time.Now()
	rec := do(t, server, http.MethodPost, "/api/settlements",
		`{"participants":[{"name":"A","amount":"1e8000000"},{"name":"B","amount":"1e-8000000"},{"name":"C","amount":"30"}]}`)

	assert.Less(t, time.Since(start), time.Second)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, rec.Body.Len(), 4096)
	response := decode[dto.SettlementResponse](t, rec)
	assert.Equal(t, 30.0, response.Total)
	assert.Equal(t, 3, response.Participants)
	assert.Len(t, response.Transactions, 2)
}

func TestServer_Limits(t *testing.T) {
	t.Run("rows per sheet", func(t *testing.T) {
		server, _ := newTestServerWith(t, api.DefaultConfig(), worksheet.WithMaxRows(2))

		rec := do(t, server, http.MethodPost, "/api/sheets",
			`{"rows":[{"name":"A","amount":"1"},{"name":"B","amount":"2"},{"name":"C","amount":"3"}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = do(t, server, http.MethodPost, "/api/sheets", `{"rows":[{"name":"A","amount":"1"},{"name":"B","amount":"2"}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		sheet := decode[dto.SheetResponse](t, rec)

		rec = do(t, server, http.MethodPost, "/api/sheets/"+sheet.ID+"/rows", `{"name":"C","amount":"3"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodeLimitExceeded, decode[dto.APIError](t, rec).Code)
	})

	t.Run("open sheets", func(t *testing.T) {
		server, _ := newTestServerWith(t, api.DefaultConfig(), worksheet.WithMaxSheets(1))

		rec := do(t, server, http.MethodPost, "/api/sheets", "")
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(t, server, http.MethodPost, "/api/sheets", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, dto.ErrCodeLimitExceeded, decode[dto.APIError](t, rec).Code)
	})

	t.Run("request body", func(t *testing.T) {
		cfg := api.DefaultConfig()
		cfg.MaxBodyBytes = 128
		server, _ := newTestServerWith(t, cfg)

		body := `{"participants":[{"name":"` + strings.Repeat("x", 256) + `","amount":"1"}]}`
		rec := do(t, server, http.MethodPost, "/api/settlements", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	cfg := api.DefaultConfig()
	cfg.Port = 0
	server, _ := newTestServerWith(t, cfg)

	require.NoError(t, server.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- server.Start() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}
