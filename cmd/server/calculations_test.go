package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/otimizavenda/internal/catalog"
	"github.com/Simplici0/otimizavenda/internal/db"
	"github.com/Simplici0/otimizavenda/internal/history"
	"github.com/Simplici0/otimizavenda/internal/metrics"
	"github.com/Simplici0/otimizavenda/internal/migrations"
	"github.com/Simplici0/otimizavenda/internal/seed"
)

func newTestServer(t *testing.T, backend history.Backend) (*server, http.Handler) {
	t.Helper()

	database, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})
	require.NoError(t, migrations.Up(database))
	_, err = seed.Run(database)
	require.NoError(t, err)

	if backend == nil {
		backend = history.NewSQLiteBackend(database)
	}

	srv := &server{
		db:      database,
		history: history.NewStore(backend),
		catalog: catalog.NewRepository(database),
		metrics: metrics.New(),
	}
	return srv, srv.routes([]string{"*"})
}

type calculationBody struct {
	Calculation struct {
		ProductName string          `json:"product_name"`
		TotalCost   decimal.Decimal `json:"total_cost"`
		SalePrice   decimal.Decimal `json:"sale_price"`
		GrossProfit decimal.Decimal `json:"gross_profit"`
		NetProfit   decimal.Decimal `json:"net_profit"`
	} `json:"calculation"`
	Recorded    bool   `json:"recorded"`
	RecordError string `json:"record_error"`
	Record      *struct {
		ID string `json:"id"`
	} `json:"record"`
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/calculations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestCalculateRecordsAndReturnsPrice(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":"Fone Bluetooth","cost_price":50.00,"taxes":5.00,"shipping":10.00,"target_margin_percent":20}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var body calculationBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Recorded)
	require.NotNil(t, body.Record)
	assert.NotEmpty(t, body.Record.ID)
	assert.Equal(t, "65", body.Calculation.TotalCost.String())
	assert.Equal(t, "81.25", body.Calculation.SalePrice.String())
	assert.Equal(t, "31.25", body.Calculation.GrossProfit.String())
	assert.Equal(t, "16.25", body.Calculation.NetProfit.String())
	assert.Contains(t, rr.Body.String(), `"sale_price":81.25`)
}

func TestCalculateDefaultsMissingAdjustments(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":"Caneca","cost_price":"100","taxes":null,"target_margin_percent":50}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assert.Contains(t, rr.Body.String(), `"sale_price":200.00`)
	assert.Contains(t, rr.Body.String(), `"gross_profit":100.00`)
	assert.Contains(t, rr.Body.String(), `"net_profit":100.00`)
}

func TestCalculateAcceptsForm(t *testing.T) {
	_, h := newTestServer(t, nil)

	form := url.Values{}
	form.Set("product_name", "Air Fryer")
	form.Set("cost_price", "200")
	form.Set("target_margin_percent", "20")
	req := httptest.NewRequest(http.MethodPost, "/api/calculations", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"sale_price":250.00`)
}

func TestCalculateRejectsInvalidInputWithoutRecording(t *testing.T) {
	srv, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":" ","cost_price":0,"taxes":-2,"target_margin_percent":100}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var body struct {
		Detail string `json:"detail"`
		Fields map[string]struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "InvalidProduct", body.Fields["product_name"].Kind)
	assert.Equal(t, "InvalidCost", body.Fields["cost_price"].Kind)
	assert.Equal(t, "InvalidAdjustment", body.Fields["taxes"].Kind)
	assert.Equal(t, "InvalidMargin", body.Fields["target_margin_percent"].Kind)
	assert.NotContains(t, body.Fields, "shipping")

	records, err := srv.history.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.CalculationCounter.WithLabelValues(metrics.OutcomeInvalid)))
}

func TestCalculateRejectsNonNumericAmount(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":"x","cost_price":"cinquenta","target_margin_percent":true}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cost_price":{"kind":"InvalidCost","message":"must be numeric"}`)
	assert.Contains(t, rr.Body.String(), `"target_margin_percent":{"kind":"InvalidMargin","message":"must be numeric"}`)
}

func TestCalculateRejectsMalformedJSON(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type brokenBackend struct{}

func (brokenBackend) Insert(context.Context, history.Record) (int64, error) {
	return 0, errors.New("disk full")
}

func (brokenBackend) Recent(context.Context, int) ([]history.Record, error) {
	return nil, errors.New("disk full")
}

func TestCalculateSurfacesPriceWhenRecordingFails(t *testing.T) {
	srv, h := newTestServer(t, brokenBackend{})

	rr := postJSON(t, h, `{"product_name":"Fone Bluetooth","cost_price":50,"taxes":5,"shipping":10,"target_margin_percent":20}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body calculationBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Recorded)
	assert.Nil(t, body.Record)
	assert.NotEmpty(t, body.RecordError)
	assert.Equal(t, "81.25", body.Calculation.SalePrice.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.CalculationCounter.WithLabelValues(metrics.OutcomeNotRecorded)))
}

func TestHistoryListsNewestFirst(t *testing.T) {
	_, h := newTestServer(t, history.NewMemoryBackend())

	for _, name := range []string{"primeiro", "segundo", "terceiro"} {
		rr := postJSON(t, h, `{"product_name":"`+name+`","cost_price":10,"target_margin_percent":10}`)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	var body struct {
		Data []struct {
			ID          string `json:"id"`
			ProductName string `json:"product_name"`
		} `json:"data"`
		Count int `json:"count"`
	}

	rr := getPath(t, h, "/api/calculations")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 3, body.Count)
	assert.Equal(t, "terceiro", body.Data[0].ProductName)
	assert.Equal(t, "segundo", body.Data[1].ProductName)
	assert.Equal(t, "primeiro", body.Data[2].ProductName)

	rr = getPath(t, h, "/api/calculations?limit=2")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "terceiro", body.Data[0].ProductName)
	assert.Contains(t, rr.Body.String(), `"sale_price":11.11`)
}

func TestHistoryRejectsNonIntegerLimit(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := getPath(t, h, "/api/calculations?limit=cinco")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryReportsStorageFailure(t *testing.T) {
	_, h := newTestServer(t, brokenBackend{})

	rr := getPath(t, h, "/api/calculations?limit=5")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
	assert.Contains(t, rr.Body.String(), `"detail":"calculation history is unavailable"`)
}

func TestCalculateHandlesExtremeButValidMargin(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":"x","cost_price":"10","target_margin_percent":"99.99999999999999999"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"sale_price":100000000000000000000.00`)
}

func TestCalculateRejectsOversizedAmount(t *testing.T) {
	_, h := newTestServer(t, nil)

	rr := postJSON(t, h, `{"product_name":"x","cost_price":"1e100000000","taxes":"0.1","target_margin_percent":10}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cost_price":{"kind":"InvalidCost","message":"is out of range"}`)
}
