package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
		require.Equal(t, http.StatusTeapot, rr.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues(http.MethodGet, "/api/items/{id}", "418")))
}

func TestCalculationCountersAreExposed(t *testing.T) {
	m := New()
	m.Calculation(OutcomeRecorded)
	m.Calculation(OutcomeRecorded)
	m.Calculation(OutcomeInvalid)
	m.HistoryFailure("append")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CalculationCounter.WithLabelValues(OutcomeRecorded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryFailureCounter.WithLabelValues("append")))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `pricing_calculations_total{outcome="invalid"} 1`), body)
}
