package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"":                               "/",
		"/":                              "/",
		"/api/admin/cards/42/block":      "/api/admin/cards/{id}/block",
		"/api/users/cards/total-balance": "/api/users/cards/total-balance",
		"/api/users/cards/7/balance/":    "/api/users/cards/{id}/balance",
	}
	for in, want := range tests {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func TestInstrumentHandler_CountsRequests(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/users/cards/{id}/balance", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/cards/5/balance", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/users/cards/{id}/balance", "418"))

	assert.Equal(t, before+1, after)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	before := testutil.ToFloat64(transfers.WithLabelValues("success"))
	r.ObserveTransfer("success")
	assert.Equal(t, before+1, testutil.ToFloat64(transfers.WithLabelValues("success")))

	expiredBefore := testutil.ToFloat64(cardsExpired)
	r.ObserveExpired(3)
	r.ObserveExpired(0)
	assert.Equal(t, expiredBefore+3, testutil.ToFloat64(cardsExpired))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	NewRecorder().ObserveTransfer("insufficient_funds")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bank_cards_transfers_total"))
}
