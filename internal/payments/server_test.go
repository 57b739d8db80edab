package payments

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, upstream http.Handler) *httptest.Server {
	t.Helper()
	client := newTestClient(t, upstream)
	srv := httptest.NewServer(NewServer(client, newTestStore(t), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthRoute(t *testing.T) {
	srv := newTestServer(t, http.NotFoundHandler())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebhookAcknowledged(t *testing.T) {
	srv := newTestServer(t, http.NotFoundHandler())

	resp, err := http.Post(srv.URL+"/api/webhook", "application/json",
		strings.NewReader(`{"transaction_code":"code-1","status":"COMPLETE"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExchangeRateRouteValidatesInput(t *testing.T) {
	srv := newTestServer(t, http.NotFoundHandler())

	resp, err := http.Post(srv.URL+"/api/exchange-rate", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPayRouteValidatesAmount(t *testing.T) {
	srv := newTestServer(t, http.NotFoundHandler())

	resp, err := http.Post(srv.URL+"/api/pay", "application/json", strings.NewReader(`{
		"transaction_hash": "0x1",
		"amount": "-5",
		"shortcode": "+254712345678",
		"mobile_network": "Safaricom"
	}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPayRouteProxiesUpstream(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pay/KES", r.URL.Path)
		w.Write([]byte(`{"data":{"transaction_code":"rcpt-7","status":"PENDING"}}`))
	})
	srv := newTestServer(t, upstream)

	resp, err := http.Post(srv.URL+"/api/pay", "application/json", strings.NewReader(`{
		"transaction_hash": "0x1",
		"amount": "1300",
		"shortcode": "+254712345678",
		"mobile_network": "Safaricom",
		"currency": "KES"
	}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	srv := newTestServer(t, upstream)

	resp, err := http.Post(srv.URL+"/api/exchange-rate", "application/json",
		strings.NewReader(`{"currency_code":"KES"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
