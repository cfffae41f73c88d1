package router

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polkiloo/orderledger/internal/domain/model"
	"github.com/polkiloo/orderledger/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/orderledger/internal/test"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "orderledger_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	facade := testhelpers.StorefrontFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			OrdersFn: func(_ context.Context, id model.Identity, _ string) ([]model.Order, error) {
				return []model.Order{{SessionID: "cs_1", UserID: id.UserID, Status: model.OrderStatusPaid}}, nil
			},
		},
		VerifierStub: testhelpers.VerifierStub{Identities: map[string]model.Identity{
			"token": testhelpers.Identity("u-1", "buyer@example.com"),
		}},
	}
	return Setup(facade, reg, logger)
}

func serve(engine *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	engine := newEngine(t)
	bearer := map[string]string{"Authorization": "Bearer token"}

	tests := []struct {
		name    string
		method  string
		path    string
		body    []byte
		headers map[string]string
		status  int
	}{
		{"checkout anonymous", http.MethodPost, "/checkout", []byte(`{"items":[{"name":"Beans","price":10}]}`), nil, http.StatusOK},
		{"checkout with bad token", http.MethodPost, "/checkout", []byte(`{"items":[{"name":"Beans","price":10}]}`), map[string]string{"Authorization": "Bearer nope"}, http.StatusOK},
		{"webhook", http.MethodPost, "/webhook", []byte(`{}`), nil, http.StatusOK},
		{"webhook alias", http.MethodPost, "/webhook/stripe", []byte(`{}`), nil, http.StatusOK},
		{"pesapal get", http.MethodGet, "/webhook/pesapal?OrderTrackingId=trk-1", nil, nil, http.StatusOK},
		{"pesapal post", http.MethodPost, "/webhook/pesapal", []byte(`{"order_tracking_id":"trk-1"}`), map[string]string{"Content-Type": "application/json"}, http.StatusOK},
		{"orders unauthorized", http.MethodGet, "/orders", nil, nil, http.StatusUnauthorized},
		{"orders", http.MethodGet, "/orders", nil, bearer, http.StatusOK},
		{"claim unauthorized", http.MethodPost, "/orders/claim", nil, nil, http.StatusUnauthorized},
		{"claim", http.MethodPost, "/orders/claim", nil, bearer, http.StatusOK},
		{"health", http.MethodGet, "/healthz", nil, nil, http.StatusOK},
		{"unknown", http.MethodGet, "/api/user/orders", nil, nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := serve(engine, tc.method, tc.path, tc.body, tc.headers)
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestOrdersResponseCarriesIdentity(t *testing.T) {
	engine := newEngine(t)
	resp := serve(engine, http.MethodGet, "/orders", nil, map[string]string{"Authorization": "Bearer token"})
	if !strings.Contains(resp.Body.String(), `"userId":"u-1"`) {
		t.Fatalf("expected identity forwarded to facade, got %s", resp.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newEngine(t)
	resp := serve(engine, http.MethodGet, "/metrics", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "orderledger_test_total 1") {
		t.Fatalf("expected registered collector in output, got %s", resp.Body.String())
	}
}

func TestResponsesAreCompressed(t *testing.T) {
	engine := newEngine(t)
	resp := serve(engine, http.MethodGet, "/healthz", nil, map[string]string{"Accept-Encoding": "gzip"})
	if resp.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got headers %v", resp.Header())
	}
}

var _ handlers.StorefrontFacade = (*testhelpers.StorefrontFacadeStub)(nil)
