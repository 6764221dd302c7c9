package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler(reg)))

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}
	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/products/:id", "200"))
	if got != 2 {
		t.Fatalf("expected 2 requests on route template, got %v", got)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "storefront_http_requests_total") {
		t.Fatalf("metrics not exposed")
	}
}

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.OrderPlaced(129.97)
	m.OrderPlaced(10)
	m.OrderStatusChanged("shipped")
	m.CartOperation("add")

	if got := testutil.ToFloat64(m.ordersPlaced); got != 2 {
		t.Fatalf("orders placed %v", got)
	}
	if got := testutil.ToFloat64(m.orderRevenue); got < 139.96 || got > 139.98 {
		t.Fatalf("revenue %v", got)
	}
	if got := testutil.ToFloat64(m.statusChanges.WithLabelValues("shipped")); got != 1 {
		t.Fatalf("status changes %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.OrderPlaced(1)
	nilMetrics.CartOperation("add")
}
