package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"service-fulfillment/internal/gateway/payments"
	"service-fulfillment/internal/http/handlers"
	"service-fulfillment/internal/http/middleware"
	"service-fulfillment/internal/http/middleware/ratelimit"
	"service-fulfillment/internal/http/router"
	"service-fulfillment/internal/logx"
	"service-fulfillment/internal/metrics"
	"service-fulfillment/internal/repository"
	"service-fulfillment/internal/service/delivery"
	"service-fulfillment/internal/service/matching"
	"service-fulfillment/internal/service/payment"
	"service-fulfillment/internal/service/refund"
)

type fixture struct {
	srv     *httptest.Server
	metrics *metrics.Fulfillment
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()

	logger := logx.Nop()
	reg := prometheus.NewRegistry()
	fm := metrics.NewFulfillment()
	require.NoError(t, metrics.Register(reg, fm.Collectors()...))
	hm, err := middleware.NewHTTPMetrics(reg)
	require.NoError(t, err)

	deliveries := repository.NewDeliveryStore()
	paymentsStore := repository.NewPaymentStore()
	gw := payments.NewStubGateway()

	dsvc := delivery.NewDeliveryService(deliveries, matching.NewStaticMatcher(matching.DefaultAssignment), time.Second)
	ledger := payment.NewLedger(paymentsStore, gw, time.Second)
	refunds := refund.NewProcessor(paymentsStore, gw, time.Second)

	h := router.New(router.Deps{
		Logger:    logger,
		Base:      handlers.New(logger),
		Delivery:  handlers.NewDeliveryHandler(logger, handlers.NewDeliveryUsecase(dsvc), fm),
		Payments:  handlers.NewPaymentHandler(logger, handlers.NewPaymentUsecase(ledger), handlers.NewRefundUsecase(refunds), fm),
		RateLimit: ratelimit.New(logger, nil, limiter),
		Metrics:   hm,
		Gatherer:  reg,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, metrics: fm}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.ContentLength != 0 && method != http.MethodHead {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

func TestEndToEnd_DeliveryPaymentRefund(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	code, body := f.do(t, http.MethodPost, "/delivery/assign", `{"orderId":1,"deliveryAddress":"123 Main St"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "ASSIGNED", body["status"])
	require.Equal(t, "Restaurant Location", body["pickupAddress"])
	require.Equal(t, float64(501), body["partnerId"])
	require.Equal(t, "John Delivery", body["partnerName"])

	code, body = f.do(t, http.MethodPut, "/delivery/1/status", `{"status":"PICKED_UP"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Delivery status updated", body["message"])
	require.Equal(t, "PICKED_UP", body["status"])

	code, _ = f.do(t, http.MethodPut, "/delivery/1/status", `{"status":"DELIVERED"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = f.do(t, http.MethodPost, "/payments", `{"orderId":1,"amount":25.99,"paymentMethod":"CARD"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "SUCCESS", body["status"])
	require.Equal(t, 25.99, body["amount"])
	require.Regexp(t, `^TXN`, body["transactionId"])

	code, body = f.do(t, http.MethodPost, "/payments/1/refund", `{"reason":"test"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Refund processed successfully", body["message"])
	require.Equal(t, 25.99, body["amount"])
	require.Equal(t, "test", body["reason"])
	require.Regexp(t, `^REF`, body["refundId"])

	code, body = f.do(t, http.MethodPost, "/payments/1/refund", `{"reason":"again"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "payment already refunded", body["error"])

	code, body = f.do(t, http.MethodGet, "/payments/1", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "REFUNDED", body["status"])

	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.DeliveriesAssigned))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StatusTransitions.WithLabelValues("DELIVERED")))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PaymentsProcessed.WithLabelValues("CARD", "SUCCESS")))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.RefundsIssued))
}

func TestDelivery_ErrorStatuses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	code, body := f.do(t, http.MethodGet, "/delivery/9", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Delivery not found for order", body["error"])

	code, _ = f.do(t, http.MethodGet, "/delivery/abc", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/delivery/assign", `{"orderId":2}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/delivery/assign", `{"orderId":2,"deliveryAddress":"x","tip":5}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/delivery/assign", `{"orderId":2,"deliveryAddress":"x"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body = f.do(t, http.MethodPost, "/delivery/assign", `{"orderId":2,"deliveryAddress":"y"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "delivery already assigned for order", body["error"])

	code, _ = f.do(t, http.MethodPut, "/delivery/2/status", `{"status":"SEARCHING"}`)
	require.Equal(t, http.StatusBadRequest, code, "ASSIGNED -> SEARCHING moves backwards")

	code, _ = f.do(t, http.MethodPut, "/delivery/2/status", `{"status":"LOST"}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, body = f.do(t, http.MethodPut, "/delivery/3/status", `{"status":"CANCELLED"}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Delivery not found", body["error"])

	code, _ = f.do(t, http.MethodPut, "/delivery/2/status", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, code)
}

func TestPayments_ErrorStatuses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	code, body := f.do(t, http.MethodPost, "/payments", `{"orderId":1,"amount":0,"paymentMethod":"CARD"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "amount must be positive", body["error"])

	code, body = f.do(t, http.MethodPost, "/payments", `{"orderId":1,"amount":"10.00","paymentMethod":"CHEQUE"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "unsupported payment method", body["error"])

	code, body = f.do(t, http.MethodGet, "/payments/5", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Payment not found for order", body["error"])

	code, body = f.do(t, http.MethodPost, "/payments/5/refund", `{"reason":"none"}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "Payment not found", body["error"])
}

func TestLists(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	resp, err := f.srv.Client().Get(f.srv.URL + "/delivery")
	require.NoError(t, err)
	var empty []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	resp.Body.Close()
	require.Empty(t, empty)

	for _, id := range []string{"1", "2"} {
		code, _ := f.do(t, http.MethodPost, "/payments", `{"orderId":`+id+`,"amount":1.5,"paymentMethod":"UPI"}`)
		require.Equal(t, http.StatusCreated, code)
	}

	resp, err = f.srv.Client().Get(f.srv.URL + "/payments")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	require.Equal(t, float64(1), list[0]["orderId"])
	require.Equal(t, float64(2), list[1]["orderId"])
}

func TestConcurrentAssign_SingleWinner(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	const n = 20
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.srv.Client().Post(f.srv.URL+"/delivery/assign", "application/json",
				strings.NewReader(`{"orderId":77,"deliveryAddress":"1 Loop"}`))
			if err != nil {
				codes <- 0
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for c := range codes {
		counts[c]++
	}
	require.Equal(t, map[int]int{http.StatusCreated: 1, http.StatusConflict: n - 1}, counts)
}

func TestServiceRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	code, body := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]any{"status": "healthy", "service": "delivery-service"}, body)

	code, body = f.do(t, http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "pong", body["message"])

	code, body = f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "1.0.0", body["version"])

	code, _ = f.do(t, http.MethodHead, "/healthcheck", "")
	require.Equal(t, http.StatusNoContent, code)

	code, body = f.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "route not found", body["error"])

	code, _ = f.do(t, http.MethodDelete, "/payments", "")
	require.Equal(t, http.StatusMethodNotAllowed, code)

	resp, err := f.srv.Client().Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestRateLimitAppliesToBusinessRoutesOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, denyAll{})

	code, _ := f.do(t, http.MethodGet, "/delivery", "")
	require.Equal(t, http.StatusTooManyRequests, code)

	code, _ = f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)
}
