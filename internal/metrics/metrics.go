package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a Prometheus counter for the number of retried payment gateway calls
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by the payment gateway client",
	})
}

// Fulfillment groups the business counters recorded by the transport layer.
type Fulfillment struct {
	DeliveriesAssigned prometheus.Counter
	StatusTransitions  *prometheus.CounterVec
	PaymentsProcessed  *prometheus.CounterVec
	RefundsIssued      prometheus.Counter
}

// NewFulfillment creates unregistered fulfillment counters.
func NewFulfillment() *Fulfillment {
	return &Fulfillment{
		DeliveriesAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliveries_assigned_total",
			Help: "Total number of deliveries assigned to a partner",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_status_transitions_total",
			Help: "Total number of accepted delivery status transitions by target status",
		}, []string{"to"}),
		PaymentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Total number of recorded payment attempts by method and resulting status",
		}, []string{"method", "status"}),
		RefundsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refunds_issued_total",
			Help: "Total number of refunds issued",
		}),
	}
}

// Collectors returns every collector of f, for registration.
func (f *Fulfillment) Collectors() []prometheus.Collector {
	return []prometheus.Collector{f.DeliveriesAssigned, f.StatusTransitions, f.PaymentsProcessed, f.RefundsIssued}
}

// NewStoreGauges exposes the size of the in-memory stores at scrape time.
func NewStoreGauges(activeDeliveries, payments func() int) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "deliveries_active",
			Help: "Number of deliveries not yet in a terminal status",
		}, func() float64 { return float64(activeDeliveries()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "payments_recorded",
			Help: "Number of payment attempts held in memory",
		}, func() float64 { return float64(payments()) }),
	}
}

// Register registers cs with reg, stopping at the first failure.
func Register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
