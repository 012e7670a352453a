package config

import "time"

const (
	defaultPort             = 8080
	defaultLogLevel         = "info"
	defaultOperationTimeout = 3 * time.Second
)

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       20,
	Burst:      40,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

// single-courier deployment
var defaultMatcher = Matcher{
	Mode:        MatcherStatic,
	PartnerID:   501,
	PartnerName: "John Delivery",
	ETA:         "25-30 min",
}

var defaultGateway = Gateway{
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    time.Second,
}

const (
	defaultOrdersTopic = "orders"
	defaultGroupID     = "service-fulfillment"
)

// DefaultPort returns the default port.
func DefaultPort() int { return defaultPort }

// DefaultRateLimit returns the default rate limit settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }

// DefaultMatcher returns the default matcher settings.
func DefaultMatcher() Matcher { return defaultMatcher }

// DefaultGateway returns the default payment gateway retry settings.
func DefaultGateway() Gateway { return defaultGateway }
