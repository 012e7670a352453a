package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"service-fulfillment/internal/domain"
)

// Matcher modes.
const (
	MatcherStatic = "static"
	MatcherPool   = "pool"
)

// Config stores service settings.
type Config struct {
	Port             int
	LogLevel         string
	OperationTimeout time.Duration
	RateLimit        RateLimit
	Matcher          Matcher
	Gateway          Gateway
	Kafka            Kafka
	Debug            Debug
}

// Debug configures the optional pprof/metrics listener. An empty Addr disables it.
type Debug struct {
	Addr string
	User string
	Pass string
}

// RateLimit configures the per-client HTTP limiter.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Matcher selects and configures the partner matching policy.
type Matcher struct {
	Mode        string
	PartnerID   int64
	PartnerName string
	ETA         string
	Pool        []domain.Partner
}

// Gateway configures retries of the payment gateway client.
type Gateway struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Kafka configures the order-event consumer.
type Kafka struct {
	Brokers     []string
	OrdersTopic string
	GroupID     string
}

// Enabled reports whether the consumer has everything it needs to start.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0 && k.OrdersTopic != "" && k.GroupID != ""
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	e := &envReader{}
	cfg := &Config{
		Port:             e.int("PORT", defaultPort),
		LogLevel:         e.str("LOG_LEVEL", defaultLogLevel),
		OperationTimeout: e.duration("OPERATION_TIMEOUT", defaultOperationTimeout),
		RateLimit: RateLimit{
			Enabled:    e.bool("RATE_LIMIT_ENABLED", defaultRateLimit.Enabled),
			Rate:       e.float("RATE_LIMIT_RPS", defaultRateLimit.Rate),
			Burst:      e.int("RATE_LIMIT_BURST", defaultRateLimit.Burst),
			TTL:        e.duration("RATE_LIMIT_TTL", defaultRateLimit.TTL),
			MaxBuckets: e.int("RATE_LIMIT_MAX_BUCKETS", defaultRateLimit.MaxBuckets),
		},
		Matcher: Matcher{
			Mode:        strings.ToLower(e.str("MATCHER_MODE", defaultMatcher.Mode)),
			PartnerID:   int64(e.int("MATCHER_PARTNER_ID", int(defaultMatcher.PartnerID))),
			PartnerName: e.str("MATCHER_PARTNER_NAME", defaultMatcher.PartnerName),
			ETA:         e.str("MATCHER_ETA", defaultMatcher.ETA),
		},
		Gateway: Gateway{
			MaxAttempts: e.int("GATEWAY_MAX_ATTEMPTS", defaultGateway.MaxAttempts),
			BaseDelay:   e.duration("GATEWAY_BASE_DELAY", defaultGateway.BaseDelay),
			MaxDelay:    e.duration("GATEWAY_MAX_DELAY", defaultGateway.MaxDelay),
		},
		Kafka: Kafka{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			OrdersTopic: e.str("KAFKA_ORDERS_TOPIC", defaultOrdersTopic),
			GroupID:     e.str("KAFKA_GROUP_ID", defaultGroupID),
		},
		Debug: Debug{
			Addr: e.str("DEBUG_ADDR", ""),
			User: e.str("DEBUG_USER", ""),
			Pass: e.str("DEBUG_PASS", ""),
		},
	}
	if raw := strings.TrimSpace(os.Getenv("MATCHER_POOL")); raw != "" {
		pool, err := ParsePool(raw)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("MATCHER_POOL: %w", err))
		}
		cfg.Matcher.Pool = pool
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("invalid operation timeout: %s", c.OperationTimeout)
	}
	switch c.Matcher.Mode {
	case MatcherStatic:
	case MatcherPool:
		if len(c.Matcher.Pool) == 0 {
			return errors.New("matcher mode pool requires MATCHER_POOL")
		}
	default:
		return fmt.Errorf("unknown matcher mode %q", c.Matcher.Mode)
	}
	if c.Gateway.MaxAttempts < 1 {
		return fmt.Errorf("invalid gateway max attempts: %d", c.Gateway.MaxAttempts)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid rate limit: rps=%v burst=%d", c.RateLimit.Rate, c.RateLimit.Burst)
	}
	return nil
}

// ParsePool parses "id:name:transport" entries separated by commas,
// e.g. "1:Ann:car,2:Bob:scooter".
func ParsePool(raw string) ([]domain.Partner, error) {
	var out []domain.Partner
	seen := make(map[int64]struct{})
	for _, item := range splitList(raw) {
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("entry %q: want id:name:transport", item)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("entry %q: invalid id", item)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("entry %q: duplicate id", item)
		}
		seen[id] = struct{}{}

		p := domain.Partner{
			ID:        id,
			Name:      strings.TrimSpace(parts[1]),
			Transport: domain.TransportType(strings.TrimSpace(parts[2])),
		}
		if p.Name == "" {
			return nil, fmt.Errorf("entry %q: empty name", item)
		}
		if !p.Transport.Valid() {
			return nil, fmt.Errorf("entry %q: unknown transport %q", item, p.Transport)
		}
		out = append(out, p)
	}
	return out, nil
}

type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *envReader) bool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
