package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress  string
	DatabaseURI string
	FrontendURL string
	LogLevel    string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutCurrency    string
	DiscountCodes       []string
	JWTSecret           string

	PesapalBaseURL        string
	PesapalConsumerKey    string
	PesapalConsumerSecret string
	PesapalIPNID          string
	PesapalCurrency       string

	EnrichmentLimit   int
	OrderPollInterval time.Duration
	WorkerPoolSize    int
	MaxOrdersBatch    int
	PendingTTL        time.Duration
	ShutdownTimeout   time.Duration
}

const (
	defaultRunAddress        = ":8080"
	defaultFrontendURL       = "https://www.imbaricoffee.com"
	defaultLogLevel          = "info"
	defaultCheckoutCurrency  = "usd"
	defaultDiscountCodes     = "UBUNTU88"
	defaultPesapalBaseURL    = "https://pay.pesapal.com/v3"
	defaultPesapalCurrency   = "UGX"
	defaultEnrichmentLimit   = 10
	defaultOrderPollInterval = 30 * time.Second
	defaultWorkerPoolSize    = 4
	defaultMaxOrdersBatch    = 32
	defaultPendingTTL        = 24 * time.Hour
	defaultShutdownTimeout   = 10 * time.Second
)

// Load parses configuration from flags and environment variables. A .env file
// in the working directory is read first; variables already set win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		FrontendURL:           getString(lookup, "FRONTEND_URL", defaultFrontendURL),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
		StripeSecretKey:       getString(lookup, "STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   getString(lookup, "STRIPE_WEBHOOK_SECRET", ""),
		CheckoutCurrency:      getString(lookup, "CHECKOUT_CURRENCY", defaultCheckoutCurrency),
		JWTSecret:             getString(lookup, "JWT_SECRET", ""),
		PesapalBaseURL:        getString(lookup, "PESAPAL_BASE_URL", defaultPesapalBaseURL),
		PesapalConsumerKey:    getString(lookup, "PESAPAL_CONSUMER_KEY", ""),
		PesapalConsumerSecret: getString(lookup, "PESAPAL_CONSUMER_SECRET", ""),
		PesapalIPNID:          getString(lookup, "PESAPAL_IPN_ID", ""),
		PesapalCurrency:       getString(lookup, "PESAPAL_CURRENCY", defaultPesapalCurrency),
		EnrichmentLimit:       getInt(lookup, "ENRICHMENT_LIMIT", defaultEnrichmentLimit),
		OrderPollInterval:     getDuration(lookup, "ORDER_POLL_INTERVAL", defaultOrderPollInterval),
		WorkerPoolSize:        getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		MaxOrdersBatch:        getInt(lookup, "POLL_BATCH_SIZE", defaultMaxOrdersBatch),
		PendingTTL:            getDuration(lookup, "PENDING_TTL", defaultPendingTTL),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("orderledger", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.OrderPollInterval.String()
		pendingTTLStr      = cfg.PendingTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		discountCodesStr   = getString(lookup, "DISCOUNT_CODES", defaultDiscountCodes)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.FrontendURL, "frontend-url", cfg.FrontendURL, "Storefront origin used for redirects and images")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.StripeSecretKey, "stripe-key", cfg.StripeSecretKey, "Card provider secret key")
	fs.StringVar(&cfg.StripeWebhookSecret, "stripe-webhook-secret", cfg.StripeWebhookSecret, "Card provider webhook signing secret")
	fs.StringVar(&cfg.CheckoutCurrency, "currency", cfg.CheckoutCurrency, "Card checkout currency")
	fs.StringVar(&discountCodesStr, "discount-codes", discountCodesStr, "Comma separated allowed discount codes")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for verifying identity tokens")
	fs.StringVar(&cfg.PesapalBaseURL, "pesapal-url", cfg.PesapalBaseURL, "Mobile money API base URL")
	fs.StringVar(&cfg.PesapalIPNID, "pesapal-ipn-id", cfg.PesapalIPNID, "Registered mobile money IPN id")
	fs.StringVar(&cfg.PesapalCurrency, "pesapal-currency", cfg.PesapalCurrency, "Mobile money charge currency")
	fs.IntVar(&cfg.EnrichmentLimit, "enrich-limit", cfg.EnrichmentLimit, "Maximum orders enriched per request")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent status workers")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between mobile money status polls")
	fs.StringVar(&pendingTTLStr, "pending-ttl", pendingTTLStr, "Age after which pending orders are no longer polled")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.MaxOrdersBatch, "poll-batch", cfg.MaxOrdersBatch, "Maximum orders per polling batch")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.OrderPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.PendingTTL, err = time.ParseDuration(pendingTTLStr); err != nil {
		return nil, fmt.Errorf("invalid pending ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	cfg.DiscountCodes = splitCodes(discountCodesStr)
	cfg.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/")
	cfg.CheckoutCurrency = strings.ToLower(strings.TrimSpace(cfg.CheckoutCurrency))

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxOrdersBatch <= 0 {
		cfg.MaxOrdersBatch = defaultMaxOrdersBatch
	}

	if cfg.EnrichmentLimit < 0 {
		cfg.EnrichmentLimit = defaultEnrichmentLimit
	}

	if cfg.OrderPollInterval <= 0 {
		cfg.OrderPollInterval = defaultOrderPollInterval
	}

	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = defaultPendingTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.CheckoutCurrency == "" {
		cfg.CheckoutCurrency = defaultCheckoutCurrency
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		if code := strings.ToUpper(strings.TrimSpace(part)); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
