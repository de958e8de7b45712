// Package config loads application configuration from environment
// variables, after merging an optional .env file.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env             string // application environment (dev, prod)
	Port            string // HTTP port to listen on
	StoreDriver     string // mysql or memory
	DBUser          string
	DBPass          string
	DBHost          string
	DBPort          string
	DBName          string
	JWTSecret       string // secret used to sign JWTs
	AccessTTLMin    int    // access token TTL in minutes
	RefreshTTLDays  int    // refresh token TTL in days
	BcryptCost      int    // bcrypt cost for password hashing
	InvoiceCurrency string // currency stored on invoices

	Bootstrap BootstrapConfig
	AFIP      AFIPConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
}

// BootstrapConfig seeds the first account and its admin on an empty
// store.  Nothing is seeded when AdminEmail is empty.
type BootstrapConfig struct {
	AccountName   string
	AccountTaxID  string
	AdminEmail    string
	AdminPassword string
}

// AFIPConfig configures the tax authority gateway.
type AFIPConfig struct {
	Enabled     bool
	BaseURL     string
	AccessToken string
	Environment string
	TaxID       string
	WSID        string
	Currency    string // code sent to the gateway for InvoiceCurrency
	Timeout     time.Duration
	TokenTTL    time.Duration
	DemoExpiry  time.Duration
}

// EventsConfig configures the message broker.  An empty RabbitURL
// disables publishing.
type EventsConfig struct {
	RabbitURL     string
	AuditConsumer bool
	AuditLogPath  string
}

// TelemetryConfig configures OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
}

// Load reads configuration values from the environment.  A .env file in
// the working directory is loaded first when present.  Missing required
// variables stop the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env ignored: %v", err)
	}

	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		StoreDriver:     envStr("STORE_DRIVER", "mysql"),
		DBPass:          os.Getenv("DB_PASS"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		InvoiceCurrency: envStr("INVOICE_CURRENCY", "ARS"),
		Bootstrap: BootstrapConfig{
			AccountName:   envStr("BOOTSTRAP_ACCOUNT_NAME", "Default"),
			AccountTaxID:  os.Getenv("BOOTSTRAP_ACCOUNT_TAX_ID"),
			AdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		AFIP: AFIPConfig{
			Enabled:     envBool("AFIP_ENABLED", true),
			BaseURL:     os.Getenv("AFIP_BASE_URL"),
			AccessToken: os.Getenv("AFIP_ACCESS_TOKEN"),
			Environment: envStr("AFIP_ENVIRONMENT", "dev"),
			TaxID:       os.Getenv("AFIP_TAX_ID"),
			WSID:        envStr("AFIP_WSID", "wsfe"),
			Currency:    envStr("AFIP_CURRENCY", "PES"),
			Timeout:     envDur("AFIP_TIMEOUT", 5*time.Second),
			TokenTTL:    envDur("AFIP_TOKEN_TTL", 11*time.Hour),
			DemoExpiry:  envDur("AFIP_DEMO_EXPIRY", 10*24*time.Hour),
		},
		Events: EventsConfig{
			RabbitURL:     os.Getenv("RABBITMQ_URL"),
			AuditConsumer: envBool("AUDIT_CONSUMER_ENABLED", false),
			AuditLogPath:  envStr("AUDIT_LOG_PATH", "logs/audit.log"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			ServiceName:  envStr("SERVICE_NAME", "hotel-reservation-engine"),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	if cfg.AFIP.Enabled && cfg.AFIP.BaseURL == "" {
		log.Printf("[config] AFIP_BASE_URL empty, invoices will be issued in demo mode")
		cfg.AFIP.Enabled = false
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
