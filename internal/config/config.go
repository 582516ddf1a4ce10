package config

import (
	"fmt"
	"os"
)

// Wizard state store backends.
const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

// Config captures runtime configuration values used by the service.
type Config struct {
	// ServerAddress is the host:port pair the HTTP server listens on. Defaults to ":8080".
	ServerAddress string

	// AppBaseURL is the public origin the payment provider redirects back to
	// after checkout. Defaults to "http://localhost:8080".
	AppBaseURL string

	// StripeSecretKey authenticates server-side calls to the payment platform.
	StripeSecretKey string

	// StripePublishableKey is handed to clients embedding the payment surface.
	StripePublishableKey string

	// StripeWebhookSecret verifies webhook signatures. Webhook delivery is
	// rejected when unset.
	StripeWebhookSecret string

	// FirebaseAPIKey authenticates identity-platform REST calls.
	FirebaseAPIKey string

	// FirebaseProjectID selects the identity project and its document store.
	FirebaseProjectID string

	// WizardStore picks the state store backend: memory, badger or postgres.
	// Defaults to "memory".
	WizardStore string

	// BadgerPath is the on-disk location of the badger store. Defaults to
	// "./data/wizard".
	BadgerPath string

	// DatabaseURL is the Postgres DSN used when WizardStore is "postgres".
	DatabaseURL string
}

const (
	defaultServerAddress = ":8080"
	defaultAppBaseURL    = "http://localhost:8080"
	defaultWizardStore   = StoreMemory
	defaultBadgerPath    = "./data/wizard"

	envServerAddress        = "SERVER_ADDR"
	envAppBaseURL           = "APP_BASE_URL"
	envStripeSecretKey      = "STRIPE_SECRET_KEY"
	envStripePublishableKey = "STRIPE_PUBLISHABLE_KEY"
	envStripeWebhookSecret  = "STRIPE_WEBHOOK_SECRET"
	envFirebaseAPIKey       = "FIREBASE_API_KEY"
	envFirebaseProjectID    = "FIREBASE_PROJECT_ID"
	envWizardStore          = "WIZARD_STORE"
	envBadgerPath           = "BADGER_PATH"
	envDatabaseURL          = "DATABASE_URL"
)

// Load reads configuration from environment variables, applies defaults, and
// returns a Config structure. Required values return an error when missing.
func Load() (Config, error) {
	cfg := Config{
		ServerAddress:        firstNonEmpty(os.Getenv(envServerAddress), defaultServerAddress),
		AppBaseURL:           firstNonEmpty(os.Getenv(envAppBaseURL), defaultAppBaseURL),
		StripeSecretKey:      os.Getenv(envStripeSecretKey),
		StripePublishableKey: os.Getenv(envStripePublishableKey),
		StripeWebhookSecret:  os.Getenv(envStripeWebhookSecret),
		FirebaseAPIKey:       os.Getenv(envFirebaseAPIKey),
		FirebaseProjectID:    os.Getenv(envFirebaseProjectID),
		WizardStore:          firstNonEmpty(os.Getenv(envWizardStore), defaultWizardStore),
		BadgerPath:           firstNonEmpty(os.Getenv(envBadgerPath), defaultBadgerPath),
		DatabaseURL:          os.Getenv(envDatabaseURL),
	}

	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("%s is required", envStripeSecretKey)
	}
	if cfg.FirebaseAPIKey == "" {
		return Config{}, fmt.Errorf("%s is required", envFirebaseAPIKey)
	}
	if cfg.FirebaseProjectID == "" {
		return Config{}, fmt.Errorf("%s is required", envFirebaseProjectID)
	}

	switch cfg.WizardStore {
	case StoreMemory, StoreBadger:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("%s is required when %s=%s", envDatabaseURL, envWizardStore, StorePostgres)
		}
	default:
		return Config{}, fmt.Errorf("invalid %s %q: want %s, %s or %s",
			envWizardStore, cfg.WizardStore, StoreMemory, StoreBadger, StorePostgres)
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
