package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Client captures configuration for the marketplace client core.
type Client struct {
	// APIBaseURL is the root of the platform REST API.
	APIBaseURL string
	// Host is the storefront hostname used for tenant resolution. Empty
	// means the caller supplies it at boot.
	Host string
	// CredentialsPath is where bearer tokens are persisted between runs,
	// standing in for browser local storage.
	CredentialsPath string
	// RequestTimeout bounds every API call.
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 15 * time.Second

// FromEnv builds a Client config from environment variables so main stays
// lean. A .env file is loaded first, best effort, for development.
func FromEnv() Client {
	_ = godotenv.Load()

	baseURL := os.Getenv("SEVA_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	credsPath := os.Getenv("SEVA_CREDENTIALS_PATH")
	if credsPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			credsPath = filepath.Join(home, ".seva", "credentials.json")
		} else {
			credsPath = "credentials.json"
		}
	}

	timeout := defaultRequestTimeout
	if raw := os.Getenv("SEVA_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		}
	}

	return Client{
		APIBaseURL:      baseURL,
		Host:            os.Getenv("SEVA_HOST"),
		CredentialsPath: credsPath,
		RequestTimeout:  timeout,
	}
}
