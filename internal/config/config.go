// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	OwnerID        string
	SecretKey      []byte
	SyncInterval   time.Duration
	ListenAddr     string
	DBPath         string
	WalletRPCURL   string
	WalletIndexURL string
	PriceURL       string
}

// HasSecretKey returns true when a credential encryption key is configured.
// Without it the app starts but provider connections cannot be stored.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// Load reads configuration from environment variables and returns a validated
// Config. NETWORTH_SECRET_KEY (32 bytes, AES-256) is optional; if absent the
// app starts but connect flows fail until it is set. Optional variables with
// defaults: NETWORTH_SYNC_INTERVAL (6h), NETWORTH_LISTEN_ADDR
// (127.0.0.1:8080), NETWORTH_DB_PATH (networth.db), NETWORTH_OWNER_ID
// (primary). NETWORTH_WALLET_RPC_URL, NETWORTH_WALLET_INDEX_URL, and
// NETWORTH_PRICE_URL configure the wallet provider endpoints.
func Load() (*Config, error) {
	var secretKey []byte
	if v := os.Getenv("NETWORTH_SECRET_KEY"); v != "" {
		if len(v) != 32 {
			return nil, fmt.Errorf("NETWORTH_SECRET_KEY must be exactly 32 bytes, got %d", len(v))
		}
		secretKey = []byte(v)
	}

	syncInterval := 6 * time.Hour
	if v, ok := os.LookupEnv("NETWORTH_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("NETWORTH_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("NETWORTH_SYNC_INTERVAL must be positive, got %q", v)
		}
		syncInterval = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("NETWORTH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "networth.db"
	if v, ok := os.LookupEnv("NETWORTH_DB_PATH"); ok {
		dbPath = v
	}

	ownerID := "primary"
	if v, ok := os.LookupEnv("NETWORTH_OWNER_ID"); ok && v != "" {
		ownerID = v
	}

	return &Config{
		OwnerID:        ownerID,
		SecretKey:      secretKey,
		SyncInterval:   syncInterval,
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		WalletRPCURL:   os.Getenv("NETWORTH_WALLET_RPC_URL"),
		WalletIndexURL: os.Getenv("NETWORTH_WALLET_INDEX_URL"),
		PriceURL:       os.Getenv("NETWORTH_PRICE_URL"),
	}, nil
}
