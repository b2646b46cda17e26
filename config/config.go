// config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the process-start configuration: store location/options, the
// HTTP/3 query server, and the query engine's own caps.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Query  QueryConfig
}

// ServerConfig configures the HTTP/3 query front end.
type ServerConfig struct {
	// TLS
	TLSMinVersion string // "1.3"
	TLSMaxVersion string // "1.3"

	// QUIC
	QUICKeepAlivePeriod time.Duration // 10 * time.Second
	QUICMaxIdleTimeout  time.Duration // 5 * time.Minute
	QUICAllow0RTT       bool          // true

	// HTTP
	HTTPTimeout        time.Duration // 30 * time.Second
	MaxRequestBodySize int64         // 10 << 20 (10MB)

	ListenAddr string // ":8443"
}

// StoreConfig configures the pebble-backed ordered key-value store.
type StoreConfig struct {
	Path string // on-disk directory for the store

	MaxConcurrentCompactions int // 2
	MemTableSize             int // 64 << 20 (64MB)
	L0CompactionThreshold    int // 4
	Sync                     bool
}

// QueryConfig holds result-cap settings. Validate checks them against each
// other; QueryEngine does not read them — each query's cap comes from its
// own Query.MaxResults.
type QueryConfig struct {
	DefaultMaxResults uint32 // must not exceed HardMaxResults
	HardMaxResults    uint32 // must be positive
}

// DefaultConfig returns sane defaults for a single-node deployment.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			TLSMinVersion:       "1.3",
			TLSMaxVersion:       "1.3",
			QUICKeepAlivePeriod: 10 * time.Second,
			QUICMaxIdleTimeout:  5 * time.Minute,
			QUICAllow0RTT:       true,
			HTTPTimeout:         30 * time.Second,
			MaxRequestBodySize:  10 << 20,
			ListenAddr:          ":8443",
		},
		Store: StoreConfig{
			Path:                     "./historykv-data",
			MaxConcurrentCompactions: 2,
			MemTableSize:             64 << 20,
			L0CompactionThreshold:    4,
			Sync:                     false,
		},
		Query: QueryConfig{
			DefaultMaxResults: 100,
			HardMaxResults:    10000,
		},
	}
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path must not be empty")
	}
	if c.Query.HardMaxResults == 0 {
		return fmt.Errorf("query.HardMaxResults must be positive")
	}
	if c.Query.DefaultMaxResults > c.Query.HardMaxResults {
		return fmt.Errorf("query.DefaultMaxResults (%d) exceeds HardMaxResults (%d)", c.Query.DefaultMaxResults, c.Query.HardMaxResults)
	}
	return nil
}
