package config

import (
	"time"
)

// Config is the root of the YAML configuration file.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Sync       Sync       `yaml:"sync"`
}

// Logger holds logging configuration.
type Logger struct {
	Level string `yaml:"level"`
}

// HTTPClient holds settings for the resty HTTP client shared by all platform clients.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

// TLSClientConfig holds TLS verification settings.
type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

// Proxy holds outbound proxy settings.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Sync holds settings for the search and synchronization engines.
type Sync struct {
	// Workers caps concurrent page fetches and partition searches globally,
	// shared across all recursion levels of a search.
	Workers int `yaml:"workers"`
	// SearchCeiling is the safety ceiling on a single search result set.
	// A server total above it triggers query decomposition.
	SearchCeiling int `yaml:"search_ceiling"`
	// PageSize is the page size requested from the search API.
	PageSize int `yaml:"page_size"`
	// ChangelogTimeout bounds a single changelog/comments fetch.
	ChangelogTimeout time.Duration `yaml:"changelog_timeout"`
}
