package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents configuration for the export summariser and the mock
// export API server
type Config struct {
	BindAddr                   string        `envconfig:"BIND_ADDR"`
	GracefulShutdownTimeout    time.Duration `envconfig:"GRACEFUL_SHUTDOWN_TIMEOUT"`
	HealthCheckInterval        time.Duration `envconfig:"HEALTHCHECK_INTERVAL"`
	HealthCheckCriticalTimeout time.Duration `envconfig:"HEALTHCHECK_CRITICAL_TIMEOUT"`
	ExportAPIURL               string        `envconfig:"EXPORT_API_URL"`
	DefaultRequestTimeout      time.Duration `envconfig:"DEFAULT_REQUEST_TIMEOUT"`
	DownloadTimeout            time.Duration `envconfig:"DOWNLOAD_TIMEOUT"`
	NumWorkers                 int           `envconfig:"NUM_WORKERS"`
	ReadChunkSize              int           `envconfig:"READ_CHUNK_SIZE"`
	OutputFilePath             string        `envconfig:"OUTPUT_FILE_PATH"`
}

var cfg *Config

// Get returns the default config with any modifications through environment
// variables
func Get() (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		BindAddr:                   ":28400",
		GracefulShutdownTimeout:    5 * time.Second,
		HealthCheckInterval:        30 * time.Second,
		HealthCheckCriticalTimeout: 90 * time.Second,
		ExportAPIURL:               "http://localhost:28400",
		DefaultRequestTimeout:      10 * time.Second,
		DownloadTimeout:            15 * time.Minute,
		NumWorkers:                 4,
		ReadChunkSize:              32 * 1024,
		OutputFilePath:             "",
	}

	return cfg, envconfig.Process("", cfg)
}
