package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "biomarker-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AcquisitionConfig holds settings for downloading remote reports.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxRetries bounds retries on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ProviderBackend identifies the document text provider.
type ProviderBackend string

const (
	BackendAuto       ProviderBackend = "auto"
	BackendPDF        ProviderBackend = "pdf"
	BackendMarkitdown ProviderBackend = "markitdown"
	BackendText       ProviderBackend = "text"
)

// ProviderConfig selects and configures the document text provider.
type ProviderConfig struct {
	// Backend selects the provider: auto, pdf, markitdown, or text.
	Backend ProviderBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// ContainerImage is the image used by the markitdown backend.
	ContainerImage string `json:"container_image" yaml:"container_image" mapstructure:"container_image"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	ProviderConfig `yaml:",inline" mapstructure:",squash"`

	// Table is an optional path to a YAML biomarker table. Empty uses the
	// built-in table.
	Table string `json:"table" yaml:"table" mapstructure:"table"`
}

// ServerConfig holds settings for the HTTP transport.
type ServerConfig struct {
	Host         string        `json:"host" yaml:"host" mapstructure:"host"`
	Port         int           `json:"port" yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// TempDir receives uploaded documents while they are processed.
	// Empty uses the OS temp directory.
	TempDir string `json:"temp_dir" yaml:"temp_dir" mapstructure:"temp_dir"`

	// MaxUploadBytes caps the multipart upload size.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// CacheSize is the number of reports kept in the in-memory cache keyed
	// by document digest. Zero disables caching.
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`

	// RateLimit is the sustained request rate per second for upload
	// endpoints. Zero disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// RateBurst is the token bucket size.
	RateBurst int `json:"rate_burst" yaml:"rate_burst" mapstructure:"rate_burst"`

	// APIKey, when set, must be supplied in the X-API-Key header.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File, when set, receives a copy of every log line.
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// Config groups all settings for the engine, CLI, and server.
type Config struct {
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging" mapstructure:"logging"`
}
