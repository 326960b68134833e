package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "convert-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OCRConfig holds settings for the remote OCR stage.
type OCRConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the remote OCR service root (default "https://api.mistral.ai").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the OCR model identifier (default "mistral-ocr-latest").
	Model string `json:"model" yaml:"model"`

	// Language is an optional hint passed to the OCR endpoint.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// APIKey authenticates against the OCR service. Usually supplied
	// per-request instead.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts on rate limiting (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ConversionConfig holds settings for the conversion pipeline.
type ConversionConfig struct {
	// OutputDir is where converted Markdown documents are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DataDir is the base directory for engine state (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// UseOCR enables remote OCR for image-heavy PDFs by default.
	UseOCR bool `json:"use_ocr" yaml:"use_ocr"`

	// Isolate runs conversions in a worker subprocess.
	Isolate bool `json:"isolate" yaml:"isolate"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins lists CORS origins permitted to call the API.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// MaxUploadBytes bounds multipart upload size (default 50 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// EngineConfig groups all stage configurations for the engine.
type EngineConfig struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http"`
	OCR        OCRConfig        `json:"ocr" yaml:"ocr"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}
