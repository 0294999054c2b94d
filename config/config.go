package config

// Config represents the core Replenix configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Inference InferenceConfig `mapstructure:"inference"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
}

// ServerConfig configures the Replenix web server
type ServerConfig struct {
	Port           *int     `mapstructure:"port"`            // Server port: nil = default 8780, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"` // WebSocket origins allowed to connect
}

// Default server port (above privileged range, easy to type)
const DefaultServerPort = 8780

// PipelineConfig configures the replenishment pipeline orchestrator
type PipelineConfig struct {
	// EventBuffer is the capacity of the per-run event channel between the
	// orchestrator and the transport drain
	EventBuffer int `mapstructure:"event_buffer"`

	// RunTimeoutSeconds bounds a whole pipeline run; on expiry all
	// non-terminal groups are marked failed (default: 600)
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds"`

	// SafetyMargin is the fraction of lead-time demand added as buffer when
	// computing recommended order quantities (default: 0.2)
	SafetyMargin float64 `mapstructure:"safety_margin"`

	// Evaluation appends a post-generation quality-check stage to every
	// supplier group's task plan
	Evaluation bool `mapstructure:"evaluation"`
}

// InferenceConfig configures the content generation backend
// (Ollama, LocalAI, or any OpenAI-compatible endpoint)
type InferenceConfig struct {
	BaseURL        string   `mapstructure:"base_url"`        // e.g., "http://localhost:11434"
	APIKey         string   `mapstructure:"api_key"`         // Bearer token for hosted endpoints (env-only)
	Model          string   `mapstructure:"model"`           // e.g., "llama3.2:3b"
	Temperature    *float64 `mapstructure:"temperature"`     // Sampling temperature (nil = default 0.2)
	MaxTokens      *int     `mapstructure:"max_tokens"`      // Maximum tokens per request (nil = default 4096)
	TimeoutSeconds int      `mapstructure:"timeout_seconds"` // Request timeout in seconds
}

// RetrievalConfig configures the supplier/item history snippet store
type RetrievalConfig struct {
	HistoryDBPath string `mapstructure:"history_db_path"` // SQLite database holding history snippets
	MaxSnippets   int    `mapstructure:"max_snippets"`    // Snippets retrieved per supplier group (default: 5)
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
