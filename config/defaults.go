package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8780"})

	// Pipeline defaults
	v.SetDefault("pipeline.event_buffer", 64)
	v.SetDefault("pipeline.run_timeout_seconds", 600)
	v.SetDefault("pipeline.safety_margin", 0.2) // 20% over lead-time demand
	v.SetDefault("pipeline.evaluation", false)

	// Inference defaults (Ollama-compatible local endpoint)
	v.SetDefault("inference.base_url", "http://localhost:11434")
	v.SetDefault("inference.model", "llama3.2:3b")
	v.SetDefault("inference.temperature", 0.2) // Deterministic
	v.SetDefault("inference.max_tokens", 4096)
	v.SetDefault("inference.timeout_seconds", 300)

	// Retrieval defaults
	v.SetDefault("retrieval.history_db_path", "replenix-history.db")
	v.SetDefault("retrieval.max_snippets", 5)
}

// BindSensitiveEnvVars binds configuration values that should come from the
// environment rather than config files
func BindSensitiveEnvVars(v *viper.Viper) {
	// Inference API keys are environment-only so they never land in a
	// committed config file
	v.BindEnv("inference.api_key", "REPLENIX_INFERENCE_API_KEY")
}
