package config

import "github.com/spf13/viper"

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.http_addr", ":8000")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")
	v.SetDefault("app.llm_log_path", "")
	v.SetDefault("app.llm_dump_payload", false)

	v.SetDefault("backend.provider", ProviderZAI)
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.model", "glm-4.5")
	v.SetDefault("backend.vision_model", "glm-4.5v")
	v.SetDefault("backend.max_tokens", 2000)
	v.SetDefault("backend.temperature", 0.7)
	v.SetDefault("backend.timeout_seconds", 60)
	v.SetDefault("backend.max_retries", 3)
	v.SetDefault("backend.fallback_confidence", 0.75)

	v.SetDefault("limits.rate_window_seconds", 60)
	v.SetDefault("limits.rate_cap", 60)
	v.SetDefault("limits.breaker_threshold", 5)
	v.SetDefault("limits.breaker_cooldown_seconds", 30)

	v.SetDefault("store.call_log_path", "")
}

// DefaultBaseURL 返回 provider 对应的默认接入点。
func DefaultBaseURL(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "https://api.anthropic.com"
	case ProviderZAI:
		return "https://api.z.ai/v1"
	default:
		return "https://api.openai.com/v1"
	}
}
