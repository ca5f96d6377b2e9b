package config

import (
	"fmt"
	"strings"
)

func validate(cfg *Config) error {
	b := &cfg.Backend
	b.Provider = strings.ToLower(strings.TrimSpace(b.Provider))
	switch b.Provider {
	case ProviderAnthropic, ProviderZAI, ProviderOpenAI:
	case "":
		b.Provider = ProviderZAI
	default:
		return fmt.Errorf("unknown backend.provider %q (expected %s|%s|%s)",
			b.Provider, ProviderAnthropic, ProviderZAI, ProviderOpenAI)
	}
	if strings.TrimSpace(b.BaseURL) == "" {
		b.BaseURL = DefaultBaseURL(b.Provider)
	}
	if b.MaxTokens < 1 {
		return fmt.Errorf("backend.max_tokens must be positive, got %d", b.MaxTokens)
	}
	if b.Temperature < 0 || b.Temperature > 2 {
		return fmt.Errorf("backend.temperature must be within [0,2], got %v", b.Temperature)
	}
	if b.TimeoutSeconds < 1 {
		return fmt.Errorf("backend.timeout_seconds must be positive, got %d", b.TimeoutSeconds)
	}
	if b.MaxRetries < 1 {
		b.MaxRetries = 1
	}
	if b.FallbackConfidence <= 0 || b.FallbackConfidence >= 1 {
		return fmt.Errorf("backend.fallback_confidence must be within (0,1), got %v", b.FallbackConfidence)
	}

	l := &cfg.Limits
	if l.RateWindowSeconds < 1 {
		return fmt.Errorf("limits.rate_window_seconds must be positive, got %d", l.RateWindowSeconds)
	}
	if l.RateCap < 1 {
		return fmt.Errorf("limits.rate_cap must be positive, got %d", l.RateCap)
	}
	if l.BreakerThreshold < 1 {
		l.BreakerThreshold = 5
	}
	if l.BreakerCooldownS < 1 {
		l.BreakerCooldownS = 30
	}
	return nil
}

// HasAPIKey 报告后端密钥是否已配置；缺失时仅健康检查可用。
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Backend.APIKey) != ""
}
