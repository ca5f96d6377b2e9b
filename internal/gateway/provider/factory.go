package provider

import (
	"fmt"

	"uigate/internal/config"
)

// NewAdapter 按配置的 provider 判别符选择 wire 格式与 URL 构造。
func NewAdapter(cfg config.BackendConfig) (Adapter, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewMessageAdapter("anthropic", cfg), nil
	case config.ProviderZAI:
		return NewMessageAdapter("zai", cfg), nil
	case config.ProviderOpenAI:
		return NewChatAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
