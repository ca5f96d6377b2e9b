package config

import "time"

// Provider 取值（决定 wire 格式与 URL 构造）。
const (
	ProviderAnthropic = "anthropic"
	ProviderZAI       = "zai"
	ProviderOpenAI    = "openai"
)

// Config 是 uigate 的主配置载体，进程启动时加载一次，之后只读。
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Backend BackendConfig `mapstructure:"backend"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Store   StoreConfig   `mapstructure:"store"`
}

type AppConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
	LLMDump  bool   `mapstructure:"llm_dump_payload"`
}

// BackendConfig 描述出站模型后端的访问方式。
type BackendConfig struct {
	Provider       string  `mapstructure:"provider"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	VisionModel    string  `mapstructure:"vision_model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	// FallbackConfidence 用于未能严格解析时的兜底置信度，必须低于模型自报值。
	FallbackConfidence float64 `mapstructure:"fallback_confidence"`
}

// LimitsConfig 控制入站限流与熔断。
type LimitsConfig struct {
	RateWindowSeconds int `mapstructure:"rate_window_seconds"`
	RateCap           int `mapstructure:"rate_cap"`
	BreakerThreshold  int `mapstructure:"breaker_threshold"`
	BreakerCooldownS  int `mapstructure:"breaker_cooldown_seconds"`
}

type StoreConfig struct {
	CallLogPath string `mapstructure:"call_log_path"`
}

func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

func (l LimitsConfig) RateWindow() time.Duration {
	return time.Duration(l.RateWindowSeconds) * time.Second
}

func (l LimitsConfig) BreakerCooldown() time.Duration {
	return time.Duration(l.BreakerCooldownS) * time.Second
}
