package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取配置：默认值 < 可选 YAML 文件 < UIGATE_* 环境变量。
// path 为空时只用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	applyDefaults(v)

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(underlying(err)) {
				return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("UIGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AutomaticEnv 对 Unmarshal 不生效，未显式 BindEnv 的键会被跳过。
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.http_addr",
		"app.log_level",
		"app.log_path",
		"app.llm_log_path",
		"app.llm_dump_payload",
		"backend.provider",
		"backend.api_key",
		"backend.base_url",
		"backend.model",
		"backend.vision_model",
		"backend.max_tokens",
		"backend.temperature",
		"backend.timeout_seconds",
		"backend.max_retries",
		"backend.fallback_confidence",
		"limits.rate_window_seconds",
		"limits.rate_cap",
		"limits.breaker_threshold",
		"limits.breaker_cooldown_seconds",
		"store.call_log_path",
	} {
		_ = v.BindEnv(key)
	}
}

func underlying(err error) error {
	type wrapper interface{ Unwrap() error }
	if w, ok := err.(wrapper); ok && w.Unwrap() != nil {
		return w.Unwrap()
	}
	return err
}
