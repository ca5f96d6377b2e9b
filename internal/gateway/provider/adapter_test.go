package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"uigate/internal/config"
)

func TestMessageAdapterSerialize(t *testing.T) {
	cfg := testBackend()
	adapter := NewMessageAdapter("anthropic", cfg)

	t.Run("text only request", func(t *testing.T) {
		wire, err := adapter.Serialize(CallRequest{
			System:   "you are a ui verifier",
			Messages: []Message{UserMessage(TextBlock("is the dialog open"))},
		})
		require.NoError(t, err)

		assert.Equal(t, "https://backend.test/v1/messages", wire.URL)
		assert.Equal(t, "test-key", wire.Headers["x-api-key"])
		assert.Equal(t, "2023-06-01", wire.Headers["anthropic-version"])

		body := gjson.ParseBytes(wire.Body)
		assert.Equal(t, "glm-4.5", body.Get("model").String())
		assert.Equal(t, int64(2000), body.Get("max_tokens").Int())
		assert.Equal(t, "you are a ui verifier", body.Get("system").String())
		assert.False(t, body.Get("stream").Bool())
		assert.Equal(t, "text", body.Get("messages.0.content.0.type").String())
		assert.Equal(t, "is the dialog open", body.Get("messages.0.content.0.text").String())
	})

	t.Run("image switches to vision model", func(t *testing.T) {
		wire, err := adapter.Serialize(CallRequest{
			Messages: []Message{UserMessage(
				TextBlock("locate the button"),
				ImageContent([]byte{0xff, 0xd8, 0xff}, "image/jpeg"),
			)},
		})
		require.NoError(t, err)

		body := gjson.ParseBytes(wire.Body)
		assert.Equal(t, "glm-4.5v", body.Get("model").String())
		assert.Equal(t, "image", body.Get("messages.0.content.1.type").String())
		assert.Equal(t, "base64", body.Get("messages.0.content.1.source.type").String())
		assert.Equal(t, "image/jpeg", body.Get("messages.0.content.1.source.media_type").String())
		assert.NotEmpty(t, body.Get("messages.0.content.1.source.data").String())
		// 顶层不得出现 system 字段
		assert.False(t, body.Get("system").Exists())
	})

	t.Run("base url normalization", func(t *testing.T) {
		for _, base := range []string{
			"https://backend.test",
			"https://backend.test/",
			"https://backend.test/v1/messages",
		} {
			c := cfg
			c.BaseURL = base
			wire, err := NewMessageAdapter("anthropic", c).Serialize(simpleRequest())
			require.NoError(t, err)
			assert.Equal(t, "https://backend.test/v1/messages", wire.URL, "base %q", base)
		}
	})
}

func TestMessageAdapterExtractText(t *testing.T) {
	adapter := NewMessageAdapter("anthropic", testBackend())

	t.Run("joins text blocks in order", func(t *testing.T) {
		body := `{"content": [{"type": "text", "text": "first "}, {"type": "tool_use", "id": "x"}, {"type": "text", "text": "second"}]}`
		assert.Equal(t, "first second", adapter.ExtractText([]byte(body)))
	})

	t.Run("malformed body yields empty string", func(t *testing.T) {
		assert.Empty(t, adapter.ExtractText([]byte(`{"content": "oops"}`)))
		assert.Empty(t, adapter.ExtractText([]byte(`not json`)))
	})
}

func TestChatAdapterSerialize(t *testing.T) {
	cfg := testBackend()
	cfg.Provider = config.ProviderOpenAI
	cfg.BaseURL = "https://api.openai.test/v1"
	adapter := NewChatAdapter(cfg)

	t.Run("system becomes first message", func(t *testing.T) {
		wire, err := adapter.Serialize(CallRequest{
			System:   "you are a ui verifier",
			Messages: []Message{UserMessage(TextBlock("is the dialog open"))},
		})
		require.NoError(t, err)

		assert.Equal(t, "https://api.openai.test/v1/chat/completions", wire.URL)
		assert.Equal(t, "Bearer test-key", wire.Headers["Authorization"])

		body := gjson.ParseBytes(wire.Body)
		assert.Equal(t, "system", body.Get("messages.0.role").String())
		assert.Equal(t, "you are a ui verifier", body.Get("messages.0.content").String())
		assert.Equal(t, "user", body.Get("messages.1.role").String())
		// 纯文本提问保持字符串形态
		assert.Equal(t, gjson.String, body.Get("messages.1.content").Type)
	})

	t.Run("image content becomes data uri parts", func(t *testing.T) {
		wire, err := adapter.Serialize(CallRequest{
			Messages: []Message{UserMessage(
				TextBlock("locate the button"),
				ImageContent([]byte{0x89, 0x50}, "image/png"),
			)},
		})
		require.NoError(t, err)

		body := gjson.ParseBytes(wire.Body)
		assert.Equal(t, "glm-4.5v", body.Get("model").String())
		content := body.Get("messages.0.content")
		require.True(t, content.IsArray())
		assert.Equal(t, "text", content.Get("0.type").String())
		assert.Equal(t, "image_url", content.Get("1.type").String())
		assert.Contains(t, content.Get("1.image_url.url").String(), "data:image/png;base64,")
	})
}

func TestChatAdapterExtractText(t *testing.T) {
	adapter := NewChatAdapter(testBackend())
	assert.Equal(t, "hello",
		adapter.ExtractText([]byte(`{"choices": [{"message": {"content": "hello"}}]}`)))
	assert.Empty(t, adapter.ExtractText([]byte(`{"choices": []}`)))
	assert.Empty(t, adapter.ExtractText([]byte(`garbage`)))
}

func TestNewAdapter(t *testing.T) {
	cfg := testBackend()
	for provider, want := range map[string]string{
		config.ProviderAnthropic: "anthropic",
		config.ProviderZAI:       "zai",
		config.ProviderOpenAI:    "openai",
	} {
		cfg.Provider = provider
		adapter, err := NewAdapter(cfg)
		require.NoError(t, err)
		assert.Equal(t, want, adapter.Name())
	}

	cfg.Provider = "mystery"
	_, err := NewAdapter(cfg)
	assert.Error(t, err)
}
