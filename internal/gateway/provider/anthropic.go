package provider

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"uigate/internal/config"
)

const anthropicVersion = "2023-06-01"

// MessageAdapter 覆盖暴露 messages 接口的厂商家族（Anthropic、Z.ai GLM）。
// 请求体 {model, max_tokens, messages, stream, system?}，鉴权走
// x-api-key + anthropic-version 头，端点后缀 /v1/messages。
type MessageAdapter struct {
	name string
	cfg  config.BackendConfig
}

func NewMessageAdapter(name string, cfg config.BackendConfig) *MessageAdapter {
	return &MessageAdapter{name: name, cfg: cfg}
}

func (a *MessageAdapter) Name() string { return a.name }

func (a *MessageAdapter) Serialize(req CallRequest) (WireRequest, error) {
	model := a.cfg.Model
	if HasImages(req.Messages) && strings.TrimSpace(a.cfg.VisionModel) != "" {
		model = a.cfg.VisionModel
	}

	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{
			"role":    m.Role,
			"content": messageContent(m.Content),
		})
	}

	body := map[string]any{
		"model":       model,
		"max_tokens":  a.cfg.MaxTokens,
		"messages":    messages,
		"stream":      req.Stream,
		"temperature": a.cfg.Temperature,
	}
	if strings.TrimSpace(req.System) != "" {
		body["system"] = req.System
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return WireRequest{}, err
	}

	headers := map[string]string{
		"Content-Type":      "application/json",
		"anthropic-version": anthropicVersion,
	}
	if a.cfg.APIKey != "" {
		headers["x-api-key"] = a.cfg.APIKey
	}
	return WireRequest{
		URL:     joinEndpoint(a.cfg.BaseURL, "/v1/messages"),
		Headers: headers,
		Body:    raw,
	}, nil
}

func messageContent(blocks []ContentBlock) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		if b.IsImage() {
			out = append(out, map[string]any{
				"type": "image",
				"source": map[string]any{
					"type":       "base64",
					"media_type": b.Image.MIME,
					"data":       base64.StdEncoding.EncodeToString(b.Image.Data),
				},
			})
			continue
		}
		out = append(out, map[string]any{"type": "text", "text": b.Text})
	}
	return out
}

// ExtractText 按序拼接 type=="text" 的内容块，丢弃工具回显等其它块。
// 结构不符时返回空串。
func (a *MessageAdapter) ExtractText(body []byte) string {
	content := gjson.GetBytes(body, "content")
	if !content.IsArray() {
		return ""
	}
	var b strings.Builder
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			b.WriteString(block.Get("text").String())
		}
		return true
	})
	return b.String()
}

// joinEndpoint 规范化 BaseURL：去尾斜杠，若已写全后缀则去重后统一追加。
func joinEndpoint(base, suffix string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	base = strings.TrimSuffix(base, suffix)
	return base + suffix
}
