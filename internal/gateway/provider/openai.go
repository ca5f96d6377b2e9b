package provider

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"uigate/internal/config"
)

// ChatAdapter 兼容 OpenAI /chat/completions 家族，也是未知厂商的默认形态。
// system 提示不走顶层字段，注入为首条 role=system 消息；鉴权 Bearer。
type ChatAdapter struct {
	cfg config.BackendConfig
}

func NewChatAdapter(cfg config.BackendConfig) *ChatAdapter {
	return &ChatAdapter{cfg: cfg}
}

func (a *ChatAdapter) Name() string { return "openai" }

func (a *ChatAdapter) Serialize(req CallRequest) (WireRequest, error) {
	model := a.cfg.Model
	if HasImages(req.Messages) && strings.TrimSpace(a.cfg.VisionModel) != "" {
		model = a.cfg.VisionModel
	}

	messages := make([]map[string]any, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, map[string]any{
			"role":    m.Role,
			"content": chatContent(m.Content),
		})
	}

	body := map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  a.cfg.MaxTokens,
		"temperature": a.cfg.Temperature,
		"stream":      req.Stream,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return WireRequest{}, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if a.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + a.cfg.APIKey
	}
	return WireRequest{
		URL:     joinEndpoint(a.cfg.BaseURL, "/chat/completions"),
		Headers: headers,
		Body:    raw,
	}, nil
}

// chatContent 纯文本消息保持字符串形态，带图时转多段 content。
func chatContent(blocks []ContentBlock) any {
	hasImage := false
	for _, b := range blocks {
		if b.IsImage() {
			hasImage = true
			break
		}
	}
	if !hasImage {
		var b strings.Builder
		for _, blk := range blocks {
			b.WriteString(blk.Text)
		}
		return b.String()
	}
	out := make([]map[string]any, 0, len(blocks))
	for _, blk := range blocks {
		if blk.IsImage() {
			uri := "data:" + blk.Image.MIME + ";base64," + base64.StdEncoding.EncodeToString(blk.Image.Data)
			out = append(out, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": uri},
			})
			continue
		}
		out = append(out, map[string]any{"type": "text", "text": blk.Text})
	}
	return out
}

// ExtractText 取第一个 choice 的 message.content；缺字段返回空串。
func (a *ChatAdapter) ExtractText(body []byte) string {
	return gjson.GetBytes(body, "choices.0.message.content").String()
}
