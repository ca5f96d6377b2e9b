package provider

import (
	"context"
	"encoding/json"
)

// ContentBlock 是消息内容的标签联合：文本或图片，二选一。
type ContentBlock struct {
	Text  string
	Image *ImageBlock
}

// ImageBlock 携带归一化后的图片字节与 MIME 类型。
type ImageBlock struct {
	Data []byte
	MIME string
}

func TextBlock(s string) ContentBlock {
	return ContentBlock{Text: s}
}

func ImageContent(data []byte, mime string) ContentBlock {
	return ContentBlock{Image: &ImageBlock{Data: data, MIME: mime}}
}

// IsImage 报告该块是否为图片。
func (b ContentBlock) IsImage() bool { return b.Image != nil }

// Message 是一条有序内容块构成的消息。
type Message struct {
	Role    string
	Content []ContentBlock
}

func UserMessage(blocks ...ContentBlock) Message {
	return Message{Role: "user", Content: blocks}
}

// HasImages 报告消息序列中是否存在图片块（决定视觉模型选择）。
func HasImages(messages []Message) bool {
	for _, m := range messages {
		for _, b := range m.Content {
			if b.IsImage() {
				return true
			}
		}
	}
	return false
}

// CallRequest 是一次出站调用的统一内部形态，构造后不再修改。
// System 至多一个，由 Adapter 决定放顶层字段还是首条 system 消息。
type CallRequest struct {
	Messages []Message
	System   string
	Stream   bool
}

// CallResult 是归一化后的回复：Raw 保留 provider 原始应答，
// Text 为各内容块按序拼接的纯文本，永不为 nil（无内容时为空串）。
type CallResult struct {
	Raw  json.RawMessage
	Text string
}

// WireRequest 是 Adapter 序列化产物：完整 URL、请求头与请求体。
type WireRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Adapter 负责统一形态与 provider wire 格式间的双向转换。
// 任何操作都不得绕过 Adapter 直连后端。
type Adapter interface {
	Name() string
	Serialize(req CallRequest) (WireRequest, error)
	// ExtractText 从应答体提取纯文本；结构不符时返回空串而非报错，
	// 调用方将空文本视作"无可用回答"走兜底策略。
	ExtractText(body []byte) string
}

// Caller 是操作层看到的后端入口（Executor 实现）。
type Caller interface {
	Call(ctx context.Context, operation string, req CallRequest) (CallResult, error)
}
