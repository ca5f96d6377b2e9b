// Package gateway 将七个固定操作组装为 提示词 → 截图归一化 → Adapter 序列化 →
// 受保护执行 → 结构化解释 的纯组合，不在请求间保留任何可变状态。
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"uigate/internal/gateway/provider"
	"uigate/internal/logger"
	"uigate/internal/pkg/text"
	"uigate/internal/screenshot"
)

// ErrInvalidInput 标记入站参数问题，传输层应渲染为 4xx。
var ErrInvalidInput = errors.New("invalid input")

// CallRecord 是写入调用日志的单条记录。
type CallRecord struct {
	ID         string
	Operation  string
	Provider   string
	DurationMs int64
	Fallback   bool
	Error      string
	RawExcerpt string
}

// Recorder 持久化调用记录；nil 表示禁用。
type Recorder interface {
	Record(rec CallRecord)
}

// Gateway 暴露全部网关操作。除注入的依赖外无共享可变状态，
// 可被任意多个请求并发调用。
type Gateway struct {
	caller             provider.Caller
	providerName       string
	fallbackConfidence float64
	recorder           Recorder
}

func New(caller provider.Caller, providerName string, fallbackConfidence float64, recorder Recorder) *Gateway {
	return &Gateway{
		caller:             caller,
		providerName:       providerName,
		fallbackConfidence: fallbackConfidence,
		recorder:           recorder,
	}
}

// callOutcome 把一次出站调用的结果与耗时一起带给操作层，
// 便于解释完成后再落调用日志（兜底标记那时才知道）。
type callOutcome struct {
	res     provider.CallResult
	elapsed time.Duration
}

func (g *Gateway) call(ctx context.Context, operation string, req provider.CallRequest) (callOutcome, error) {
	start := time.Now()
	res, err := g.caller.Call(ctx, operation, req)
	out := callOutcome{res: res, elapsed: time.Since(start)}
	if err != nil {
		g.record(operation, out, err, false)
		return out, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// finish 在解释层得出结论后落日志：fallback 表示走了兜底路径。
func (g *Gateway) finish(operation string, out callOutcome, fallback bool) {
	if fallback {
		logger.Debugf("%s: strict parse failed, fallback result returned", operation)
	}
	g.record(operation, out, nil, fallback)
}

func (g *Gateway) record(operation string, out callOutcome, err error, fallback bool) {
	if g.recorder == nil {
		return
	}
	rec := CallRecord{
		ID:         uuid.NewString(),
		Operation:  operation,
		Provider:   g.providerName,
		DurationMs: out.elapsed.Milliseconds(),
		Fallback:   fallback,
		RawExcerpt: text.Truncate(out.res.Text, 2000),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	g.recorder.Record(rec)
}

// userBlocks 组装用户消息：文本在前，截图按序在后。
func userBlocks(userText string, shots ...screenshot.Screenshot) []provider.ContentBlock {
	blocks := make([]provider.ContentBlock, 0, len(shots)+1)
	if userText != "" {
		blocks = append(blocks, provider.TextBlock(userText))
	}
	for _, s := range shots {
		if len(s.Bytes) == 0 {
			continue
		}
		blocks = append(blocks, provider.ImageContent(s.Bytes, s.MIME))
	}
	return blocks
}

// normalizeOptional 解码可选截图；空串表示缺席，操作转纯文本。
func normalizeOptional(b64 string) []screenshot.Screenshot {
	if shot, ok := screenshot.FromBase64(b64); ok {
		return []screenshot.Screenshot{shot}
	}
	return nil
}

// normalizeRequired 解码必选截图。
func normalizeRequired(b64, field string) (screenshot.Screenshot, error) {
	shot, ok := screenshot.FromBase64(b64)
	if !ok {
		return screenshot.Screenshot{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return shot, nil
}

// DeepHealth 通过网关发出一次最小真实调用，错误分类与生产调用一致。
func (g *Gateway) DeepHealth(ctx context.Context) error {
	req := provider.CallRequest{
		Messages: []provider.Message{provider.UserMessage(provider.TextBlock("Reply with the single word OK."))},
	}
	out, err := g.call(ctx, "health", req)
	if err != nil {
		return err
	}
	g.finish("health", out, false)
	return nil
}
