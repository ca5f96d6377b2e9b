package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"uigate/internal/config"
	"uigate/internal/logger"
	"uigate/internal/pkg/circuit"
)

// 指数退避参数：delay = min(base·2^(attempt-1), cap)。
const (
	backoffBase = 1000 * time.Millisecond
	backoffCap  = 10 * time.Second
)

// RetryState 只在一次 Call 的生命周期内存在。
type RetryState struct {
	Attempt     int
	MaxAttempts int
	LastErr     *ClassifiedError
}

// SleepFunc 等待指定时长，ctx 取消时提前返回其错误。测试注入假时钟。
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Executor 在单次出站调用外围实施超时、重试与熔断。
// 同一次调用的各 attempt 严格串行，绝不并行打后端。
type Executor struct {
	adapter Adapter
	client  *http.Client
	breaker *circuit.Breaker

	maxAttempts int
	hasAPIKey   bool
	sleep       SleepFunc
}

// ExecutorOption 调整 Executor 的可注入点。
type ExecutorOption func(*Executor)

// WithSleep 替换退避等待实现，测试用。
func WithSleep(s SleepFunc) ExecutorOption {
	return func(e *Executor) { e.sleep = s }
}

// WithHTTPClient 替换出站 HTTP 客户端，测试注入 stub RoundTripper。
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = c }
}

func NewExecutor(cfg config.BackendConfig, adapter Adapter, breaker *circuit.Breaker, opts ...ExecutorOption) *Executor {
	e := &Executor{
		adapter:     adapter,
		client:      &http.Client{Timeout: cfg.Timeout()},
		breaker:     breaker,
		maxAttempts: cfg.MaxRetries,
		hasAPIKey:   cfg.APIKey != "",
		sleep:       defaultSleep,
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = 1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backoff 返回第 attempt 次失败后的等待时长（attempt 从 1 计）。
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase << (attempt - 1)
	if d > backoffCap || d <= 0 {
		d = backoffCap
	}
	return d
}

// Call 执行一次受保护的出站调用并把应答归一化为 CallResult。
// 只有 Transport 类错误会从这里冒出，且一定是 *ClassifiedError。
func (e *Executor) Call(ctx context.Context, operation string, req CallRequest) (CallResult, error) {
	if !e.hasAPIKey {
		return CallResult{}, ErrMissingAPIKey
	}

	wire, err := e.adapter.Serialize(req)
	if err != nil {
		return CallResult{}, &ClassifiedError{Cause: CauseConfig, Err: err, Detail: "request serialization failed: " + err.Error()}
	}
	e.logRequest(operation, req, wire)

	state := RetryState{MaxAttempts: e.maxAttempts}
	for state.Attempt = 1; state.Attempt <= state.MaxAttempts; state.Attempt++ {
		if err := ctx.Err(); err != nil {
			return CallResult{}, canceledError(err)
		}
		if e.breaker != nil && !e.breaker.Allow() {
			return CallResult{}, breakerOpenError(e.adapter.Name())
		}

		result, cerr := e.attempt(ctx, wire)
		if cerr == nil {
			if e.breaker != nil {
				e.breaker.Success()
			}
			logger.LogLLMResponse(operation, e.adapter.Name(), result.Text)
			return result, nil
		}

		if e.breaker != nil {
			e.breaker.Failure()
		}
		state.LastErr = cerr
		logger.Warnf("call %s via %s attempt %d/%d failed: %v",
			operation, e.adapter.Name(), state.Attempt, state.MaxAttempts, cerr)

		if !cerr.Retryable || state.Attempt == state.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, Backoff(state.Attempt)); err != nil {
			return CallResult{}, canceledError(err)
		}
	}
	return CallResult{}, state.LastErr
}

func (e *Executor) attempt(ctx context.Context, wire WireRequest) (CallResult, *ClassifiedError) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, wire.URL, bytes.NewReader(wire.Body))
	if err != nil {
		return CallResult{}, &ClassifiedError{Cause: CauseConfig, Err: err, Detail: err.Error()}
	}
	for k, v := range wire.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return CallResult{}, classifyNetErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CallResult{}, classifyNetErr(err)
	}
	if resp.StatusCode/100 != 2 {
		return CallResult{}, classifyStatus(resp.StatusCode, upstreamDetail(body, resp.Status))
	}
	return CallResult{Raw: body, Text: e.adapter.ExtractText(body)}, nil
}

// upstreamDetail 尽量取出错误信封里的 message，两个厂商家族同形。
func upstreamDetail(body []byte, fallback string) string {
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return msg
	}
	return fallback
}

func (e *Executor) logRequest(operation string, req CallRequest, wire WireRequest) {
	images := 0
	for _, m := range req.Messages {
		for _, b := range m.Content {
			if b.IsImage() {
				images++
			}
		}
	}
	user := ""
	if len(req.Messages) > 0 {
		for _, b := range req.Messages[len(req.Messages)-1].Content {
			if !b.IsImage() {
				user += b.Text
			}
		}
	}
	logger.LogLLMRequest(operation, e.adapter.Name(), req.System, user, images, string(wire.Body))
}
