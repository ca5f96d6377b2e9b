package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Cause 标识分类后的失败原因，每类对应一条可操作的提示语。
type Cause string

const (
	CauseAuth        Cause = "auth"
	CauseRateLimit   Cause = "rate_limit"
	CauseTimeout     Cause = "timeout"
	CauseUnreachable Cause = "unreachable"
	CauseCanceled    Cause = "canceled"
	CauseBreakerOpen Cause = "breaker_open"
	CauseConfig      Cause = "config"
	CauseUpstream    Cause = "upstream"
)

// ClassifiedError 是网关对外的唯一错误出口形态：
// Retryable 决定重试策略，Cause 决定给人看的提示语。
type ClassifiedError struct {
	Cause      Cause
	StatusCode int
	Retryable  bool
	Detail     string
	Err        error
}

func (e *ClassifiedError) Error() string {
	msg := e.actionable()
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	return msg
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

func (e *ClassifiedError) actionable() string {
	switch e.Cause {
	case CauseAuth:
		return "authentication failed, check the configured API key"
	case CauseRateLimit:
		return "backend rate limit exceeded, retry later"
	case CauseTimeout:
		return "backend too slow, request timed out"
	case CauseUnreachable:
		return "backend unreachable, check the configured base URL"
	case CauseCanceled:
		return "request timed out or was canceled"
	case CauseBreakerOpen:
		return "backend temporarily disabled after repeated failures"
	case CauseConfig:
		return "gateway misconfigured"
	default:
		return "upstream call failed"
	}
}

// ErrMissingAPIKey 缺失密钥：任何触达后端的操作都立即失败。
var ErrMissingAPIKey = &ClassifiedError{
	Cause:  CauseConfig,
	Detail: "api key is not configured",
}

func breakerOpenError(name string) *ClassifiedError {
	return &ClassifiedError{Cause: CauseBreakerOpen, Detail: fmt.Sprintf("circuit breaker %s is open", name)}
}

func canceledError(err error) *ClassifiedError {
	return &ClassifiedError{Cause: CauseCanceled, Err: err, Detail: err.Error()}
}

// classifyStatus 按 HTTP 状态码分类；重试预算只对 429/500/502/503 生效。
func classifyStatus(status int, detail string) *ClassifiedError {
	ce := &ClassifiedError{StatusCode: status, Detail: detail}
	switch status {
	case 401:
		ce.Cause = CauseAuth
	case 429:
		ce.Cause = CauseRateLimit
		ce.Retryable = true
	case 500, 502, 503:
		ce.Cause = CauseUpstream
		ce.Retryable = true
	default:
		ce.Cause = CauseUpstream
	}
	if ce.Detail == "" {
		ce.Detail = fmt.Sprintf("status %d", status)
	}
	return ce
}

// classifyNetErr 分类传输层错误：连接重置与超时可重试，
// 连接拒绝/DNS 失败视为配置问题立即失败。
func classifyNetErr(err error) *ClassifiedError {
	ce := &ClassifiedError{Err: err, Detail: err.Error()}

	if errors.Is(err, context.Canceled) {
		ce.Cause = CauseCanceled
		return ce
	}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		ce.Cause = CauseTimeout
		ce.Retryable = true
		return ce
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		ce.Cause = CauseTimeout
		ce.Retryable = true
		return ce
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		ce.Cause = CauseUpstream
		ce.Retryable = true
		return ce
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		ce.Cause = CauseUnreachable
		return ce
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		ce.Cause = CauseUnreachable
		return ce
	}
	// 单次 attempt 的超时可重试；整体截止由调用方在循环顶部识别。
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) || strings.Contains(err.Error(), "timeout") {
		ce.Cause = CauseTimeout
		ce.Retryable = true
		return ce
	}
	ce.Cause = CauseUpstream
	return ce
}

// AsClassified 取出错误链上的 ClassifiedError；没有则包一层 upstream。
func AsClassified(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClassifiedError{Cause: CauseUpstream, Err: err, Detail: err.Error()}
}
