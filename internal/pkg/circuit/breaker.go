package circuit

import (
	"sync"
	"time"

	"uigate/internal/logger"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker 保护出站后端：连续失败达到阈值后在冷却期内直接拒绝，
// 冷却结束放行一次探测请求（半开）。
type Breaker struct {
	mu       sync.Mutex
	name     string
	state    State
	failures int

	threshold int
	cooldown  time.Duration
	lastFail  time.Time

	// now 可注入，便于测试推进时间。
	now func() time.Time
}

func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     Closed,
		now:       time.Now,
	}
}

// SetClock 替换时间源，仅测试使用。
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}

// Allow 报告当前是否允许发起调用。
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if b.now().Sub(b.lastFail) > b.cooldown {
			b.shift(HalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// Success 记录一次成功调用。
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen || b.state == Closed {
		b.failures = 0
	}
	if b.state == HalfOpen {
		b.shift(Closed)
	}
}

// Failure 记录一次失败调用。
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFail = b.now()
	switch b.state {
	case Closed:
		if b.failures >= b.threshold {
			b.shift(Open)
		}
	case HalfOpen:
		b.shift(Open)
	}
}

// State 返回当前状态。
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) shift(to State) {
	from := b.state
	b.state = to
	logger.Warnf("breaker %s: %s -> %s (failures=%d/%d cooldown=%s)",
		b.name, from, to, b.failures, b.threshold, b.cooldown)
}
