package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

var (
	llmMu      sync.Mutex
	llmLog     *log.Logger
	llmPayload bool
)

// SetLLMWriter 设置 LLM 交互日志的输出目标；传 nil 关闭。
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

// EnableLLMPayloadDump 控制是否把完整请求体写入 LLM 日志。
func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmPayload = enabled
	llmMu.Unlock()
}

type section struct {
	title string
	body  string
}

func emit(tags []string, sections []section) {
	llmMu.Lock()
	l := llmLog
	llmMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM]")
	for _, t := range tags {
		if t == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(t)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, s := range sections {
		title := strings.TrimSpace(s.title)
		if title == "" {
			title = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(title)
		b.WriteString(" ---\n")
		b.WriteString(s.body)
		if !strings.HasSuffix(s.body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogLLMRequest 记录一次出站调用：操作名、provider、提示词与图片数量。
func LogLLMRequest(operation, provider, system, user string, imageCount int, payload string) {
	sections := []section{
		{title: "SYSTEM", body: system},
		{title: "USER", body: user},
	}
	if imageCount > 0 {
		sections = append(sections, section{title: "IMAGES", body: fmt.Sprintf("%d attached", imageCount)})
	}
	if llmPayload && strings.TrimSpace(payload) != "" {
		sections = append(sections, section{title: "PAYLOAD", body: payload})
	}
	emit([]string{"request", provider, operation}, sections)
}

// LogLLMResponse 记录模型原始回复。
func LogLLMResponse(operation, provider, raw string) {
	emit([]string{"response", provider, operation}, []section{{title: "RAW", body: raw}})
}
