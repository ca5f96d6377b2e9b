package jsonutil

import "strings"

const codeFence = "```"

// ExtractObject 从原始模型输出里定位首个完整 JSON 对象。
func ExtractObject(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := fenceBody(raw, "json"); ok {
		if obj, ok := scanBalanced(block, '{', '}'); ok {
			return obj, true
		}
	}
	return scanBalanced(raw, '{', '}')
}

// ExtractArray 从原始模型输出里定位首个完整 JSON 数组。
func ExtractArray(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if block, ok := fenceBody(raw, "json"); ok {
		if arr, ok := scanBalanced(block, '[', ']'); ok {
			return arr, true
		}
	}
	return scanBalanced(raw, '[', ']')
}

// ExtractFence 返回首个 ``` 围栏内容；lang 非空时要求语言标签匹配
// （无标签的围栏也接受）。
func ExtractFence(raw, lang string) (string, bool) {
	rest := raw
	for {
		start := strings.Index(rest, codeFence)
		if start == -1 {
			return "", false
		}
		rest = rest[start+len(codeFence):]
		end := strings.Index(rest, codeFence)
		if end == -1 {
			return "", false
		}
		block := rest[:end]
		rest = rest[end+len(codeFence):]

		tag := ""
		body := block
		if idx := strings.IndexAny(block, "\r\n"); idx != -1 {
			tag = strings.TrimSpace(block[:idx])
			body = block[idx:]
		}
		if lang == "" || tag == "" || strings.EqualFold(tag, lang) {
			body = strings.TrimSpace(body)
			if body != "" {
				return body, true
			}
		}
	}
}

func fenceBody(raw, lang string) (string, bool) {
	return ExtractFence(raw, lang)
}

// scanBalanced 按括号配对截取片段，字符串字面量内的括号不计数。
func scanBalanced(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return strings.TrimSpace(raw[start : i+1]), true
			}
		}
	}
	return "", false
}
