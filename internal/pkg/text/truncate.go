package text

// Truncate 截断超长字符串并附省略号，用于日志与持久化的原始回复。
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
