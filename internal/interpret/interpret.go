// Package interpret 把模型原始文本解析为各操作的结构化结果。
// 严格解析失败时按操作类型走既定兜底策略，调用方永远拿到可用结果；
// 兜底置信度必须低于模型自报置信度，下游据此区分"模型说的"与"猜的"。
package interpret

import (
	"strings"

	"github.com/tidwall/gjson"

	"uigate/internal/pkg/jsonutil"
)

// parsedConfidenceDefault 用于模型给出合法 JSON 但缺 confidence 字段的情形。
const parsedConfidenceDefault = 0.9

// CheckResult 承载断言检查与任务前后校验的判定。
type CheckResult struct {
	Passed     bool    `json:"passed"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	// Fallback 标记该结果出自兜底路径而非严格解析。
	Fallback bool `json:"fallback,omitempty"`
}

// Match 是 image-locate 的单个候选命中。
type Match struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Confidence float64 `json:"confidence"`
}

// LocateResult 承载文本/图片定位。兜底时绝不猜坐标：Found=false。
type LocateResult struct {
	Found      bool    `json:"found"`
	X          int     `json:"x,omitempty"`
	Y          int     `json:"y,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Matches    []Match `json:"matches,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Fallback   bool    `json:"fallback,omitempty"`
}

// ScenarioResult 承载场景生成列表。
type ScenarioResult struct {
	Scenarios []string `json:"scenarios"`
	Fallback  bool     `json:"fallback,omitempty"`
}

// affirmative 判定兜底路径的肯定语义。
var affirmativeTokens = []string{"pass", "true", "success"}

func affirmative(raw string) bool {
	lower := strings.ToLower(raw)
	for _, tok := range affirmativeTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// Check 解析 pass/fail 类输出。严格路径要求 JSON 对象带
// passed/success 布尔；否则对原文做大小写不敏感的肯定词扫描。
func Check(raw string, fallbackConfidence float64) CheckResult {
	if obj, ok := jsonutil.ExtractObject(raw); ok && gjson.Valid(obj) {
		parsed := gjson.Parse(obj)
		passed := parsed.Get("passed")
		if !passed.Exists() {
			passed = parsed.Get("success")
		}
		if passed.Exists() {
			return CheckResult{
				Passed:     passed.Bool(),
				Reason:     firstString(parsed, "reason", "explanation", "message"),
				Confidence: confidenceOf(parsed),
			}
		}
	}
	return CheckResult{
		Passed:     affirmative(raw),
		Reason:     strings.TrimSpace(raw),
		Confidence: fallbackConfidence,
		Fallback:   true,
	}
}

// Locate 解析坐标定位输出。兜底路径报告未找到并保留原文。
func Locate(raw string) LocateResult {
	if obj, ok := jsonutil.ExtractObject(raw); ok && gjson.Valid(obj) {
		parsed := gjson.Parse(obj)
		if found := parsed.Get("found"); found.Exists() {
			res := LocateResult{
				Found:      found.Bool(),
				Confidence: parsed.Get("confidence").Float(),
				Reason:     firstString(parsed, "reason", "message"),
			}
			if res.Found {
				res.X = int(parsed.Get("x").Int())
				res.Y = int(parsed.Get("y").Int())
			}
			if matches := parsed.Get("matches"); matches.IsArray() {
				matches.ForEach(func(_, m gjson.Result) bool {
					res.Matches = append(res.Matches, Match{
						X:          int(m.Get("x").Int()),
						Y:          int(m.Get("y").Int()),
						Confidence: m.Get("confidence").Float(),
					})
					return true
				})
			}
			return res
		}
	}
	return LocateResult{
		Found:    false,
		Reason:   strings.TrimSpace(raw),
		Fallback: true,
	}
}

// Scenarios 解析列表类输出：接受裸数组或 {"scenarios":[...]}，
// 数组元素为对象时保留其原始 JSON 文本。兜底把原文包成单元素列表。
func Scenarios(raw string) ScenarioResult {
	if arr, ok := scenarioArray(raw); ok {
		items := make([]string, 0, len(arr))
		for _, item := range arr {
			if item.Type == gjson.String {
				items = append(items, item.String())
			} else {
				items = append(items, item.Raw)
			}
		}
		if len(items) > 0 {
			return ScenarioResult{Scenarios: items}
		}
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ScenarioResult{Scenarios: []string{}, Fallback: true}
	}
	return ScenarioResult{Scenarios: []string{trimmed}, Fallback: true}
}

func scenarioArray(raw string) ([]gjson.Result, bool) {
	if arr, ok := jsonutil.ExtractArray(raw); ok && gjson.Valid(arr) {
		parsed := gjson.Parse(arr)
		if parsed.IsArray() {
			return parsed.Array(), true
		}
	}
	if obj, ok := jsonutil.ExtractObject(raw); ok && gjson.Valid(obj) {
		if scenarios := gjson.Parse(obj).Get("scenarios"); scenarios.IsArray() {
			return scenarios.Array(), true
		}
	}
	return nil, false
}

// Commands 提取指令转换输出中的命令块：优先 yaml 围栏，
// 其次任意围栏，最后原文整体返回。
func Commands(raw string) (string, bool) {
	if body, ok := jsonutil.ExtractFence(raw, "yaml"); ok {
		return body, true
	}
	if body, ok := jsonutil.ExtractFence(raw, ""); ok {
		return body, true
	}
	return strings.TrimSpace(raw), false
}

func confidenceOf(parsed gjson.Result) float64 {
	if c := parsed.Get("confidence"); c.Exists() {
		return c.Float()
	}
	return parsedConfidenceDefault
}

func firstString(parsed gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := parsed.Get(key); v.Exists() {
			return v.String()
		}
	}
	return ""
}
