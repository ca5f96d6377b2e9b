// Package prompt 保存各网关操作的系统提示词模板。
// 模板固定，调用方字段（指令、报错文本、断言等）在组装时填入。
package prompt

import (
	"fmt"
	"strings"
)

const commandReference = `Available commands (one per list item, YAML):
- command: navigate
  url: <absolute url>
- command: click
  x: <int>
  y: <int>
- command: hover-text
  text: <visible text to hover>
- command: type
  text: <text to type into the focused element>
- command: press-keys
  keys: [<key>, ...]
- command: scroll
  direction: up|down|left|right
  amount: <pixels>
- command: wait
  timeout: <milliseconds>
- command: assert
  expect: <condition that should be visible on screen>`

// Commands 指令转命令：要求输出 yaml 围栏内的命令列表。
func Commands(instruction, context string) string {
	var b strings.Builder
	b.WriteString("You are a UI test automation expert. ")
	b.WriteString("Convert the user's instruction into executable test commands based on the current screenshot.\n\n")
	b.WriteString(commandReference)
	b.WriteString("\n\nRespond with a single fenced ```yaml block containing a `commands` list and nothing else. ")
	b.WriteString("Use coordinates only when no text anchor is available.\n\n")
	fmt.Fprintf(&b, "Instruction: %s\n", instruction)
	if strings.TrimSpace(context) != "" {
		fmt.Fprintf(&b, "Context: %s\n", context)
	}
	return b.String()
}

// Recovery 错误恢复：给出上一步失败后的补救建议。
func Recovery(errText, priorCommands string) string {
	var b strings.Builder
	b.WriteString("You are a UI test automation expert helping to recover from a failed test step. ")
	b.WriteString("Analyze the error and the current screenshot, explain the most likely cause, ")
	b.WriteString("and suggest corrected commands in a fenced ```yaml block when a retry makes sense.\n\n")
	fmt.Fprintf(&b, "Error: %s\n", errText)
	if strings.TrimSpace(priorCommands) != "" {
		fmt.Fprintf(&b, "Commands that led to the error:\n%s\n", priorCommands)
	}
	return b.String()
}

// TaskCheck 任务前后对比：两张截图判断指令是否完成。
func TaskCheck(instruction string) string {
	return fmt.Sprintf(`You are verifying whether a UI task was completed. The first image shows the screen before the task, the second shows it after.

Task: %s

Respond with a JSON object only:
{"success": <bool>, "reason": "<short explanation>", "confidence": <0..1>}`, instruction)
}

// Scenarios 场景生成：从页面上下文产出测试场景列表。
func Scenarios(context string) string {
	var b strings.Builder
	b.WriteString("You are a QA engineer. Based on the provided application context")
	b.WriteString(" and screenshot if present, propose high-value UI test scenarios.\n\n")
	b.WriteString("Respond with a JSON array of scenario descriptions, most important first. No prose outside the array.\n\n")
	fmt.Fprintf(&b, "Context: %s\n", context)
	return b.String()
}

// Assertion 断言检查：判断截图是否满足断言。
func Assertion(assertion string) string {
	return fmt.Sprintf(`You are verifying a UI assertion against the provided screenshot.

Assertion: %s

Respond with a JSON object only:
{"passed": <bool>, "reason": "<short explanation>", "confidence": <0..1>}`, assertion)
}

// TextLocate 文本定位：返回目标文本的屏幕坐标。
func TextLocate(target, description string) string {
	var b strings.Builder
	b.WriteString("Locate the given text in the screenshot and report the center of its bounding box in pixels.\n\n")
	fmt.Fprintf(&b, "Target text: %q\n", target)
	if strings.TrimSpace(description) != "" {
		fmt.Fprintf(&b, "Hint: %s\n", description)
	}
	b.WriteString("\nRespond with a JSON object only:\n")
	b.WriteString(`{"found": <bool>, "x": <int>, "y": <int>, "confidence": <0..1>, "reason": "<why>"}`)
	b.WriteString("\nIf the text is not visible set found to false and omit coordinates.")
	return b.String()
}

// ImageLocate 图像定位：第一张图为模板，第二张为屏幕截图。
func ImageLocate(description string) string {
	var b strings.Builder
	b.WriteString("The first image is a template, the second is a full screenshot. ")
	b.WriteString("Find where the template appears in the screenshot and report the center of the best match in pixels.\n")
	if strings.TrimSpace(description) != "" {
		fmt.Fprintf(&b, "Hint: %s\n", description)
	}
	b.WriteString("\nRespond with a JSON object only:\n")
	b.WriteString(`{"found": <bool>, "x": <int>, "y": <int>, "confidence": <0..1>, "matches": [{"x": <int>, "y": <int>, "confidence": <0..1>}], "reason": "<why>"}`)
	b.WriteString("\nIf there is no match set found to false and omit coordinates.")
	return b.String()
}
