package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"uigate/internal/commands"
	"uigate/internal/gateway/provider"
	"uigate/internal/interpret"
	"uigate/internal/prompt"
)

// CommandsInput 指令转命令。截图与上下文可选。
type CommandsInput struct {
	Instruction string `json:"instruction"`
	Screenshot  string `json:"screenshot,omitempty"`
	Context     string `json:"context,omitempty"`
}

type CommandsResult struct {
	Commands   string              `json:"commands"`
	Fenced     bool                `json:"fenced"`
	Validation commands.Validation `json:"validation"`
	Raw        json.RawMessage     `json:"raw,omitempty"`
}

// Commands 把自然语言指令转换为 YAML 命令块。
func (g *Gateway) Commands(ctx context.Context, in CommandsInput) (CommandsResult, error) {
	if strings.TrimSpace(in.Instruction) == "" {
		return CommandsResult{}, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	req := provider.CallRequest{
		System: prompt.Commands(in.Instruction, in.Context),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks(in.Instruction, normalizeOptional(in.Screenshot)...)...),
		},
	}
	out, err := g.call(ctx, "commands", req)
	if err != nil {
		return CommandsResult{}, err
	}
	block, fenced := interpret.Commands(out.res.Text)
	g.finish("commands", out, !fenced)
	return CommandsResult{
		Commands:   block,
		Fenced:     fenced,
		Validation: commands.Validate(block),
		Raw:        out.res.Raw,
	}, nil
}

// RecoverInput 错误恢复。报错文本必选。
type RecoverInput struct {
	Error         string `json:"error"`
	Screenshot    string `json:"screenshot,omitempty"`
	PriorCommands string `json:"prior_commands,omitempty"`
}

type RecoverResult struct {
	Advice string          `json:"advice"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Recover 请求模型分析失败原因并给出补救建议。
func (g *Gateway) Recover(ctx context.Context, in RecoverInput) (RecoverResult, error) {
	if strings.TrimSpace(in.Error) == "" {
		return RecoverResult{}, fmt.Errorf("%w: error text is required", ErrInvalidInput)
	}
	req := provider.CallRequest{
		System: prompt.Recovery(in.Error, in.PriorCommands),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks(in.Error, normalizeOptional(in.Screenshot)...)...),
		},
	}
	out, err := g.call(ctx, "recover", req)
	if err != nil {
		return RecoverResult{}, err
	}
	g.finish("recover", out, false)
	return RecoverResult{Advice: out.res.Text, Raw: out.res.Raw}, nil
}

// TaskCheckInput 任务前后校验。两张截图都必选。
type TaskCheckInput struct {
	Instruction      string `json:"instruction"`
	ScreenshotBefore string `json:"screenshot_before"`
	ScreenshotAfter  string `json:"screenshot_after"`
}

// TaskCheck 对比任务前后截图，判断指令是否完成。
func (g *Gateway) TaskCheck(ctx context.Context, in TaskCheckInput) (interpret.CheckResult, error) {
	if strings.TrimSpace(in.Instruction) == "" {
		return interpret.CheckResult{}, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	before, err := normalizeRequired(in.ScreenshotBefore, "screenshot_before")
	if err != nil {
		return interpret.CheckResult{}, err
	}
	after, err := normalizeRequired(in.ScreenshotAfter, "screenshot_after")
	if err != nil {
		return interpret.CheckResult{}, err
	}
	req := provider.CallRequest{
		System: prompt.TaskCheck(in.Instruction),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks(in.Instruction, before, after)...),
		},
	}
	out, err := g.call(ctx, "task-check", req)
	if err != nil {
		return interpret.CheckResult{}, err
	}
	res := interpret.Check(out.res.Text, g.fallbackConfidence)
	g.finish("task-check", out, res.Fallback)
	return res, nil
}

// ScenariosInput 场景生成。上下文必选，截图可选。
type ScenariosInput struct {
	Context    string `json:"context"`
	Screenshot string `json:"screenshot,omitempty"`
}

// Scenarios 生成测试场景列表。
func (g *Gateway) Scenarios(ctx context.Context, in ScenariosInput) (interpret.ScenarioResult, error) {
	if strings.TrimSpace(in.Context) == "" {
		return interpret.ScenarioResult{}, fmt.Errorf("%w: context is required", ErrInvalidInput)
	}
	req := provider.CallRequest{
		System: prompt.Scenarios(in.Context),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks(in.Context, normalizeOptional(in.Screenshot)...)...),
		},
	}
	out, err := g.call(ctx, "scenarios", req)
	if err != nil {
		return interpret.ScenarioResult{}, err
	}
	res := interpret.Scenarios(out.res.Text)
	g.finish("scenarios", out, res.Fallback)
	return res, nil
}

// AssertInput 断言检查。断言必选，截图可选。
type AssertInput struct {
	Assertion  string `json:"assertion"`
	Screenshot string `json:"screenshot,omitempty"`
}

// Assert 判断截图是否满足断言。
func (g *Gateway) Assert(ctx context.Context, in AssertInput) (interpret.CheckResult, error) {
	if strings.TrimSpace(in.Assertion) == "" {
		return interpret.CheckResult{}, fmt.Errorf("%w: assertion is required", ErrInvalidInput)
	}
	req := provider.CallRequest{
		System: prompt.Assertion(in.Assertion),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks(in.Assertion, normalizeOptional(in.Screenshot)...)...),
		},
	}
	out, err := g.call(ctx, "assert", req)
	if err != nil {
		return interpret.CheckResult{}, err
	}
	res := interpret.Check(out.res.Text, g.fallbackConfidence)
	g.finish("assert", out, res.Fallback)
	return res, nil
}

// TextLocateInput 文本定位。目标文本与截图必选。
type TextLocateInput struct {
	Target      string `json:"target"`
	Description string `json:"description,omitempty"`
	Screenshot  string `json:"screenshot"`
}

// LocateText 在截图中定位目标文本。
func (g *Gateway) LocateText(ctx context.Context, in TextLocateInput) (interpret.LocateResult, error) {
	if strings.TrimSpace(in.Target) == "" {
		return interpret.LocateResult{}, fmt.Errorf("%w: target is required", ErrInvalidInput)
	}
	shot, err := normalizeRequired(in.Screenshot, "screenshot")
	if err != nil {
		return interpret.LocateResult{}, err
	}
	req := provider.CallRequest{
		System: prompt.TextLocate(in.Target, in.Description),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks(in.Target, shot)...),
		},
	}
	out, err := g.call(ctx, "locate-text", req)
	if err != nil {
		return interpret.LocateResult{}, err
	}
	res := interpret.Locate(out.res.Text)
	g.finish("locate-text", out, res.Fallback)
	return res, nil
}

// ImageLocateInput 图像定位。模板图与截图必选。
type ImageLocateInput struct {
	Template    string `json:"template"`
	Screenshot  string `json:"screenshot"`
	Description string `json:"description,omitempty"`
}

// LocateImage 在截图中定位模板图片的出现位置。
func (g *Gateway) LocateImage(ctx context.Context, in ImageLocateInput) (interpret.LocateResult, error) {
	template, err := normalizeRequired(in.Template, "template")
	if err != nil {
		return interpret.LocateResult{}, err
	}
	shot, err := normalizeRequired(in.Screenshot, "screenshot")
	if err != nil {
		return interpret.LocateResult{}, err
	}
	req := provider.CallRequest{
		System: prompt.ImageLocate(in.Description),
		Messages: []provider.Message{
			provider.UserMessage(userBlocks("Find the template in the screenshot.", template, shot)...),
		},
	}
	out, err := g.call(ctx, "locate-image", req)
	if err != nil {
		return interpret.LocateResult{}, err
	}
	res := interpret.Locate(out.res.Text)
	g.finish("locate-image", out, res.Fallback)
	return res, nil
}
