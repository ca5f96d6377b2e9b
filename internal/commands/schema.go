// Package commands 校验模型生成的 YAML 命令块是否符合受支持的命令集。
// 校验失败不阻断操作，只作为结果上的注记（解释层软失败策略）。
package commands

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["commands"],
  "properties": {
    "commands": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["command"],
        "properties": {
          "command": {
            "enum": ["navigate", "click", "hover-text", "type", "press-keys", "scroll", "wait", "assert"]
          },
          "url": {"type": "string"},
          "x": {"type": "integer", "minimum": 0},
          "y": {"type": "integer", "minimum": 0},
          "text": {"type": "string"},
          "keys": {"type": "array", "items": {"type": "string"}},
          "direction": {"enum": ["up", "down", "left", "right"]},
          "amount": {"type": "integer", "minimum": 0},
          "timeout": {"type": "integer", "minimum": 0},
          "expect": {"type": "string"}
        }
      }
    }
  }
}`

var commandSchema = jsonschema.MustCompileString("commands.schema.json", schemaJSON)

// Validation 是一次命令块校验的结论。
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate 解析 YAML 命令块并对照内嵌 schema 校验。
// 裸命令列表（无 commands 外层键）也接受。
func Validate(block string) Validation {
	block = strings.TrimSpace(block)
	if block == "" {
		return Validation{Valid: false, Errors: []string{"empty command block"}}
	}

	var doc any
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return Validation{Valid: false, Errors: []string{fmt.Sprintf("yaml parse failed: %v", err)}}
	}
	if list, ok := doc.([]any); ok {
		doc = map[string]any{"commands": list}
	}

	if err := commandSchema.Validate(doc); err != nil {
		return Validation{Valid: false, Errors: flatten(err)}
	}
	return Validation{Valid: true}
}

func flatten(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	leaves := ve.BasicOutput().Errors
	out := make([]string, 0, len(leaves))
	for _, l := range leaves {
		if strings.TrimSpace(l.Error) == "" {
			continue
		}
		loc := l.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, fmt.Sprintf("%s: %s", loc, l.Error))
	}
	if len(out) == 0 {
		out = append(out, ve.Message)
	}
	return out
}
