package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

var reflector = &jsonschema.Reflector{
	Anonymous:                 true,
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
}

// SchemaFor 由 Go 结构体生成输出 JSON Schema（内联，不使用 $ref）
func SchemaFor[T any]() *jsonschema.Schema {
	var v T
	return reflector.Reflect(&v)
}

// SchemaMap 将 schema 转为普通 map，去掉 $schema / $id 等元字段
func SchemaMap(s *jsonschema.Schema) map[string]any {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m
}

// geminiUnsupported Gemini responseSchema 不接受的关键字
var geminiUnsupported = map[string]bool{
	"$schema":              true,
	"$id":                  true,
	"$defs":                true,
	"additionalProperties": true,
	"title":                true,
	"default":              true,
	"examples":             true,
}

// GeminiSchema 生成 Gemini 可接受的 responseSchema（OpenAPI 子集）
func GeminiSchema(s *jsonschema.Schema) map[string]any {
	m := SchemaMap(s)
	if m == nil {
		return nil
	}
	return sanitizeGemini(m).(map[string]any)
}

func sanitizeGemini(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if geminiUnsupported[k] {
				continue
			}
			if k == "properties" {
				props, _ := val.(map[string]any)
				clean := make(map[string]any, len(props))
				for name, p := range props {
					clean[name] = sanitizeGemini(p)
				}
				out[k] = clean
				continue
			}
			out[k] = sanitizeGemini(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = sanitizeGemini(item)
		}
		return out
	default:
		return v
	}
}

// CheckRequired 按 schema 的 required 检查输出：对象与数组逐层检查，值为 null 视为缺失。
// 类型不符的部分不在这里处理，留给解码。
func CheckRequired(s *jsonschema.Schema, raw json.RawMessage) error {
	return checkRequired(s, raw, "")
}

func checkRequired(s *jsonschema.Schema, raw json.RawMessage, path string) error {
	if s == nil || len(raw) == 0 {
		return nil
	}
	switch s.Type {
	case "object":
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return nil
		}
		for _, name := range s.Required {
			v, ok := obj[name]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				return fmt.Errorf("missing required field %q", fieldPath(path, name))
			}
		}
		if s.Properties == nil {
			return nil
		}
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			v, ok := obj[pair.Key]
			if !ok {
				continue
			}
			if err := checkRequired(pair.Value, v, fieldPath(path, pair.Key)); err != nil {
				return err
			}
		}
	case "array":
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		for i, item := range items {
			if err := checkRequired(s.Items, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
