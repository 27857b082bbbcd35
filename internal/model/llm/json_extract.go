package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON 从模型文本回复中取出 JSON 对象：去掉 markdown 代码块，取第一个 { 到最后一个 } 之间的内容。
// 找不到合法 JSON 对象时返回 nil（视为输出缺失）。
func ExtractJSON(text string) json.RawMessage {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil
	}
	return json.RawMessage(candidate)
}
