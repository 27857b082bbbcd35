// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package planner 将用户的目标转为有序的邮件处理步骤
package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"

	"mail-genie/internal/agent/tools"
	"mail-genie/pkg/errors"
)

// ErrPlanningFailed 无法从目标生成计划（输出缺失、无法解析或没有步骤）
var ErrPlanningFailed = errors.NewPublic("Could not generate a plan from the provided goal.")

// Planner 计划生成器
type Planner interface {
	Plan(ctx context.Context, goal string) (*Plan, error)
}

// Plan 有序步骤与生成理由
type Plan struct {
	Steps     []Step `json:"steps"`
	Rationale string `json:"rationale,omitempty"`
}

// Labels 按顺序返回所有步骤的展示文本（包括未知工具的步骤）
func (p *Plan) Labels() []string {
	if p == nil {
		return []string{}
	}
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Label
	}
	return out
}

// Step 计划中的一步：展示文本 + 动作
type Step struct {
	Label  string
	Action Action
}

// Action 步骤动作：Draft / Tone / Translate / Proofread / Unknown 之一
type Action interface {
	Tool() string
}

// Draft 起草；Goal 为空时由执行器使用原始目标
type Draft struct{ Goal string }

// Tone 调整语气
type Tone struct{ DesiredTone string }

// Translate 翻译
type Translate struct{ TargetLanguage string }

// Proofread 校对
type Proofread struct{}

// Unknown 无法识别的工具，执行时跳过
type Unknown struct{ Name string }

func (Draft) Tool() string     { return tools.KindDraft }
func (Tone) Tool() string      { return tools.KindTone }
func (Translate) Tool() string { return tools.KindTranslate }
func (Proofread) Tool() string { return tools.KindProofread }
func (u Unknown) Tool() string { return u.Name }

// planOutput planner prompt 的输出结构；每个条目必须带 step 与 tool，args 与 rationale 可省略
type planOutput struct {
	Plan      []planEntry `json:"plan" jsonschema:"description=Ordered steps that produce the email"`
	Rationale string      `json:"rationale,omitempty" jsonschema:"description=Short explanation of the plan"`
}

type planEntry struct {
	Step string   `json:"step" jsonschema:"description=User-friendly description of the step"`
	Tool string   `json:"tool" jsonschema:"enum=draft,enum=tone,enum=translate,enum=proofread"`
	Args stepArgs `json:"args,omitempty"`
}

// stepArgs 步骤参数；非对象输入视为无参数
type stepArgs map[string]any

func (a *stepArgs) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		*a = nil
		return nil
	}
	*a = m
	return nil
}

// JSONSchema 参数对象：所有字段可选，部分后端不接受空 properties 的 object
func (stepArgs) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("goal", &jsonschema.Schema{Type: "string", Description: "Goal for the draft step"})
	props.Set("desiredTone", &jsonschema.Schema{Type: "string", Description: "Target tone for the tone step"})
	props.Set("targetLanguage", &jsonschema.Schema{Type: "string", Description: "Target language for the translate step"})
	return &jsonschema.Schema{Type: "object", Properties: props}
}

// str 取字符串参数；缺失或非字符串返回 ""
func (a stepArgs) str(key string) string {
	v, ok := a[key].(string)
	if !ok {
		return ""
	}
	return v
}

// parseEntries 将原始条目转为带类型的步骤；未知工具不会导致失败
func parseEntries(entries []planEntry) []Step {
	steps := make([]Step, 0, len(entries))
	for _, e := range entries {
		tool := strings.ToLower(strings.TrimSpace(e.Tool))
		var action Action
		switch tool {
		case tools.KindDraft:
			action = Draft{Goal: e.Args.str("goal")}
		case tools.KindTone:
			action = Tone{DesiredTone: e.Args.str("desiredTone")}
		case tools.KindTranslate:
			action = Translate{TargetLanguage: e.Args.str("targetLanguage")}
		case tools.KindProofread:
			action = Proofread{}
		default:
			action = Unknown{Name: e.Tool}
		}
		label := e.Step
		if strings.TrimSpace(label) == "" {
			label = e.Tool
		}
		steps = append(steps, Step{Label: label, Action: action})
	}
	return steps
}
