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

package planner

import (
	"context"
	"regexp"
	"strings"
)

// toneKeywords 目标中出现即插入 tone 步骤
var toneKeywords = []string{
	"formal", "informal", "friendly", "professional", "concise", "casual", "polite", "warm", "apologetic", "persuasive",
}

// languages translate 步骤识别的语言
var languages = []string{
	"English", "Spanish", "French", "German", "Italian", "Portuguese", "Dutch", "Swedish", "Polish", "Russian",
	"Turkish", "Arabic", "Hindi", "Chinese", "Japanese", "Korean", "Vietnamese", "Indonesian",
}

var (
	wordRe     = regexp.MustCompile(`[A-Za-z]+`)
	languageRe = regexp.MustCompile(`(?i)\bin\s+(` + strings.Join(languages, "|") + `)\b`)
)

// RulePlanner 规则规划器：不调用 LLM，按关键词生成 draft → [tone] → [translate] → proofread
type RulePlanner struct{}

// NewRulePlanner 创建规则规划器
func NewRulePlanner() *RulePlanner {
	return &RulePlanner{}
}

// Plan 实现 Planner
func (p *RulePlanner) Plan(ctx context.Context, goal string) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(goal) == "" {
		return nil, ErrPlanningFailed
	}
	steps := []Step{{Label: "Drafting initial email", Action: Draft{Goal: goal}}}
	reasons := []string{"draft the email"}

	if tone := detectTone(goal); tone != "" {
		steps = append(steps, Step{Label: "Adjusting tone to be more " + tone, Action: Tone{DesiredTone: tone}})
		reasons = append(reasons, "apply the requested "+tone+" tone")
	}
	if lang := detectLanguage(goal); lang != "" {
		steps = append(steps, Step{Label: "Translating to " + lang, Action: Translate{TargetLanguage: lang}})
		reasons = append(reasons, "translate it to "+lang)
	}
	steps = append(steps, Step{Label: "Proofreading email", Action: Proofread{}})
	reasons = append(reasons, "proofread the result")

	return &Plan{Steps: steps, Rationale: "Rule-based plan: " + strings.Join(reasons, ", then ") + "."}, nil
}

func detectTone(goal string) string {
	for _, w := range wordRe.FindAllString(strings.ToLower(goal), -1) {
		for _, k := range toneKeywords {
			if w == k {
				return k
			}
		}
	}
	return ""
}

func detectLanguage(goal string) string {
	m := languageRe.FindStringSubmatch(goal)
	if m == nil {
		return ""
	}
	for _, l := range languages {
		if strings.EqualFold(l, m[1]) {
			return l
		}
	}
	return ""
}
