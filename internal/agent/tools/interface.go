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

// Package tools 邮件内容变换工具：起草、调整语气、翻译、校对，每个工具是一次结构化补全
package tools

// 工具标识，与 planner 输出中的 tool 字段一致
const (
	KindDraft     = "draft"
	KindTone      = "tone"
	KindTranslate = "translate"
	KindProofread = "proofread"
)

// EmailContent 邮件主题与正文，在各步骤之间传递
type EmailContent struct {
	Subject string `json:"subject" jsonschema:"description=The email subject line"`
	Body    string `json:"body" jsonschema:"description=The full email body"`
}

// Info 工具描述，用于 /api/tools
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Args        []string `json:"args"`
}

var catalog = []Info{
	{Name: KindDraft, Description: "Writes the first version of the email (subject and body) from a goal.", Args: []string{"goal"}},
	{Name: KindTone, Description: "Rewrites the email in the requested tone.", Args: []string{"desiredTone"}},
	{Name: KindTranslate, Description: "Translates the email into the requested language.", Args: []string{"targetLanguage"}},
	{Name: KindProofread, Description: "Fixes grammar, spelling and punctuation and improves clarity.", Args: []string{}},
}

// Kinds 返回已知工具标识（固定顺序）
func Kinds() []string {
	out := make([]string, len(catalog))
	for i, info := range catalog {
		out[i] = info.Name
	}
	return out
}

// Describe 返回工具描述列表的副本
func Describe() []Info {
	out := make([]Info, len(catalog))
	for i, info := range catalog {
		out[i] = info
		out[i].Args = append([]string{}, info.Args...)
	}
	return out
}

// Known 判断是否为已知工具
func Known(kind string) bool {
	for _, info := range catalog {
		if info.Name == kind {
			return true
		}
	}
	return false
}
