package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"

	"mail-genie/internal/agent/prompts"
	"mail-genie/internal/model/llm"
)

// CompleterSource 按 prompt 名返回补全服务；model.Registry.ForPrompt 满足该签名
type CompleterSource func(prompt string) (llm.Completer, error)

// Single 所有 prompt 共用同一个补全服务
func Single(c llm.Completer) CompleterSource {
	return func(string) (llm.Completer, error) {
		if c == nil {
			return nil, fmt.Errorf("completer is nil")
		}
		return c, nil
	}
}

// structuredTool 单个 prompt 上的结构化补全
type structuredTool struct {
	name      string
	completer llm.Completer
	tmpl      prompt.ChatTemplate
}

func newStructuredTool(name string, source CompleterSource, set *prompts.Set) (structuredTool, error) {
	c, err := source(name)
	if err != nil {
		return structuredTool{}, fmt.Errorf("tool %s: %w", name, err)
	}
	tmpl, err := set.Template(name)
	if err != nil {
		return structuredTool{}, fmt.Errorf("tool %s: %w", name, err)
	}
	return structuredTool{name: name, completer: c, tmpl: tmpl}, nil
}

func (t structuredTool) run(ctx context.Context, vars map[string]any) (EmailContent, error) {
	out, err := llm.Structured[EmailContent](ctx, t.completer, t.name, t.tmpl, vars)
	if err != nil {
		return EmailContent{}, err
	}
	return *out, nil
}

func contentVars(content EmailContent) map[string]any {
	return map[string]any{"subject": content.Subject, "body": content.Body}
}

// Drafter 根据目标起草邮件
type Drafter struct{ t structuredTool }

// Draft 起草邮件
func (d *Drafter) Draft(ctx context.Context, goal string) (EmailContent, error) {
	return d.t.run(ctx, map[string]any{"goal": goal})
}

// ToneTuner 调整邮件语气
type ToneTuner struct{ t structuredTool }

// Tune 按 tone 改写
func (d *ToneTuner) Tune(ctx context.Context, content EmailContent, tone string) (EmailContent, error) {
	vars := contentVars(content)
	vars["tone"] = tone
	return d.t.run(ctx, vars)
}

// Translator 翻译邮件
type Translator struct{ t structuredTool }

// Translate 翻译为 language
func (d *Translator) Translate(ctx context.Context, content EmailContent, language string) (EmailContent, error) {
	vars := contentVars(content)
	vars["language"] = language
	return d.t.run(ctx, vars)
}

// Proofreader 校对邮件
type Proofreader struct{ t structuredTool }

// Proofread 校对
func (d *Proofreader) Proofread(ctx context.Context, content EmailContent) (EmailContent, error) {
	return d.t.run(ctx, contentVars(content))
}

// Toolset 四个工具的集合；无状态，可并发使用
type Toolset struct {
	Drafter     *Drafter
	ToneTuner   *ToneTuner
	Translator  *Translator
	Proofreader *Proofreader
}

// NewToolset 创建工具集，每个工具从 source 取得其 prompt 对应的补全服务
func NewToolset(source CompleterSource, set *prompts.Set) (*Toolset, error) {
	if source == nil {
		return nil, fmt.Errorf("completer source is nil")
	}
	if set == nil {
		set = prompts.Default()
	}
	draft, err := newStructuredTool(prompts.Draft, source, set)
	if err != nil {
		return nil, err
	}
	tone, err := newStructuredTool(prompts.Tone, source, set)
	if err != nil {
		return nil, err
	}
	translate, err := newStructuredTool(prompts.Translate, source, set)
	if err != nil {
		return nil, err
	}
	proofread, err := newStructuredTool(prompts.Proofread, source, set)
	if err != nil {
		return nil, err
	}
	return &Toolset{
		Drafter:     &Drafter{t: draft},
		ToneTuner:   &ToneTuner{t: tone},
		Translator:  &Translator{t: translate},
		Proofreader: &Proofreader{t: proofread},
	}, nil
}

// Draft 见 Drafter.Draft
func (ts *Toolset) Draft(ctx context.Context, goal string) (EmailContent, error) {
	return ts.Drafter.Draft(ctx, goal)
}

// Tune 见 ToneTuner.Tune
func (ts *Toolset) Tune(ctx context.Context, content EmailContent, tone string) (EmailContent, error) {
	return ts.ToneTuner.Tune(ctx, content, tone)
}

// Translate 见 Translator.Translate
func (ts *Toolset) Translate(ctx context.Context, content EmailContent, language string) (EmailContent, error) {
	return ts.Translator.Translate(ctx, content, language)
}

// Proofread 见 Proofreader.Proofread
func (ts *Toolset) Proofread(ctx context.Context, content EmailContent) (EmailContent, error) {
	return ts.Proofreader.Proofread(ctx, content)
}
