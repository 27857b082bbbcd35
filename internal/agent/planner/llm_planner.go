package planner

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"

	"mail-genie/internal/agent/prompts"
	"mail-genie/internal/model/llm"
	"mail-genie/pkg/errors"
)

// LLMPlanner 基于一次结构化补全的规划器
type LLMPlanner struct {
	completer llm.Completer
	tmpl      prompt.ChatTemplate
}

// NewLLMPlanner 创建基于 LLM 的 Planner；set 为 nil 时使用内置模板
func NewLLMPlanner(c llm.Completer, set *prompts.Set) (*LLMPlanner, error) {
	if c == nil {
		return nil, fmt.Errorf("planner completer is nil")
	}
	if set == nil {
		set = prompts.Default()
	}
	tmpl, err := set.Template(prompts.Planner)
	if err != nil {
		return nil, err
	}
	return &LLMPlanner{completer: c, tmpl: tmpl}, nil
}

// Plan 实现 Planner
func (p *LLMPlanner) Plan(ctx context.Context, goal string) (*Plan, error) {
	out, err := llm.Structured[planOutput](ctx, p.completer, prompts.Planner, p.tmpl, map[string]any{"goal": goal})
	if err != nil {
		var missing *llm.MissingOutputError
		var decode *llm.OutputDecodeError
		if errors.As(err, &missing) || errors.As(err, &decode) {
			return nil, fmt.Errorf("%w (%v)", ErrPlanningFailed, err)
		}
		return nil, errors.Wrap(err, "planner completion")
	}
	if len(out.Plan) == 0 {
		return nil, ErrPlanningFailed
	}
	return &Plan{Steps: parseEntries(out.Plan), Rationale: out.Rationale}, nil
}
