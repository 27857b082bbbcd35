package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-genie/internal/agent/executor"
	"mail-genie/internal/agent/planner"
	"mail-genie/internal/agent/prompts"
	"mail-genie/internal/agent/tools"
	"mail-genie/internal/model/llm/llmtest"
	"mail-genie/pkg/log"
	"mail-genie/pkg/metrics"
)

func newAgent(t *testing.T, c *llmtest.Completer, opts ...AgentOption) *Agent {
	t.Helper()
	p, err := planner.NewLLMPlanner(c, prompts.Default())
	require.NoError(t, err)
	ts, err := tools.NewToolset(tools.Single(c), prompts.Default())
	require.NoError(t, err)
	opts = append([]AgentOption{WithLogger(log.Discard())}, opts...)
	return New(p, executor.New(ts, nil), opts...)
}

func planReply(entries ...map[string]any) llmtest.Reply {
	return llmtest.JSON(map[string]any{"plan": entries, "rationale": "test"})
}

func entry(label, tool string, args map[string]any) map[string]any {
	if args == nil {
		args = map[string]any{}
	}
	return map[string]any{"step": label, "tool": tool, "args": args}
}

func TestRun_FormalThankYou(t *testing.T) {
	c := llmtest.New("stub").
		On(prompts.Planner, planReply(
			entry("Drafting initial email", "draft", map[string]any{"goal": "thank manager for meeting"}),
			entry("Adjusting tone to be more formal", "tone", map[string]any{"desiredTone": "formal"}),
			entry("Proofreading email", "proofread", nil),
		)).
		On(prompts.Draft, llmtest.JSON(tools.EmailContent{Subject: "Thanks", Body: "thx for the mtg"})).
		On(prompts.Tone, llmtest.JSON(tools.EmailContent{Subject: "Thank You", Body: "Thank you for the meeting."})).
		On(prompts.Proofread, llmtest.JSON(tools.EmailContent{Subject: "Thank You", Body: "Thank you for the meeting today."}))

	var events []executor.StepEvent
	a := newAgent(t, c, WithObserver(func(ev executor.StepEvent) { events = append(events, ev) }))

	before := testutil.ToFloat64(metrics.PipelineTotal.WithLabelValues("success"))
	out, err := a.Run(context.Background(), "Email my manager to thank them for the meeting in a formal tone")
	require.NoError(t, err)
	assert.Equal(t, &Output{
		Subject: "Thank You",
		Body:    "Thank you for the meeting today.",
		Plan:    []string{"Drafting initial email", "Adjusting tone to be more formal", "Proofreading email"},
	}, out)
	assert.Equal(t, []string{prompts.Planner, prompts.Draft, prompts.Tone, prompts.Proofread}, c.CallNames())
	assert.Len(t, events, 3)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PipelineTotal.WithLabelValues("success")))
}

func TestRun_PlanIncludesSkippedSteps(t *testing.T) {
	c := llmtest.New("stub").
		On(prompts.Planner, planReply(
			entry("Drafting", "draft", nil),
			entry("Adding emojis", "emojify", nil),
			entry("Proofreading", "proofread", nil),
		)).
		On(prompts.Draft, llmtest.JSON(tools.EmailContent{Subject: "a", Body: "b"})).
		On(prompts.Proofread, llmtest.JSON(tools.EmailContent{Subject: "A", Body: "B"}))

	out, err := newAgent(t, c).Run(context.Background(), "write a quick note to my team")
	require.NoError(t, err)
	assert.Equal(t, []string{"Drafting", "Adding emojis", "Proofreading"}, out.Plan)
	assert.Equal(t, "A", out.Subject)
}

func TestRun_DraftOnlyIsValid(t *testing.T) {
	c := llmtest.New("stub").
		On(prompts.Planner, planReply(entry("Drafting", "draft", nil))).
		On(prompts.Draft, llmtest.JSON(tools.EmailContent{Subject: "a", Body: "b"}))

	out, err := newAgent(t, c).Run(context.Background(), "write a quick note to my team")
	require.NoError(t, err)
	assert.Equal(t, "b", out.Body)
}

func TestRun_PlanningFailed(t *testing.T) {
	c := llmtest.New("stub").On(prompts.Planner, llmtest.Absent())
	before := testutil.ToFloat64(metrics.PipelineTotal.WithLabelValues("error"))

	_, err := newAgent(t, c).Run(context.Background(), "write a quick note to my team")
	assert.ErrorIs(t, err, planner.ErrPlanningFailed)
	assert.Equal(t, []string{prompts.Planner}, c.CallNames())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PipelineTotal.WithLabelValues("error")))
}

func TestRun_StepError(t *testing.T) {
	c := llmtest.New("stub").
		On(prompts.Planner, planReply(
			entry("Drafting", "draft", nil),
			entry("Translating", "translate", nil),
		)).
		On(prompts.Draft, llmtest.JSON(tools.EmailContent{Subject: "a", Body: "b"}))

	_, err := newAgent(t, c).Run(context.Background(), "send an email to a client in Spanish")
	var stepErr *executor.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, `Error executing step "Translating": Translation step is missing the 'targetLanguage' argument.`, err.Error())
}

func TestRun_NotConfigured(t *testing.T) {
	_, err := New(nil, nil).Run(context.Background(), "goal")
	assert.Error(t, err)
}

func TestRun_PlannerTransportError(t *testing.T) {
	boom := errors.New("timeout")
	c := llmtest.New("stub").On(prompts.Planner, llmtest.Fail(boom))
	_, err := newAgent(t, c).Run(context.Background(), "write a quick note to my team")
	assert.ErrorIs(t, err, boom)
}
