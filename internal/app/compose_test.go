package app

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mail-genie/internal/agent"
	"mail-genie/internal/agent/executor"
	"mail-genie/internal/agent/planner"
	"mail-genie/internal/model/llm"
)

type stubRunner struct {
	goals []string
	out   *agent.Output
	err   error
	wait  bool
}

func (r *stubRunner) Run(ctx context.Context, goal string) (*agent.Output, error) {
	r.goals = append(r.goals, goal)
	if r.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.out, r.err
}

func TestCompose_Success(t *testing.T) {
	r := &stubRunner{out: &agent.Output{Subject: "s", Body: "b", Plan: []string{"Drafting"}}}
	res := NewComposeService(r, ComposeOptions{}).Compose(context.Background(), ComposeRequest{Goal: "  write to my team about lunch  "})
	assert.True(t, res.Success)
	assert.Equal(t, MessageSuccess, res.Message)
	assert.Equal(t, "s", res.Data.Subject)
	assert.Equal(t, []string{"write to my team about lunch"}, r.goals)
}

func TestCompose_Validation(t *testing.T) {
	r := &stubRunner{}
	svc := NewComposeService(r, ComposeOptions{})
	for _, goal := range []string{"", "too short", "   123456789   "} {
		res := svc.Compose(context.Background(), ComposeRequest{Goal: goal})
		assert.False(t, res.Success, goal)
		assert.Equal(t, "Please describe your goal in at least 10 characters.", res.Message)
		assert.ErrorIs(t, res.Err, ErrValidation)
	}
	assert.Empty(t, r.goals, "no pipeline run on invalid input")

	res := svc.Compose(context.Background(), ComposeRequest{Goal: "1234567890"})
	assert.True(t, res.Success)
}

func TestCompose_CustomMinLength(t *testing.T) {
	svc := NewComposeService(&stubRunner{}, ComposeOptions{MinGoalLength: 20})
	res := svc.Compose(context.Background(), ComposeRequest{Goal: "fifteen chars!!"})
	assert.Equal(t, "Please describe your goal in at least 20 characters.", res.Message)
}

func TestCompose_LanguageSuffix(t *testing.T) {
	cases := map[string]string{
		"":        "thank the team for the launch",
		"auto":    "thank the team for the launch",
		"AUTO":    "thank the team for the launch",
		"French":  "thank the team for the launch (in French)",
		" Hindi ": "thank the team for the launch (in Hindi)",
	}
	for lang, want := range cases {
		r := &stubRunner{out: &agent.Output{}}
		NewComposeService(r, ComposeOptions{}).Compose(context.Background(), ComposeRequest{Goal: "thank the team for the launch", Language: lang})
		assert.Equal(t, []string{want}, r.goals, lang)
	}
}

func TestCompose_ErrorReduction(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"planning failed", planner.ErrPlanningFailed, "Could not generate a plan from the provided goal."},
		{"wrapped planning failed", errors.Join(errors.New("ctx"), planner.ErrPlanningFailed), "Could not generate a plan from the provided goal."},
		{"step error", &executor.StepError{Label: "Translating", Err: &executor.StepArgumentError{Tool: "translate", Argument: "targetLanguage"}},
			`Error executing step "Translating": Translation step is missing the 'targetLanguage' argument.`},
		{"step transport error", &executor.StepError{Label: "Drafting", Err: &llm.RequestError{Provider: "gemini", Err: &url.Error{
			Op: "Post", URL: "https://example.test/models/m:generateContent?key=SECRET", Err: errors.New("connection refused"),
		}}}, `Error executing step "Drafting": The gemini model service could not be reached.`},
		{"unknown", errors.New("dial tcp 10.0.0.1:443: i/o timeout"), MessageGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewComposeService(&stubRunner{err: tc.err}, ComposeOptions{}).
				Compose(context.Background(), ComposeRequest{Goal: "write to my team about lunch"})
			assert.False(t, res.Success)
			assert.Nil(t, res.Data)
			assert.Equal(t, tc.want, res.Message)
			assert.Equal(t, tc.err, res.Err)
		})
	}
}

func TestCompose_Timeout(t *testing.T) {
	r := &stubRunner{wait: true}
	res := NewComposeService(r, ComposeOptions{Timeout: 20 * time.Millisecond}).
		Compose(context.Background(), ComposeRequest{Goal: "write to my team about lunch"})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, MessageGeneric, res.Message)
}
