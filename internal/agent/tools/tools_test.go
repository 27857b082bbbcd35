package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-genie/internal/agent/prompts"
	"mail-genie/internal/model/llm"
	"mail-genie/internal/model/llm/llmtest"
)

func newToolset(t *testing.T, c *llmtest.Completer) *Toolset {
	t.Helper()
	ts, err := NewToolset(Single(c), prompts.Default())
	require.NoError(t, err)
	return ts
}

func TestDrafter_Draft(t *testing.T) {
	c := llmtest.New("stub").On(prompts.Draft, llmtest.JSON(EmailContent{Subject: "Thanks", Body: "Thank you for the meeting."}))
	ts := newToolset(t, c)

	got, err := ts.Drafter.Draft(context.Background(), "thank my manager")
	require.NoError(t, err)
	assert.Equal(t, EmailContent{Subject: "Thanks", Body: "Thank you for the meeting."}, got)
	assert.Equal(t, []string{prompts.Draft}, c.CallNames())
	assert.Contains(t, c.UserText(0), "thank my manager")

	calls := c.Calls()
	require.NotNil(t, calls[0].Schema)
	_, ok := calls[0].Schema.Properties.Get("subject")
	assert.True(t, ok)
}

func TestToneTuner_PassesContentAndTone(t *testing.T) {
	c := llmtest.New("stub").On(prompts.Tone, llmtest.JSON(EmailContent{Subject: "S2", Body: "B2"}))
	ts := newToolset(t, c)

	got, err := ts.ToneTuner.Tune(context.Background(), EmailContent{Subject: "S1", Body: "B1"}, "formal")
	require.NoError(t, err)
	assert.Equal(t, "S2", got.Subject)
	text := c.UserText(0)
	assert.Contains(t, text, "Email Subject: S1")
	assert.Contains(t, text, "Email Body: B1")
	assert.Contains(t, text, "Desired Tone: formal")
}

func TestTranslator_PassesLanguage(t *testing.T) {
	c := llmtest.New("stub").On(prompts.Translate, llmtest.JSON(EmailContent{Subject: "Hola", Body: "Cuerpo"}))
	ts := newToolset(t, c)

	got, err := ts.Translator.Translate(context.Background(), EmailContent{Subject: "Hi", Body: "Body"}, "Spanish")
	require.NoError(t, err)
	assert.Equal(t, "Hola", got.Subject)
	assert.Contains(t, c.UserText(0), "Target Language: Spanish")
}

func TestProofreader_AbsentOutput(t *testing.T) {
	c := llmtest.New("stub").On(prompts.Proofread, llmtest.Absent())
	ts := newToolset(t, c)

	_, err := ts.Proofreader.Proofread(context.Background(), EmailContent{Subject: "s", Body: "b"})
	var missing *llm.MissingOutputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, prompts.Proofread, missing.Prompt)
}

func TestProofreader_RequiresSubjectAndBody(t *testing.T) {
	cases := map[string]string{
		"empty object": `{}`,
		"subject only": `{"subject":"only subject"}`,
		"body only":    `{"body":"only body"}`,
		"null body":    `{"subject":"s","body":null}`,
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			c := llmtest.New("stub").On(prompts.Proofread, llmtest.Reply{Output: out})
			ts := newToolset(t, c)

			got, err := ts.Proofreader.Proofread(context.Background(), EmailContent{Subject: "s", Body: "b"})
			var decode *llm.OutputDecodeError
			require.ErrorAs(t, err, &decode)
			assert.Equal(t, prompts.Proofread, decode.Prompt)
			assert.Equal(t, EmailContent{}, got)
		})
	}
}

func TestDrafter_EmptyStringsAreOutput(t *testing.T) {
	c := llmtest.New("stub").On(prompts.Draft, llmtest.Reply{Output: `{"subject":"","body":""}`})
	got, err := newToolset(t, c).Drafter.Draft(context.Background(), "goal")
	require.NoError(t, err)
	assert.Equal(t, EmailContent{}, got)
}

func TestTool_TransportErrorPassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	c := llmtest.New("stub").On(prompts.Draft, llmtest.Fail(boom))
	ts := newToolset(t, c)

	_, err := ts.Drafter.Draft(context.Background(), "goal")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.Calls(), 1, "tools never retry")
}

func TestNewToolset_PerPromptSource(t *testing.T) {
	a := llmtest.New("a")
	b := llmtest.New("b")
	seen := map[string]string{}
	source := func(name string) (llm.Completer, error) {
		if name == prompts.Translate {
			seen[name] = "b"
			return b, nil
		}
		seen[name] = "a"
		return a, nil
	}
	_, err := NewToolset(source, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		prompts.Draft: "a", prompts.Tone: "a", prompts.Translate: "b", prompts.Proofread: "a",
	}, seen)
}

func TestNewToolset_SourceError(t *testing.T) {
	_, err := NewToolset(func(string) (llm.Completer, error) { return nil, errors.New("unavailable") }, nil)
	assert.ErrorContains(t, err, "tool draft")

	_, err = NewToolset(Single(nil), nil)
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"draft", "tone", "translate", "proofread"}, Kinds())
	assert.True(t, Known(KindTone))
	assert.False(t, Known("summarize"))

	infos := Describe()
	require.Len(t, infos, 4)
	infos[0].Args[0] = "mutated"
	assert.Equal(t, "goal", Describe()[0].Args[0])
}
