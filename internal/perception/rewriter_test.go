package perception

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRewrite(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"untouched", "Tess ate an apple.", "Tess ate an apple."},
		{"rewritten preamble", "Rewritten Story: Tess ate an apple.", "Tess ate an apple."},
		{"here is preamble", "Here is the rewritten story:\n\nTess ate an apple.", "Tess ate an apple."},
		{"trailing note", "Tess ate an apple. (Changed peanut butter to an apple.)", "Tess ate an apple."},
		{"quoted", "\"Tess ate an apple.\"", "Tess ate an apple."},
		{"inner parens kept", "Tess (a baker) ate an apple.", "Tess (a baker) ate an apple."},
		{"only a note", "(no changes needed)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanRewrite(tt.raw))
		})
	}
}

func TestStoryRewriter_Rewrite(t *testing.T) {
	client := NewScriptedClient("Rewritten Story: Tess ate an apple.")
	rw := NewStoryRewriter(client)

	out, err := rw.Rewrite(context.Background(), "Tess ate peanut butter.", []string{
		"ALLERGY VIOLATION: demo:Tess, ia2025:PeanutButter, ia2025:Peanut",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tess ate an apple.", out)

	prompts := client.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], `"Tess ate peanut butter."`)
	assert.Contains(t, prompts[0], "ALLERGY VIOLATION: demo:Tess")
	assert.Contains(t, prompts[0], "ABSOLUTE MINIMAL change")
}

func TestStoryRewriter_EmptyReply(t *testing.T) {
	_, err := NewStoryRewriter(NewScriptedClient("Rewritten Story:")).Rewrite(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrEmptyRewrite)
}

func TestScriptedClient_Exhausted(t *testing.T) {
	_, err := NewScriptedClient().Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrScriptExhausted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewScriptedClient("a").Complete(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
