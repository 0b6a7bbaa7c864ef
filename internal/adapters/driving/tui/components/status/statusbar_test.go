package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())

	bar = NewBar(nil, nil)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
	updated, cmd := bar.Update(nil)
	assert.Same(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_View_States(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Bar)
		want  string
	}{
		{"ready", func(b *Bar) {}, "Ready"},
		{"thinking", func(b *Bar) { b.SetState(StateThinking) }, "Thinking"},
		{"error", func(b *Bar) { b.SetState(StateError) }, "Error"},
		{"error with message", func(b *Bar) {
			b.SetState(StateError)
			b.SetMessage("provider down")
		}, "provider down"},
		{"no match", func(b *Bar) { b.SetState(StateNoMatch) }, "No matching documents"},
		{"answered", func(b *Bar) { b.SetAnswer(3, 0.82, "openai") }, "3 source(s)"},
		{"ready with message", func(b *Bar) { b.SetMessage("Ingested purs") }, "Ingested purs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)
			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_View_AnsweredShowsConfidenceAndProvider(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(140)
	bar.SetAnswer(2, 0.5, "gemini")

	view := bar.View()

	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "gemini")
	assert.Contains(t, view, "new question")
}

func TestBar_View_ShowsShortHelpWhenReady(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Contains(t, bar.View(), "enter: ask")
}

func TestBar_SetAnswerAndClear(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetAnswer(4, 0.9, "anthropic")
	assert.Equal(t, StateAnswered, bar.State())
	assert.Equal(t, 4, bar.Citations())

	bar.SetMessage("x")
	bar.Clear()
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 0, bar.Citations())
	assert.Empty(t, bar.Message())
}
