package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Quit.Keys(), "q")
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.Contains(t, km.Back.Keys(), "esc")
	assert.Contains(t, km.Ask.Keys(), "enter")
	assert.Contains(t, km.NewQuestion.Keys(), "n")
	assert.Contains(t, km.Ingest.Keys(), "i")
	assert.Contains(t, km.Reload.Keys(), "r")
}

func TestDefaultKeyMap_Navigation(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []string{"up", "k"}, km.Up.Keys())
	assert.Equal(t, []string{"down", "j"}, km.Down.Keys())
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	require.Len(t, bindings, 2)
	assert.Equal(t, "ask", bindings[0].Help().Desc)
	assert.Equal(t, "back", bindings[1].Help().Desc)
}

func TestAnswerHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.AnswerHelp()

	require.Len(t, bindings, 4)
	assert.Equal(t, "new question", bindings[0].Help().Desc)
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()

	require.Len(t, groups, 4)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 3)
	assert.Len(t, groups[2], 2)
	assert.Len(t, groups[3], 2)
}

func TestBindings_HaveHelp(t *testing.T) {
	km := DefaultKeyMap()

	testCases := []struct {
		name    string
		binding key.Binding
	}{
		{"Quit", km.Quit},
		{"Help", km.Help},
		{"Back", km.Back},
		{"Ask", km.Ask},
		{"NewQuestion", km.NewQuestion},
		{"Ingest", km.Ingest},
		{"Reload", km.Reload},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEmpty(t, tc.binding.Help().Key)
		})
	}
}
