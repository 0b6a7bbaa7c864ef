package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sercha-kb", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	for _, f := range []string{"answer_system.txt", "fallback_sr.txt", "fallback_en.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_DefaultTemplates(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	system, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, system, "paušalno oporezivanje")
	assert.Contains(t, fmt.Sprintf(system, "English"), "Answer in English.")

	sr, err := store.Load(driven.PromptFallbackPrefix + "sr")
	require.NoError(t, err)
	assert.Contains(t, fmt.Sprintf(sr, "https://www.purs.gov.rs"), "zvanični izvor: https://www.purs.gov.rs")

	en, err := store.Load(driven.PromptFallbackPrefix + "en")
	require.NoError(t, err)
	assert.Contains(t, fmt.Sprintf(en, "https://example.rs"), "official source: https://example.rs")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Odgovori na %s jeziku."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "fallback_en.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptFallbackPrefix + "en")
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptFallbackPrefix+"en"], prompt)
}

func TestPromptStore_Load_UserFallbackLanguage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fallback_de.txt"), []byte("Siehe %s\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptFallbackPrefix + "de")
	require.NoError(t, err)
	assert.Equal(t, "Siehe %s", prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("fallback_fr")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback_fr")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	modified := "modified: %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte(modified), 0600))

	cached, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, modified, fresh)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := "pre-existing fallback %s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fallback_sr.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptAnswerSystem)

	data, err := os.ReadFile(filepath.Join(dir, "fallback_sr.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make(chan string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAnswerSystem)
			assert.NoError(t, err)
			results <- prompt
		}()
	}
	wg.Wait()
	close(results)

	for prompt := range results {
		assert.Equal(t, defaultPrompts[driven.PromptAnswerSystem], prompt)
	}
}

func TestPromptStore_Load_IgnoresFileWithoutPlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte("Odgovori kratko."), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptAnswerSystem], prompt)
}

func TestPromptStore_Load_CustomLanguageNeedsPlaceholder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fallback_de.txt"), []byte("Keine Antwort."), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptFallbackPrefix + "de")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, 1, placeholders("Answer in %s."))
	assert.Equal(t, 1, placeholders("20%% of %s"))
	assert.Equal(t, 0, placeholders("none"))
	assert.Equal(t, 2, placeholders("%s and %s"))
}
