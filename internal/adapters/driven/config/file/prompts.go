package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads answer prompts from user-editable files on disk,
// falling back to the embedded defaults.
//
// The directory is created lazily on the first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are an assistant for Serbian tax and business regulations. Answer in %s.

Use only the numbered context passages supplied with the question. Refer to the passages you rely on by their number, for example [1]. If the context does not answer the question, say so plainly and do not guess figures, rates or deadlines.

The knowledge base covers: income tax (porez na dohodak), VAT (porez na dodatu vrednost, PDV), pension and disability insurance contributions (doprinosi za PIO), health insurance (zdravstveno osiguranje), flat-tax entrepreneurs (paušalno oporezivanje, preduzetnik paušalac), bookkeeping (knjigovodstvo), laws and bylaws (zakon, pravilnik), tax forms (obrasci, PPDG), filing deadlines (rokovi) and thresholds (limiti, pragovi).

Keep official Serbian terms as they appear in the context and explain each briefly the first time it is used. When the user's situation is given, apply the rules to it.`,

	driven.PromptFallbackPrefix + "sr": `Nisam pronašao pouzdane informacije o ovom pitanju u bazi znanja. Za tačan i ažuran odgovor pogledajte zvanični izvor: %s`,

	driven.PromptFallbackPrefix + "en": `I could not find reliable information about this question in the knowledge base. For an accurate, up-to-date answer please consult the official source: %s`,
}

// NewPromptStore creates a file-based prompt store.
// If promptDir is empty, defaults to ~/.sercha-kb/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// A user file wins over the embedded default unless it lacks the single
// %s placeholder the template needs, in which case the default is used.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	if prompt, ok := s.cached(name); ok {
		return prompt, nil
	}

	def, hasDefault := defaultPrompts[name]
	if s.initErr != nil {
		if hasDefault {
			return def, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	prompt, err := s.readFile(name)
	switch {
	case err == nil && placeholders(prompt) != 1:
		logger.Warn("prompt %s in %s needs exactly one %%s placeholder, using default", name, s.promptDir)
		if !hasDefault {
			return "", fmt.Errorf("%w: prompt %q needs exactly one %%s placeholder", domain.ErrInvalidInput, name)
		}
		prompt = def
	case err != nil && hasDefault:
		prompt = def
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload clears the cache; the next Load reads from disk again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) cached(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.cache[name]
	return p, ok
}

// initialise writes any missing default files so users have something to edit.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, content := range defaultPrompts {
		files[name+".txt"] = content
	}
	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.promptDir, file), content); err != nil {
			s.initErr = fmt.Errorf("create default prompt file %s: %w", file, err)
			return
		}
	}
}

func (s *PromptStore) readFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0600)
}

// placeholders counts %s verbs, ignoring escaped percent signs.
func placeholders(tmpl string) int {
	return strings.Count(strings.ReplaceAll(tmpl, "%%", ""), "%s")
}

const promptReadme = `# sercha-kb Prompts

Prompts used when composing answers from the knowledge base.

## Files

- ` + "`answer_system.txt`" + ` - System instruction for grounded answers
- ` + "`fallback_sr.txt`" + ` - Answer returned when nothing relevant is found (Serbian)
- ` + "`fallback_en.txt`" + ` - Answer returned when nothing relevant is found (English)

Add ` + "`fallback_<lang>.txt`" + ` to support another answer language.

## Format Placeholders

- ` + "`answer_system.txt`" + `: ` + "`%s`" + ` is the answer language name
- ` + "`fallback_*.txt`" + `: ` + "`%s`" + ` is the official source URL

Keep exactly one placeholder in each file; a file without it is ignored.
Changes take effect on restart.
`
