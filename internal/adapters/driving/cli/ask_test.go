package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func answered() *domain.QueryResult {
	return &domain.QueryResult{
		Answer: "Opšta stopa PDV-a je 20% [1].",
		Sources: []domain.SourceCitation{{
			Title:    "Stope PDV",
			URL:      "https://purs.gov.rs/pdv/stope.html",
			Source:   "purs",
			Category: domain.CategoryVAT,
		}},
		Confidence: 0.82,
		State:      domain.StateDone,
		Provider:   "openai",
	}
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask <question>", askCmd.Use)
}

func TestAskCmd_NoService(t *testing.T) {
	setupTestServices(t, &Services{})
	_, err := execute(t, "ask", "PDV?")
	assert.EqualError(t, err, "answer service not configured")
}

func TestAskCmd_PrintsAnswer(t *testing.T) {
	svc := &mockAnswerService{result: answered()}
	setupTestServices(t, &Services{Answer: svc, Language: "sr"})

	out, err := execute(t, "ask", "Koja", "je", "stopa", "PDV-a?")
	require.NoError(t, err)

	assert.Equal(t, "Koja je stopa PDV-a?", svc.last.Question)
	assert.Equal(t, "sr", svc.last.Language)
	assert.Contains(t, out, "Opšta stopa PDV-a je 20% [1].")
	assert.Contains(t, out, "[1] Stope PDV (vat)")
	assert.Contains(t, out, "https://purs.gov.rs/pdv/stope.html")
	assert.Contains(t, out, "Confidence: 82% | openai")
}

func TestAskCmd_Flags(t *testing.T) {
	svc := &mockAnswerService{result: answered()}
	setupTestServices(t, &Services{Answer: svc, Language: "sr"})

	_, err := execute(t, "ask", "--lang", "en", "--category", "vat,flat-tax", "--max", "3", "VAT rate?")
	require.NoError(t, err)

	assert.Equal(t, "en", svc.last.Language)
	assert.Equal(t, 3, svc.last.MaxResults)
	assert.Equal(t, []domain.Category{domain.CategoryVAT, domain.CategoryFlatTax}, svc.last.Categories)
}

func TestAskCmd_UnknownCategory(t *testing.T) {
	setupTestServices(t, &Services{Answer: &mockAnswerService{result: answered()}})
	_, err := execute(t, "ask", "--category", "crypto", "q")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAskCmd_NoMatch(t *testing.T) {
	svc := &mockAnswerService{result: &domain.QueryResult{
		Answer: "Nisam pronašao relevantne informacije.",
		State:  domain.StateNoMatch,
	}}
	setupTestServices(t, &Services{Answer: svc})

	out, err := execute(t, "ask", "kripto?")
	require.NoError(t, err)
	assert.Contains(t, out, "Nisam pronašao")
	assert.NotContains(t, out, "Sources:")
	assert.NotContains(t, out, "Confidence")
}

func TestAskCmd_JSON(t *testing.T) {
	setupTestServices(t, &Services{Answer: &mockAnswerService{result: answered()}})

	out, err := execute(t, "ask", "--json", "PDV?")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "Opšta stopa PDV-a je 20% [1].", body["answer"])
	assert.Len(t, body["sources"], 1)
}

func TestAskCmd_ServiceError(t *testing.T) {
	setupTestServices(t, &Services{Answer: &mockAnswerService{err: domain.ErrProviderUnavailable}})
	_, err := execute(t, "ask", "PDV?")
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}
