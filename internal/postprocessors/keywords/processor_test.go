package keywords

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "keywords", New().Name())
}

func TestProcessor_Process(t *testing.T) {
	doc := &domain.Document{
		ID:    "doc",
		Title: "Paušalno oporezivanje",
		Metadata: domain.DocumentMetadata{
			RelevantFor: []string{"preduzetnik"},
		},
	}
	chunks := []domain.Chunk{
		{ID: "doc_chunk_0", Content: "Paušalni porez\nPaušalni porez plaćaju preduzetnici. Porez se plaća mesečno, a porez se utvrđuje rešenjem."},
		{ID: "doc_chunk_1", Content: "Rok za prijavu je 15. januar."},
	}

	out, err := New(WithMaxKeywords(2)).Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0].Metadata
	assert.Equal(t, "Paušalno oporezivanje", first.Title)
	assert.Equal(t, "Paušalni porez", first.Section)
	assert.Equal(t, []string{"porez", "paušalni"}, first.Keywords)
	assert.Equal(t, []string{"preduzetnik"}, first.RelevantFor)

	second := out[1].Metadata
	assert.Empty(t, second.Section, "single line has no heading")
	assert.Len(t, second.Keywords, 2)
}

func TestProcessor_RelevantForIsCopied(t *testing.T) {
	doc := &domain.Document{Metadata: domain.DocumentMetadata{RelevantFor: []string{"a"}}}
	out, err := New().Process(context.Background(), doc, []domain.Chunk{{Content: "tekst"}})
	require.NoError(t, err)

	doc.Metadata.RelevantFor[0] = "changed"
	assert.Equal(t, []string{"a"}, out[0].Metadata.RelevantFor)
}

func TestHeading(t *testing.T) {
	assert.Equal(t, "Rokovi", heading("Rokovi\nPrijava se podnosi do 15. januara."))
	assert.Empty(t, heading("Ovo je rečenica.\nI još jedna."))
	assert.Empty(t, heading("Samo jedna linija"))
}

func TestTopTerms_StopwordsAndShortWords(t *testing.T) {
	p := New()
	assert.Equal(t, []string{"obveznik"}, p.topTerms("koji je obveznik i ili sa"))
	assert.Nil(t, p.topTerms("a i u"))
}
