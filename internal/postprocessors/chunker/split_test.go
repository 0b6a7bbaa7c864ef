package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("  a\n\n\nb\n \nc line one\nc line two\n\n  ")
	assert.Equal(t, []string{"a", "b", "c line one\nc line two"}, got)
	assert.Empty(t, SplitParagraphs(" \n\n "))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic punctuation",
			text: "Rok je kratak! Da li? Da.",
			want: []string{"Rok je kratak!", "Da li?", "Da."},
		},
		{
			name: "ordinal date is not a boundary",
			text: "Porez se plaća do 15. marta. Kasnije nije moguće.",
			want: []string{"Porez se plaća do 15. marta.", "Kasnije nije moguće."},
		},
		{
			name: "abbreviations",
			text: "Sl. glasnik RS, br. 24/2001. Član 5 se primenjuje.",
			want: []string{"Sl. glasnik RS, br. 24/2001.", "Član 5 se primenjuje."},
		},
		{
			name: "diacritic uppercase",
			text: "Kraj prvog dela. Šta dalje?",
			want: []string{"Kraj prvog dela.", "Šta dalje?"},
		},
		{
			name: "closing quote",
			text: `Rekao je "Da." Onda je otišao.`,
			want: []string{`Rekao je "Da."`, "Onda je otišao."},
		},
		{
			name: "no terminal punctuation",
			text: "Bez tačke na kraju",
			want: []string{"Bez tačke na kraju"},
		},
		{
			name: "empty",
			text: "   ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}
