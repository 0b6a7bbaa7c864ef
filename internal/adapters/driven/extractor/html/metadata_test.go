package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstYear(t *testing.T) {
	assert.Equal(t, 2019, firstYear("Zakon iz 2019. godine, izmene 2021"))
	assert.Equal(t, 1995, firstYear("od 1995"))
	assert.Zero(t, firstYear("pre 1989"))
	assert.Zero(t, firstYear("broj 120201"))
	assert.Zero(t, firstYear(""))
}

func TestLawReference(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"abbreviated with amendments",
			`Zakon o PDV ("Sl. glasnik RS", br. 84/2004, 86/2004 i 61/2005) uređuje`,
			`"Sl. glasnik RS", br. 84/2004, 86/2004 i 61/2005`,
		},
		{
			"full name",
			"objavljen u Službeni glasnik Republike Srbije, br. 24/01",
			"Službeni glasnik Republike Srbije, br. 24/01",
		},
		{"none", "Porez na dobit pravnih lica", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lawReference(tt.text))
		})
	}
}

func TestTitleFromURL(t *testing.T) {
	assert.Equal(t, "porez na dohodak", titleFromURL("https://x.rs/a/porez-na-dohodak.html"))
	assert.Equal(t, "stope", titleFromURL("https://x.rs/pdv/stope/"))
	assert.Equal(t, "x.rs", titleFromURL("https://x.rs/"))
}
