package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n`)

// SplitParagraphs splits text on blank lines.
// Paragraphs are trimmed and empty ones dropped.
func SplitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitSentences splits text at sentence boundaries.
//
// A boundary is '.', '!' or '?' (optionally followed by closing quotes or
// brackets), then whitespace, then an uppercase letter. Abbreviations such
// as "br. 24" or "Sl. glasnik" do not end a sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i
		for end < len(text) {
			c, n := utf8.DecodeRuneInString(text[end:])
			if !isCloser(c) {
				break
			}
			end += n
		}

		next := end
		sawSpace := false
		for next < len(text) {
			c, n := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(c) {
				break
			}
			sawSpace = true
			next += n
		}
		if !sawSpace || next >= len(text) {
			continue
		}

		c, _ := utf8.DecodeRuneInString(text[next:])
		if !unicode.IsUpper(c) && !isOpener(c) {
			continue
		}

		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = next
		i = next
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '”', '’':
		return true
	}
	return false
}

func isOpener(r rune) bool {
	switch r {
	case '"', '«', '„', '“':
		return true
	}
	return false
}
