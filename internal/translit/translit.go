// Package translit romanizes Devanagari and Gujarati text into a lowercase
// ITRANS-flavored Latin rendering, used by the transcription stage's
// romanized output mode.
package translit

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// The Gujarati block mirrors the Devanagari block at a fixed offset
// (ISCII-aligned layouts), so one table set covers both scripts.
const gujaratiOffset = 0x0A85 - 0x0905

const virama = '्'

var vowels = map[rune]string{
	'अ': "a", 'आ': "aa", 'इ': "i", 'ई': "ii",
	'उ': "u", 'ऊ': "uu", 'ऋ': "ri", 'ऌ': "li",
	'ऍ': "e", 'ऎ': "e", 'ए': "e", 'ऐ': "ai",
	'ऑ': "o", 'ऒ': "o", 'ओ': "o", 'औ': "au",
}

var consonants = map[rune]string{
	'क': "k", 'ख': "kh", 'ग': "g", 'घ': "gh", 'ङ': "ng",
	'च': "ch", 'छ': "chh", 'ज': "j", 'झ': "jh", 'ञ': "ny",
	'ट': "t", 'ठ': "th", 'ड': "d", 'ढ': "dh", 'ण': "n",
	'त': "t", 'थ': "th", 'द': "d", 'ध': "dh", 'न': "n",
	'प': "p", 'फ': "ph", 'ब': "b", 'भ': "bh", 'म': "m",
	'य': "y", 'र': "r", 'ल': "l", 'ळ': "l", 'व': "v",
	'श': "sh", 'ष': "sh", 'स': "s", 'ह': "h",
	'क़': "q", 'ख़': "kh", 'ग़': "g", 'ज़': "z",
	'ड़': "d", 'ढ़': "dh", 'फ़': "f", 'य़': "y",
}

var matras = map[rune]string{
	'ा': "aa", 'ि': "i", 'ी': "ii", 'ु': "u",
	'ू': "uu", 'ृ': "ri", 'ॄ': "rii", 'ॅ': "e",
	'ॆ': "e", 'े': "e", 'ै': "ai", 'ॉ': "o",
	'ॊ': "o", 'ो': "o", 'ौ': "au",
}

var signs = map[rune]string{
	'ँ': "n", 'ं': "n", 'ः': "h",
	'ॐ': "om",
	'।': ".", '॥': "..",
}

// Supported reports whether the language has a romanization table.
func Supported(language string) bool {
	return language == "hi" || language == "gu"
}

// Romanize transliterates text for the given language code ("hi" or "gu").
// Unsupported languages are returned unchanged.
func Romanize(text, language string) string {
	if !Supported(language) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	// A consonant carries an inherent short 'a' unless a matra or virama
	// follows it.
	pendingA := false
	flush := func() {
		if pendingA {
			b.WriteByte('a')
			pendingA = false
		}
	}

	for _, r := range norm.NFC.String(text) {
		if r >= 0x0A80 && r <= 0x0AFF {
			r -= gujaratiOffset
		}

		switch {
		case r == virama:
			pendingA = false
		case r == '़': // nuqta dropped, the base consonant stands in
		case matras[r] != "":
			pendingA = false
			b.WriteString(matras[r])
		case consonants[r] != "":
			flush()
			b.WriteString(consonants[r])
			pendingA = true
		case vowels[r] != "":
			flush()
			b.WriteString(vowels[r])
		case signs[r] != "":
			flush()
			b.WriteString(signs[r])
		case r >= '०' && r <= '९':
			flush()
			b.WriteRune('0' + (r - '०'))
		default:
			flush()
			b.WriteRune(unicode.ToLower(r))
		}
	}
	flush()
	return b.String()
}
