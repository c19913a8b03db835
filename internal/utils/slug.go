package utils

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 200

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// Kazakh letters
	'ә': "a", 'ғ': "g", 'қ': "k", 'ң': "n", 'ө': "o", 'ұ': "u", 'ү': "u", 'һ': "h", 'і': "i",
}

// Slugify turns s into a lowercase ASCII slug with single dashes between
// words. Cyrillic is transliterated before accents are stripped.
func Slugify(s string) string {
	var latin strings.Builder
	for _, r := range strings.ToLower(s) {
		if out, ok := cyrillic[r]; ok {
			latin.WriteString(out)
			continue
		}
		latin.WriteRune(r)
	}

	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		latin.String(),
	)
	if err != nil {
		stripped = latin.String()
	}

	var b strings.Builder
	dash := false
	for _, r := range stripped {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimSuffix(slug[:maxSlugLen], "-")
	}
	return slug
}

// UniqueSlug slugifies base and appends -2, -3, ... until exists reports false.
// An empty slug falls back to fallback.
func UniqueSlug(ctx context.Context, base, fallback string, exists func(context.Context, string) (bool, error)) (string, error) {
	slug := Slugify(base)
	if slug == "" {
		slug = fallback
	}

	candidate := slug
	for i := 2; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}
