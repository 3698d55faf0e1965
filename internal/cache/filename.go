package cache

import (
	"crypto/md5" //nolint:gosec // filename derivation, not security
	"encoding/hex"
	"strings"
	"unicode"
)

const (
	maxTitleRunes = 100
	fileExt       = ".mp3"
)

// Filename derives the cache filename for a favorite.
//
// With a title: letters, digits, space, '-' and '_' are kept, the result is
// trimmed, spaces become underscores and it is capped at 100 characters.
// Without a title, or when nothing survives sanitizing, the md5 of the URL is
// used instead.
func Filename(url, title string) string {
	if safe := sanitizeTitle(title); safe != "" {
		return safe + fileExt
	}
	sum := md5.Sum([]byte(url)) //nolint:gosec // filename derivation, not security
	return hex.EncodeToString(sum[:]) + fileExt
}

func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.TrimSpace(b.String())
	safe = strings.ReplaceAll(safe, " ", "_")

	runes := []rune(safe)
	if len(runes) > maxTitleRunes {
		runes = runes[:maxTitleRunes]
	}
	return string(runes)
}
