// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"strings"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// LocalesFor returns the preferred locales for lang, best first.
func LocalesFor(lang model.Language) []string {
	if lang == model.LanguageHindi {
		return []string{"hi-IN"}
	}
	return []string{"en-IN", "en-US"}
}

// NormalizeLocale canonicalizes a locale tag: "en_us" becomes "en-US".
func NormalizeLocale(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	parts := strings.Split(tag, "-")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) == 2 {
			parts[i] = strings.ToUpper(parts[i])
		} else {
			parts[i] = strings.ToLower(parts[i])
		}
	}
	return strings.Join(parts, "-")
}

func baseLanguage(tag string) string {
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// SelectVoice picks the best voice for lang. Exact locale matches are tried
// in preference order; after that any voice of the same base language is
// accepted. Among candidates the highest quality wins, ties keep the
// enumeration order.
func SelectVoice(voices []Voice, lang model.Language) (Voice, bool) {
	locales := LocalesFor(lang)

	for _, want := range locales {
		if v, ok := best(voices, func(v Voice) bool {
			return NormalizeLocale(v.Locale) == want
		}); ok {
			return v, true
		}
	}

	base := baseLanguage(locales[0])
	return best(voices, func(v Voice) bool {
		return baseLanguage(NormalizeLocale(v.Locale)) == base
	})
}

func best(voices []Voice, match func(Voice) bool) (Voice, bool) {
	var found Voice
	ok := false
	for _, v := range voices {
		if !match(v) {
			continue
		}
		if !ok || v.Quality > found.Quality {
			found = v
			ok = true
		}
	}
	return found, ok
}
