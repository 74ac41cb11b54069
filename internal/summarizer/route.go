// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package summarizer

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	endpointEnglish = "/summarize"
	endpointMarathi = "/summarize-marathi"
)

// Normalize returns text in Unicode NFC form. Devanagari typed on different
// keyboards can arrive decomposed.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// IsDevanagari reports whether most letters in text are Devanagari.
func IsDevanagari(text string) bool {
	var deva, other int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			deva++
		case unicode.IsLetter(r):
			other++
		}
	}
	return deva > 0 && deva >= other
}

// EndpointFor picks the summarize endpoint for text.
func EndpointFor(text string) string {
	if IsDevanagari(text) {
		return endpointMarathi
	}
	return endpointEnglish
}
