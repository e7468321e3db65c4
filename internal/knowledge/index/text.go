// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// # Text Preparation

const (
	chunkRunes   = 800
	chunkOverlap = 100
)

var folder = cases.Fold()

// Normalize turns raw upload bytes into indexable text.
//
// Invalid UTF-8 is dropped, the result is NFKC-normalized and runs of
// whitespace collapse to one space.
func Normalize(raw []byte) string {
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, " ")
	}
	text = norm.NFKC.String(text)

	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return ' '
		}
		return r
	}, text)

	return strings.Join(strings.Fields(text), " ")
}

// Chunk splits normalized text into overlapping windows, breaking on spaces
// where it can.
func Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkRunes {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := min(start+chunkRunes, len(runes))
		if end < len(runes) {
			if space := lastSpace(runes[start:end]); space > chunkRunes/2 {
				end = start + space
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}
		if end == len(runes) {
			break
		}
		start = max(end-chunkOverlap, start+1)
	}
	return chunks
}

// Tokenize case-folds text and splits it into letter and digit runs.
func Tokenize(text string) []string {
	folded := folder.String(norm.NFKC.String(text))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Excerpt truncates text to limit runes.
func Excerpt(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
