// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 🔍 Contains reports whether pattern occurs in text, ignoring case.
// There is no word boundary anchoring: "10%" matches inside "310%".
func Contains(text, pattern string) bool {
	start, _ := Index(text, pattern)
	return start >= 0
}

// 🔍 Index returns the byte span [start, end) of the first case-insensitive
// occurrence of pattern in text, or (-1, -1).
func Index(text, pattern string) (int, int) {
	return indexFrom(text, pattern, 0)
}

// 📍 Spans returns every case-insensitive occurrence of pattern in text,
// including overlapping ones, as byte spans.
func Spans(text, pattern string) [][2]int {
	var out [][2]int
	for i := 0; i < len(text); {
		start, end := indexFrom(text, pattern, i)
		if start < 0 {
			break
		}
		out = append(out, [2]int{start, end})
		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + size
	}
	return out
}

// 🔄 Replace rewrites every non-overlapping occurrence of pattern with
// replacement, exactly as authored. Occurrences that already sit inside an
// occurrence of replacement are left alone, so rules whose pattern is part of
// their own replacement can be applied repeatedly without growing the text.
func Replace(text, pattern, replacement string) (string, int) {
	if pattern == "" {
		return text, 0
	}

	var covers [][2]int
	if Contains(replacement, pattern) {
		covers = Spans(text, replacement)
	}

	var b strings.Builder
	count, last, i := 0, 0, 0
	for i <= len(text) {
		start, end := indexFrom(text, pattern, i)
		if start < 0 {
			break
		}
		if span, ok := covering(covers, start, end); ok {
			i = span[1]
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(replacement)
		last, i = end, end
		count++
	}

	if count == 0 {
		return text, 0
	}
	b.WriteString(text[last:])
	return b.String(), count
}

// 🛡️ Covered reports whether the span [start, end) lies inside one of spans.
func Covered(spans [][2]int, start, end int) bool {
	_, ok := covering(spans, start, end)
	return ok
}

func covering(spans [][2]int, start, end int) ([2]int, bool) {
	for _, s := range spans {
		if s[0] <= start && end <= s[1] {
			return s, true
		}
	}
	return [2]int{}, false
}

func indexFrom(text, pattern string, from int) (int, int) {
	if pattern == "" {
		return -1, -1
	}
	for i := from; i < len(text); {
		if end, ok := matchAt(text, i, pattern); ok {
			return i, end
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return -1, -1
}

// matchAt compares rune by rune so folded forms with different byte widths
// still yield offsets into the original text.
func matchAt(text string, i int, pattern string) (int, bool) {
	j := i
	for _, pr := range pattern {
		if j >= len(text) {
			return 0, false
		}
		tr, size := utf8.DecodeRuneInString(text[j:])
		if !equalFold(tr, pr) {
			return 0, false
		}
		j += size
	}
	return j, true
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
