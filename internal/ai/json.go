package ai

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	fenceRe  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	objectRe = regexp.MustCompile(`\{[\s\S]*\}`)
	arrayRe  = regexp.MustCompile(`\[[\s\S]*\]`)
)

// ExtractJSON pulls a JSON object or array out of messy model output.
// Markdown code fences are stripped first, then a direct parse is attempted,
// then the first {...} or [...] span. The second return value is false when
// no JSON could be recovered.
func ExtractJSON(text string) (any, bool) {
	if text == "" {
		return nil, false
	}

	cleaned := fenceRe.ReplaceAllString(strings.TrimSpace(text), "$1")
	cleaned = strings.TrimSpace(cleaned)

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return parsed, true
	}

	for _, re := range []*regexp.Regexp{objectRe, arrayRe} {
		if match := re.FindString(cleaned); match != "" {
			if err := json.Unmarshal([]byte(match), &parsed); err == nil {
				return parsed, true
			}
		}
	}

	return nil, false
}

// Truncate trims text to at most maxChars bytes, backing up to a rune
// boundary so multi-byte characters are never split, and appends "..." when
// anything was cut.
func Truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
