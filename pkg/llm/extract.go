package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

var ErrNoJSON = errors.New("no JSON object in model output")

// ExtractCodeBlock returns the body of the first fenced block tagged lang,
// falling back to the first fence of any tag and finally to the trimmed text.
func ExtractCodeBlock(text, lang string) string {
	text = strings.TrimSpace(text)

	if lang != "" {
		if i := strings.Index(text, "```"+lang); i >= 0 {
			return untilFence(text[i+3+len(lang):])
		}
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		// the opening fence line may carry a tag such as "postgresql"
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && isTag(rest[:nl]) {
			rest = rest[nl+1:]
		}
		return untilFence(rest)
	}
	return text
}

func isTag(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func untilFence(s string) string {
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// ExtractJSON isolates the outermost {...} span of the text.
func ExtractJSON(text string) string {
	text = ExtractCodeBlock(text, "json")
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return text[startIdx : endIdx+1]
}

// DecodeJSON unmarshals the JSON object embedded in model output into v.
func DecodeJSON(text string, v any) error {
	payload := ExtractJSON(text)
	if payload == "" {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(payload), v)
}
