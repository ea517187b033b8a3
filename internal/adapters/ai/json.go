package ai

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON strips markdown fences and surrounding prose from a model reply
func ExtractJSON(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")

	var (
		start   int
		endChar string
	)

	switch {
	case startObj >= 0 && (startArr < 0 || startObj < startArr):
		start, endChar = startObj, "}"
	case startArr >= 0:
		start, endChar = startArr, "]"
	default:
		return strings.TrimSpace(text)
	}

	if end := strings.LastIndex(text, endChar); end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return strings.TrimSpace(text)
}
