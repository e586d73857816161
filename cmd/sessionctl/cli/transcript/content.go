package transcript

import (
	"regexp"
	"strings"
)

// TitleMaxLen caps derived session titles.
const TitleMaxLen = 100

// DefaultTitle is used when a session has no user message to derive a title from.
const DefaultTitle = "Untitled"

// ideTagPattern matches embedded editor-context tags such as
// <ide_opened_file>...</ide_opened_file> that prefix user prompts.
var ideTagPattern = regexp.MustCompile(`(?s)<ide_[^>]*>.*?</ide_[^>]*>`)

// StripIDETags removes embedded editor-context tags from prompt text.
func StripIDETags(text string) string {
	return strings.TrimSpace(ideTagPattern.ReplaceAllString(text, ""))
}

// ExtractTitle derives a display title from prompt text: editor-context tags
// are stripped, only the text up to the first blank line (or first newline)
// is kept, and the result is capped at TitleMaxLen runes with an ellipsis.
func ExtractTitle(text string) string {
	cleaned := StripIDETags(text)
	if cleaned == "" {
		return DefaultTitle
	}

	if i := strings.Index(cleaned, "\n\n"); i >= 0 {
		cleaned = cleaned[:i]
	} else if i := strings.Index(cleaned, "\n"); i >= 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return DefaultTitle
	}

	if runes := []rune(cleaned); len(runes) > TitleMaxLen {
		return string(runes[:TitleMaxLen]) + "..."
	}
	return cleaned
}
