package extract

import (
	"strings"
	"unicode"
)

// minMessageWords is the minimum word count before extraction is attempted.
// Shorter messages are answered with a clarifying question, not an error.
const minMessageWords = 2

// Acceptable reports whether a message carries enough signal to attempt
// extraction. Rejections happen before any extraction strategy runs.
func Acceptable(message string) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return false
	}

	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	return len(strings.Fields(trimmed)) >= minMessageWords
}

// ClarifyPrompt is the canned clarifying question used when a message is
// rejected by the quality gate.
const ClarifyPrompt = "Could you describe your strategy in a bit more detail? " +
	"For example: the setup you trade, the instrument, and where your stop goes."
