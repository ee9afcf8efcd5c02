package transcript

import (
	"strings"
	"unicode/utf8"
)

// DefaultWrapWidth is the line width messages are wrapped to when the host
// does not pick one.
const DefaultWrapWidth = 45

// Wrap reflows text into a newline-joined, display-ready string. It runs two
// phases: first any space-separated token longer than maxChars gets a hard
// break every maxChars characters, then the tokens are greedily packed into
// lines of at most maxChars characters.
//
// A force-broken token keeps its embedded newlines through the greedy phase,
// so its full multi-line length counts as a single token there. Wrap is a
// one-shot formatter for raw message text; re-wrapping already wrapped output
// is not guaranteed to be stable across repeated forced breaks.
func Wrap(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultWrapWidth
	}
	adjusted := splitLongTokens(text, maxChars)

	var lines []string
	currentLine := ""
	for _, word := range strings.Split(adjusted, " ") {
		if currentLine != "" && utf8.RuneCountInString(currentLine)+utf8.RuneCountInString(word) > maxChars {
			lines = append(lines, strings.TrimSpace(currentLine))
			currentLine = ""
		}
		currentLine += word + " "
	}
	if currentLine != "" {
		lines = append(lines, strings.TrimSpace(currentLine))
	}
	return strings.Join(lines, "\n")
}

// splitLongTokens inserts a line break every maxChars characters into any
// space-separated token longer than maxChars. Tokens at or under the limit
// pass through untouched.
func splitLongTokens(text string, maxChars int) string {
	words := strings.Split(text, " ")
	for i, word := range words {
		if utf8.RuneCountInString(word) <= maxChars {
			continue
		}
		var b strings.Builder
		count := 0
		for _, ch := range word {
			b.WriteRune(ch)
			count++
			if count == maxChars {
				b.WriteByte('\n')
				count = 0
			}
		}
		words[i] = strings.TrimSpace(b.String())
	}
	return strings.Join(words, " ")
}
