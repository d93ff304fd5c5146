package textutil

import "strings"

// Wrap splits text into greedy word-wrapped lines of at most width runes.
// A single word longer than width keeps its own line unbroken, so callers
// can detect overflow by comparing line lengths against the width budget.
// When the wrapped text needs more than maxLines lines, the extra lines are
// dropped. Returns nil for blank input.
func Wrap(text string, width, maxLines int) []string {
	lines := wrapWords(text, width)
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

// WrapEllipsis wraps like Wrap but marks truncation: when lines are dropped
// and the final kept line is longer than three runes, it loses any trailing
// periods and spaces and receives an ellipsis. Shorter final lines stay bare.
func WrapEllipsis(text string, width, maxLines int) []string {
	lines := wrapWords(text, width)
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	if last := lines[maxLines-1]; len([]rune(last)) > 3 {
		lines[maxLines-1] = strings.TrimRight(last, ". ") + "…"
	}
	return lines
}

func wrapWords(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	current := strings.Builder{}
	currentLen := 0
	for _, word := range words {
		wordLen := len([]rune(word))
		switch {
		case currentLen == 0:
			current.WriteString(word)
			currentLen = wordLen
		case currentLen+1+wordLen <= width:
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		}
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// LongestLine returns the rune length of the longest line.
func LongestLine(lines []string) int {
	longest := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	return longest
}
