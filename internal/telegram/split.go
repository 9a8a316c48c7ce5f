package telegram

import "strings"

// SplitMessage cuts text into chunks of at most limit runes, breaking after a newline
// when one falls in the second half of the chunk.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		if nl := lastIndexRune(runes[:limit], '\n'); nl >= limit/2 {
			cut = nl + 1
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if rest := string(runes); strings.TrimSpace(rest) != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}
