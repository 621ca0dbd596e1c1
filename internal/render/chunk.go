package render

import "strings"

// Chunk splits text into pieces no longer than maxLen, preferring paragraph
// boundaries (double newline) so formatting blocks survive the split. A
// single paragraph longer than maxLen is split hard.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, part := range strings.Split(text, "\n\n") {
		for len(part) > maxLen {
			flush()
			chunks = append(chunks, part[:maxLen])
			part = part[maxLen:]
		}

		if current.Len()+len(part)+2 > maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(part)
	}
	flush()

	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}
