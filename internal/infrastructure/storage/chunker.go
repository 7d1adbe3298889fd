package storage

import "strings"

// chunkText splits text into chunks of at most size characters with overlap
// characters carried over between consecutive chunks, cutting on whitespace
// where possible so words stay intact.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}

		cut := lastWhitespace(text[start:end])
		if cut <= 0 {
			cut = size
		}
		chunks = append(chunks, strings.TrimSpace(text[start:start+cut]))

		next := start + cut - overlap
		if next <= start {
			next = start + cut
		} else {
			// The overlap step can land mid-word; advance to the next
			// boundary so chunks never begin with a word fragment.
			for next < start+cut && !isWhitespace(text[next]) && !isWhitespace(text[next-1]) {
				next++
			}
		}
		start = next
	}

	var out []string
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func lastWhitespace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if isWhitespace(s[i]) {
			return i
		}
	}
	return -1
}

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\n', '\t', '\r':
		return true
	}
	return false
}
