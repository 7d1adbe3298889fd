package pipeline

import (
	"sort"
	"strings"
)

type intent int

const (
	intentChat intent = iota
	intentReport
)

var reportKeywords = []string{
	"blood test", "lab result", "scan", "x-ray", "mri",
	"diagnosis", "prescription", "medical report", "test result",
}

var chatKeywords = []string{
	"what is", "how is", "tell me", "explain", "show me",
	"history", "previous", "compare", "when", "why",
}

// classifyIntent decides whether free text is a conversational query or report
// content. A question mark, or a chat keyword without any report keyword,
// means chat; a report keyword or a long message (>50 words) means report;
// everything else defaults to chat. Best effort only.
func classifyIntent(text string) intent {
	lower := strings.ToLower(text)

	hasChat := containsAny(lower, chatKeywords)
	hasReport := containsAny(lower, reportKeywords)

	if strings.Contains(text, "?") || (hasChat && !hasReport) {
		return intentChat
	}
	if hasReport || len(strings.Fields(text)) > 50 {
		return intentReport
	}
	return intentChat
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
