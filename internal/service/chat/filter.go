package chat

import (
	"regexp"
	"strings"
)

// The content filter blocks off-platform contact sharing in chat. It is a
// heuristic: bare-domain matching catches "site dot io" style spellings only
// when written as real domains, and a sentence ending like "ok.So" can false
// positive on the TLD list. Tighter than this starts eating normal prose.
var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://\S+`),
	regexp.MustCompile(`(?i)\bwww\.\S+`),
	regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*\.(?:com|net|org|io|ru|me|co|app|dev|xyz|info|site|online|store|club|live|chat|link|gg|tv|cc|to)\b`),
	regexp.MustCompile(`(^|\s)@[A-Za-z0-9_]{4,}\b`),
}

// ContainsLink reports whether the text carries a URL, a bare domain or a
// messaging handle.
func ContainsLink(text string) bool {
	for _, p := range linkPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// NormalizeContent trims surrounding whitespace; an empty result means the
// message has no sendable content.
func NormalizeContent(text string) string {
	return strings.TrimSpace(text)
}
