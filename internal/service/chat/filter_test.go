package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsLink(t *testing.T) {
	blocked := []string{
		"check out https://spam.example/offer",
		"HTTP://CAPS.EXAMPLE",
		"visit www.findme.page now",
		"check out site.io",
		"my insta is cutie.club",
		"write me @hot_singles99",
		"ping @someone there",
	}
	for _, text := range blocked {
		assert.True(t, ContainsLink(text), "should block: %q", text)
	}

	allowed := []string{
		"hey, how was your day?",
		"i love dogs. and cats too",
		"meet at 7.30 near the station",
		"that movie was great",
		"email me at work tomorrow",
	}
	for _, text := range allowed {
		assert.False(t, ContainsLink(text), "should allow: %q", text)
	}
}

func TestNormalizeContent(t *testing.T) {
	assert.Equal(t, "hi", NormalizeContent("  hi \n"))
	assert.Equal(t, "", NormalizeContent("   \t\n"))
}
