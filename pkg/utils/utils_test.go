package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc", Truncate("abcdef", 3))

	// A multi-byte rune at the cut point is dropped whole, never split.
	s := strings.Repeat("x", 4) + "é tail"
	out := Truncate(s, 5)
	assert.Equal(t, strings.Repeat("x", 4), out)
	assert.True(t, utf8.ValidString(out))
}

func TestSafeText(t *testing.T) {
	assert.Equal(t, "trimmed", SafeText("  trimmed \n"))
	long := strings.Repeat("y", 100010)
	assert.Len(t, SafeText(long), 100000)
}

func TestCleanToValidUTF8(t *testing.T) {
	assert.Equal(t, "ok", CleanToValidUTF8("ok"))
	assert.Equal(t, "ab", CleanToValidUTF8("a\x00b"))
	assert.True(t, utf8.ValidString(CleanToValidUTF8("bad\xc3seq")))
}
