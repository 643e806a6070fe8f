package utils

import (
	"context"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"golang-deal-sentinel/pkg/logger"
)

// GoSafe runs fn in a new goroutine and recovers from panics so a single
// worker cannot take down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				debug.PrintStack()
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still alive, logging when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("Context cancelled, stopping work", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes from s.
func CleanToValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return strings.ReplaceAll(s, "\x00", "")
	}
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

// SafeText trims whitespace and caps the text at a sane length for storage.
func SafeText(s string) string {
	const maxLen = 100000
	return Truncate(strings.TrimSpace(s), maxLen)
}

// Truncate returns s cut to at most n bytes. The cut never splits a
// multi-byte rune, so the result is always valid UTF-8 when s is.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
