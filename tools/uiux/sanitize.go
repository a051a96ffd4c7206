package uiux

import "strings"

const untitled = "untitled"

// Slug lowercases ASCII letters and digits, turns whitespace into '-' and
// drops everything else.
func Slug(input string) string {
	var b strings.Builder
	for _, r := range input {
		switch {
		case isSafeRune(r):
			b.WriteRune(toLowerASCII(r))
		case isSpace(r):
			b.WriteByte('-')
		}
	}
	return orUntitled(strings.Trim(b.String(), "-"))
}

// PathSegment keeps case, turns whitespace into '_' and drops separators,
// dots and everything else, so the result never escapes its directory.
func PathSegment(input string) string {
	var b strings.Builder
	for _, r := range input {
		switch {
		case isSafeRune(r):
			b.WriteRune(r)
		case isSpace(r):
			b.WriteByte('_')
		}
	}
	return orUntitled(strings.Trim(b.String(), "-_"))
}

func isSafeRune(r rune) bool {
	return r == '-' || r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' || r == 0x3000
}

func toLowerASCII(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func orUntitled(s string) string {
	if s == "" {
		return untitled
	}
	return s
}
