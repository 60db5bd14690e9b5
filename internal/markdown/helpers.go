package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const (
	mdV2SpecialChars = `\_*[]()~` + "`" + `>#+-=|{}.!`
	mdV2URLChars     = `\)`
)

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	mdV2Lookup    = lookupFor(mdV2SpecialChars)
	mdV2URLLookup = lookupFor(mdV2URLChars)
)

// EscapeV2 escapes text for a MarkdownV2 message body.
func EscapeV2(input string) string {
	return escape(input, &mdV2Lookup)
}

// EscapeURLV2 escapes the URL part of an inline MarkdownV2 link, where only
// ")" and "\" are special.
func EscapeURLV2(input string) string {
	return escape(input, &mdV2URLLookup)
}

// Link formats an inline MarkdownV2 link.
func Link(text string, url string) string {
	return "[" + EscapeV2(text) + "](" + EscapeURLV2(url) + ")"
}

func escape(input string, lookup *[256]bool) string {
	charsToEscape := 0

	for i := range len(input) {
		if lookup[input[i]] {
			charsToEscape++
		}
	}
	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

func lookupFor(chars string) [256]bool {
	var m [256]bool
	for i := range len(chars) {
		m[chars[i]] = true
	}
	return m
}
