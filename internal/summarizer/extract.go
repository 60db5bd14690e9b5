package summarizer

import (
	"regexp"
	"strings"
)

var (
	leadingFenceRe  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFenceRe = regexp.MustCompile("\\s*```$")
)

// ExtractJSONObject returns the first top-level balanced {...} span of text,
// ignoring a surrounding code fence and any commentary. Braces inside JSON
// string literals do not count towards the depth. The span itself is not
// checked for JSON syntax.
func ExtractJSONObject(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = leadingFenceRe.ReplaceAllString(cleaned, "")
	cleaned = trailingFenceRe.ReplaceAllString(cleaned, "")

	start := strings.IndexByte(cleaned, '{')
	if start == -1 {
		return "", ErrNoJSONFound
	}

	var (
		depth    int
		inString bool
		escaped  bool
	)

	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}

	return "", ErrUnclosedJSON
}
