package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"mvdan.cc/xurls/v2"
)

// StripHTML returns the text content of an HTML fragment.
func StripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(doc.Text())
}

// firstLink returns the first https URL found in an HTML snippet.
func firstLink(snippet string) string {
	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return ""
	}

	return strings.TrimSpace(httpsURLRe.FindString(snippet))
}
