package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	//go:embed assets/report.css
	reportCSS string

	//go:embed assets/report.html.tmpl
	reportTemplate string
)

type page struct {
	Lang   string
	CSS    template.CSS
	Header []template.HTML
	Cards  [][]template.HTML
}

// Renderer turns report Markdown into a standalone HTML page. Model output is
// untrusted, so the converted HTML is sanitized before layout.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	tmpl   *template.Template
}

func NewRenderer() *Renderer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: p,
		tmpl:   template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// RenderHTML converts markdown into the final page. lang sets the document
// language and defaults to "en".
func (r *Renderer) RenderHTML(markdown string, lang string) (string, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	safe := r.policy.SanitizeBytes(body.Bytes())

	header, cards, err := layoutCards(safe)
	if err != nil {
		return "", fmt.Errorf("layout cards: %w", err)
	}

	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = "en"
	}

	var out bytes.Buffer
	err = r.tmpl.Execute(&out, page{
		Lang:   lang,
		CSS:    template.CSS(reportCSS), //nolint:gosec // Embedded stylesheet.
		Header: header,
		Cards:  cards,
	})
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return out.String(), nil
}

// layoutCards moves the leading heading and metadata list into the header and
// groups every H2 section into its own card. Rules are dropped.
func layoutCards(fragment []byte) ([]template.HTML, [][]template.HTML, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fragment))
	if err != nil {
		return nil, nil, fmt.Errorf("create document from reader: %w", err)
	}

	var (
		header  []template.HTML
		cards   [][]template.HTML
		current []template.HTML
		errs    []error
	)

	flush := func() {
		if len(current) > 0 {
			cards = append(cards, current)
			current = nil
		}
	}

	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		html, outerErr := goquery.OuterHtml(s)
		if outerErr != nil {
			errs = append(errs, outerErr)
			return
		}

		//nolint:gosec // Sanitized by bluemonday above.
		node := template.HTML(html)

		switch goquery.NodeName(s) {
		case "h1":
			header = append(header, node)
		case "ul":
			if len(cards) == 0 && current == nil {
				s.AddClass("meta")
				html, outerErr = goquery.OuterHtml(s)
				if outerErr != nil {
					errs = append(errs, outerErr)
					return
				}
				header = append(header, template.HTML(html)) //nolint:gosec // Sanitized by bluemonday above.
				return
			}
			current = append(current, node)
		case "hr":
		case "h2":
			flush()
			current = []template.HTML{node}
		default:
			current = append(current, node)
		}
	})
	flush()

	if len(errs) > 0 {
		return nil, nil, errs[0]
	}

	return header, cards, nil
}
