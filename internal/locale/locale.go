package locale

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdigest/internal/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	DefaultCountry = "US"
	DefaultLang    = "en-US"
)

//nolint:gochecknoglobals // Lookup tables meant to be immutable.
var (
	defaultLangByCountry = map[string]string{
		"TW": "zh-TW",
		"HK": "zh-HK",
		"MO": "zh-MO",
		"CN": "zh-CN",
		"JP": "ja-JP",
		"KR": "ko-KR",
		"SG": "en-SG",
		"MY": "en-MY",
		"TH": "th-TH",
		"VN": "vi-VN",
		"ID": "id-ID",
		"PH": "en-PH",
		"IN": "en-IN",
		"FR": "fr-FR",
		"DE": "de-DE",
		"ES": "es-ES",
		"IT": "it-IT",
		"PT": "pt-PT",
		"BR": "pt-BR",
		"RU": "ru-RU",
		"UA": "uk-UA",
	}

	// Google News expects script tags for Chinese editions.
	ceidLangOverride = map[string]string{
		"TW": "zh-Hant",
		"HK": "zh-Hant",
		"MO": "zh-Hant",
		"CN": "zh-Hans",
	}
)

// Overrides are explicit locale settings that take priority over detection.
type Overrides struct {
	Country string
	Lang    string
}

type countryDetector interface {
	DetectCountry(ctx context.Context, forceRefresh bool) (string, bool)
}

type Resolver struct {
	detector countryDetector
	log      *slog.Logger
}

func NewResolver(detector countryDetector, log *slog.Logger) *Resolver {
	return &Resolver{detector: detector, log: log}
}

// Resolve picks the locale from the overrides, then geo-IP detection, then
// US/en-US. A language override applies in every case.
func (r *Resolver) Resolve(ctx context.Context, o Overrides, forceRefresh bool) domain.Locale {
	country := strings.ToUpper(strings.TrimSpace(o.Country))
	lang := strings.TrimSpace(o.Lang)

	if country != "" {
		return domain.Locale{Country: country, Lang: langFor(country, lang)}
	}

	if r.detector != nil {
		if detected, ok := r.detector.DetectCountry(ctx, forceRefresh); ok {
			return domain.Locale{Country: detected, Lang: langFor(detected, lang)}
		}

		r.log.WarnContext(ctx, "Country detection failed so default locale will be used",
			"country", DefaultCountry)
	}

	if lang == "" {
		lang = DefaultLang
	}

	return domain.Locale{Country: DefaultCountry, Lang: lang}
}

func langFor(country string, override string) string {
	if override != "" {
		return override
	}

	if lang, ok := defaultLangByCountry[country]; ok {
		return lang
	}

	return DefaultLang
}

// GoogleNewsRSSURL builds the localized Google News top stories feed URL,
// e.g. https://news.google.com/rss?hl=zh-TW&gl=TW&ceid=TW:zh-Hant.
func GoogleNewsRSSURL(l domain.Locale) string {
	country := strings.ToUpper(strings.TrimSpace(l.Country))
	hl := strings.TrimSpace(l.Lang)

	ceidLang, ok := ceidLangOverride[country]
	if !ok {
		ceidLang, _, _ = strings.Cut(hl, "-")
		ceidLang = strings.ToLower(ceidLang)
	}

	return fmt.Sprintf("https://news.google.com/rss?hl=%s&gl=%s&ceid=%s:%s", hl, country, country, ceidLang)
}

// LanguageInstruction names the language summaries should be written in.
func LanguageInstruction(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))

	switch {
	case strings.HasPrefix(l, "zh-tw"), strings.HasPrefix(l, "zh-hk"), strings.HasPrefix(l, "zh-mo"):
		return "Traditional Chinese (繁體中文)"
	case strings.HasPrefix(l, "zh-cn"):
		return "Simplified Chinese (简体中文)"
	case strings.HasPrefix(l, "ja"):
		return "Japanese (日本語)"
	case strings.HasPrefix(l, "ko"):
		return "Korean (한국어)"
	case strings.HasPrefix(l, "fr"):
		return "French (français)"
	case strings.HasPrefix(l, "de"):
		return "German (Deutsch)"
	}

	tag, err := language.Parse(l)
	if err != nil {
		return "English"
	}

	base, _ := tag.Base()
	if base.String() == "en" || base.String() == "und" {
		return "English"
	}

	baseTag := language.Make(base.String())
	english := display.English.Languages().Name(baseTag)
	self := display.Self.Name(baseTag)

	switch {
	case english == "":
		return "English"
	case self == "" || self == english:
		return english
	default:
		return english + " (" + self + ")"
	}
}
