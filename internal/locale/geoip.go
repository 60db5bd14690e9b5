package locale

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultGeoIPURL     = "https://ipwho.is/"
	DefaultGeoIPTimeout = 6 * time.Second
	CountryCacheTTL     = 6 * time.Hour

	userAgent            = "news-summarizer/1.0"
	maxGeoIPResponseSize = 1 << 20
)

//nolint:gochecknoglobals // Fixed fallback list, read only.
var fallbackGeoIPURLs = []string{
	"https://ipapi.co/json/",
	"https://ipinfo.io/json",
}

// CountryCache stores the last detected country.
type CountryCache interface {
	GetCachedCountry(ctx context.Context, now time.Time, ttl time.Duration) (string, bool, error)
	SaveCountry(ctx context.Context, country string, fetchedAt time.Time) error
}

// Detector finds the caller's country through public geo-IP services.
type Detector struct {
	urls   []string
	client *http.Client
	cache  CountryCache
	now    func() time.Time
	log    *slog.Logger
}

// NewDetector queries primaryURL first and then the built-in fallbacks. A nil
// cache disables caching.
func NewDetector(primaryURL string, cache CountryCache, log *slog.Logger) *Detector {
	primaryURL = strings.TrimSpace(primaryURL)
	if primaryURL == "" {
		primaryURL = DefaultGeoIPURL
	}

	return &Detector{
		urls:   append([]string{primaryURL}, fallbackGeoIPURLs...),
		client: &http.Client{Timeout: DefaultGeoIPTimeout},
		cache:  cache,
		now:    time.Now,
		log:    log,
	}
}

// DetectCountry returns an ISO 3166-1 alpha-2 code, or false when every
// provider failed.
func (d *Detector) DetectCountry(ctx context.Context, forceRefresh bool) (string, bool) {
	if !forceRefresh && d.cache != nil {
		country, ok, err := d.cache.GetCachedCountry(ctx, d.now(), CountryCacheTTL)
		if err != nil {
			d.log.WarnContext(ctx, "Failed to read cached country",
				"error", err)
		} else if ok {
			d.log.DebugContext(ctx, "Using cached country",
				"country", country)

			return country, true
		}
	}

	for _, u := range d.urls {
		country, err := d.lookup(ctx, u)
		if err != nil {
			d.log.DebugContext(ctx, "Geo-IP lookup failed",
				"error", err,
				"geoIPURL", u)

			continue
		}

		if d.cache != nil {
			if err = d.cache.SaveCountry(ctx, country, d.now()); err != nil {
				d.log.WarnContext(ctx, "Failed to cache country",
					"error", err,
					"country", country)
			}
		}

		return country, true
	}

	return "", false
}

func (d *Detector) lookup(ctx context.Context, geoIPURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoIPURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeoIPResponseSize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	country, ok := extractCountryCode(body)
	if !ok {
		return "", errors.New("no country code in response")
	}

	return country, nil
}

func extractCountryCode(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}

	for _, key := range []string{"country_code", "countryCode", "country"} {
		v := strings.ToUpper(strings.TrimSpace(gjson.GetBytes(body, key).String()))
		if len(v) == 2 {
			return v, true
		}
	}

	return "", false
}
