package middleware

import (
	"context"
	"net/http"
	"strings"

	"contentstudio/internal/i18n"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the request locale and country in the context. The locale
// comes from X-Locale, then Accept-Language, then the client country.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, country string) string {
	for _, h := range []string{"X-Locale", "Accept-Language"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return i18n.Match(v)
		}
	}
	switch {
	case strings.EqualFold(country, "ID"):
		return i18n.Indonesian
	case country != "":
		return i18n.English
	case i18n.Supported(fallback):
		return strings.ToLower(strings.TrimSpace(fallback))
	}
	return i18n.English
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return i18n.English
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code for the request:
// proxy headers first, then the locale region, then a GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	for _, key := range []string{"X-Locale", "Accept-Language"} {
		v := r.Header.Get(key)
		if region := i18n.Region(v); region != "" {
			return region
		}
		if strings.TrimSpace(v) != "" && i18n.Match(v) == i18n.Indonesian {
			return "ID"
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
