// cookies.go - Cookie expiry evaluation
package analytics

import (
	"time"
)

// expiryLayouts are the date shapes the service has been observed to emit.
// RFC3339 first; the rest cover browser export formats without zone info.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseExpiry parses a cookie expiry string. The boolean is false when no
// known layout matches.
func ParseExpiry(expiry string) (time.Time, bool) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, expiry); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CookieExpired reports whether a cookie expired strictly before now.
// Unparseable expiry values count as not expired: a malformed date must
// never crash evaluation or hide a possibly live session.
func CookieExpired(expiry string, now time.Time) bool {
	t, ok := ParseExpiry(expiry)
	if !ok {
		return false
	}
	return t.Before(now)
}
