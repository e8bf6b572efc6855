package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stealer-insight/analyzer/internal/models"
)

func TestClassifyDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   RiskLevel
	}{
		{"gmail.com", RiskHigh},
		{"mail.GMAIL.com", RiskHigh}, // case-insensitive substring
		{"accounts.google.com", RiskHigh},
		{"mybanking-portal.example", RiskHigh}, // "banking" marker
		{"citibank.co.uk", RiskHigh},           // "bank" marker
		{"example.org", RiskMedium},
		{"internal.corp.local", RiskMedium},
		{"", RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDomain(tt.domain))
			// Pure function: same input, same bucket.
			assert.Equal(t, ClassifyDomain(tt.domain), ClassifyDomain(tt.domain))
		})
	}
}

func TestClassifyCredential(t *testing.T) {
	assert.Equal(t, RiskLow, ClassifyCredential(models.Credential{}))
	assert.Equal(t, RiskLow, ClassifyCredential(models.Credential{Domain: models.StringPtr("")}))
	assert.Equal(t, RiskHigh, ClassifyCredential(models.Credential{Domain: models.StringPtr("paypal.com")}))
	assert.Equal(t, RiskMedium, ClassifyCredential(models.Credential{Domain: models.StringPtr("example.org")}))
}

func TestCookieExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry string
		want   bool
	}{
		{"past RFC3339", "2000-01-01T00:00:00Z", true},
		{"future RFC3339", "2030-01-01T00:00:00Z", false},
		{"past without zone", "2020-05-04 10:00:00", true},
		{"past date only", "2023-12-31", true},
		{"unparseable is not expired", "not-a-date", false},
		{"empty is not expired", "", false},
		{"exact instant is not expired", "2024-06-01T12:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CookieExpired(tt.expiry, now))
		})
	}
}
