// risk.go - Heuristic domain risk classification
package analytics

import (
	"strings"

	"github.com/stealer-insight/analyzer/internal/models"
)

// RiskLevel is a coarse exposure bucket for a domain.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// highRiskMarkers flags domains worth immediate attention: major email,
// social and financial services. Matching is lowercase substring matching,
// not suffix or eTLD-aware matching, so "bank" also catches "mybank.example".
var highRiskMarkers = []string{
	"gmail.com", "outlook.com", "yahoo.com", "facebook.com", "twitter.com",
	"linkedin.com", "instagram.com", "apple.com", "microsoft.com", "google.com",
	"amazon.com", "paypal.com", "bank", "banking",
}

// ClassifyDomain buckets a domain as high or medium risk.
func ClassifyDomain(domain string) RiskLevel {
	lower := strings.ToLower(domain)
	for _, marker := range highRiskMarkers {
		if strings.Contains(lower, marker) {
			return RiskHigh
		}
	}
	return RiskMedium
}

// ClassifyCredential buckets a credential by its domain. A credential with
// no domain at all is low risk.
func ClassifyCredential(c models.Credential) RiskLevel {
	if c.Domain == nil || *c.Domain == "" {
		return RiskLow
	}
	return ClassifyDomain(*c.Domain)
}
