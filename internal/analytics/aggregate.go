// Package analytics computes derived statistics over a completed
// AnalysisResult: totals, uniqueness sets, risk classification, geographic
// and software distributions. Everything here is a pure function of its
// inputs and is safe to call from any goroutine on the same immutable
// result.
package analytics

import (
	"sort"
	"time"

	"github.com/stealer-insight/analyzer/internal/models"
)

// RiskCounts buckets the unique domains by risk level.
type RiskCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// CookieStats summarizes the cookie population.
type CookieStats struct {
	Total         int `json:"total"`
	Expired       int `json:"expired"`
	Secure        int `json:"secure"`
	UniqueDomains int `json:"unique_domains"`
}

// Summary is the aggregate view of one AnalysisResult. Slice fields keep
// first-encounter order; map fields are plain distributions.
type Summary struct {
	SystemCount     int `json:"system_count"`
	CredentialCount int `json:"credential_count"`
	CookieCount     int `json:"cookie_count"`

	UniqueDomains  []string `json:"unique_domains"`
	UniqueSoftware []string `json:"unique_software"`
	StealerNames   []string `json:"stealer_names"`

	Countries     map[string]int `json:"countries"`
	SoftwareUsage map[string]int `json:"software_usage"`

	Risk    RiskCounts  `json:"risk"`
	Cookies CookieStats `json:"cookies"`
}

// NameCount is one entry of a ranked distribution.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DomainExposure is one domain with its credential exposure and risk bucket.
type DomainExposure struct {
	Domain      string    `json:"domain"`
	Credentials int       `json:"credentials"`
	Risk        RiskLevel `json:"risk"`
}

// SystemSummary is the per-entry view used for reporting: host metadata
// plus artifact counts.
type SystemSummary struct {
	Index           int                  `json:"index"`
	System          *models.SystemRecord `json:"system"`
	CredentialCount int                  `json:"credential_count"`
	CookieCount     int                  `json:"cookie_count"`
}

// Aggregate computes the full summary. Cookie expiry is evaluated against
// now so the function stays deterministic for a fixed instant.
func Aggregate(res *models.AnalysisResult, now time.Time) Summary {
	s := Summary{
		SystemCount:   len(res.SystemsData),
		Countries:     make(map[string]int),
		SoftwareUsage: make(map[string]int),
	}

	seenDomains := make(map[string]struct{})
	seenSoftware := make(map[string]struct{})
	seenStealers := make(map[string]struct{})

	addDomain := func(d string) {
		if _, ok := seenDomains[d]; !ok {
			seenDomains[d] = struct{}{}
			s.UniqueDomains = append(s.UniqueDomains, d)
		}
	}
	addStealer := func(name *string) {
		if name == nil || *name == "" {
			return
		}
		if _, ok := seenStealers[*name]; !ok {
			seenStealers[*name] = struct{}{}
			s.StealerNames = append(s.StealerNames, *name)
		}
	}

	for _, entry := range res.SystemsData {
		if entry.System != nil && entry.System.Country != nil && *entry.System.Country != "" {
			s.Countries[*entry.System.Country]++
		}

		s.CredentialCount += len(entry.Credentials)
		for _, cred := range entry.Credentials {
			if cred.Domain != nil && *cred.Domain != "" {
				addDomain(*cred.Domain)
			}
			if cred.Software != nil && *cred.Software != "" {
				if _, ok := seenSoftware[*cred.Software]; !ok {
					seenSoftware[*cred.Software] = struct{}{}
					s.UniqueSoftware = append(s.UniqueSoftware, *cred.Software)
				}
				s.SoftwareUsage[*cred.Software]++
			}
			addStealer(cred.StealerName)
		}

		s.CookieCount += len(entry.Cookies)
		for _, cookie := range entry.Cookies {
			addDomain(cookie.Domain)
			if cookie.Browser != nil && *cookie.Browser != "" {
				s.SoftwareUsage[*cookie.Browser]++
			}
			addStealer(cookie.StealerName)

			s.Cookies.Total++
			if cookie.Secure {
				s.Cookies.Secure++
			}
			if CookieExpired(cookie.Expiry, now) {
				s.Cookies.Expired++
			}
		}
	}

	cookieDomains := make(map[string]struct{})
	for _, entry := range res.SystemsData {
		for _, cookie := range entry.Cookies {
			cookieDomains[cookie.Domain] = struct{}{}
		}
	}
	s.Cookies.UniqueDomains = len(cookieDomains)

	for _, domain := range s.UniqueDomains {
		if ClassifyDomain(domain) == RiskHigh {
			s.Risk.High++
		} else {
			s.Risk.Medium++
		}
	}

	return s
}

// DomainCredentialCount counts the credentials across all entries whose
// domain equals the given one exactly (case-sensitive, no normalization).
func DomainCredentialCount(res *models.AnalysisResult, domain string) int {
	count := 0
	for _, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			if cred.Domain != nil && *cred.Domain == domain {
				count++
			}
		}
	}
	return count
}

// TopSoftware ranks the merged software/browser distribution by descending
// count. Ties keep first-encounter order (stable sort), never alphabetical.
func TopSoftware(res *models.AnalysisResult, n int) []NameCount {
	counts := make(map[string]int)
	var order []string

	bump := func(name string) {
		if name == "" {
			return
		}
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}

	for _, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			if cred.Software != nil {
				bump(*cred.Software)
			}
		}
		for _, cookie := range entry.Cookies {
			if cookie.Browser != nil {
				bump(*cookie.Browser)
			}
		}
	}

	ranked := make([]NameCount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, NameCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopDomains ranks the unique domains by credential exposure, descending,
// ties broken by first-encounter order.
func TopDomains(res *models.AnalysisResult, n int) []DomainExposure {
	seen := make(map[string]struct{})
	var domains []string
	add := func(d string) {
		if d == "" {
			return
		}
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			domains = append(domains, d)
		}
	}

	for _, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			if cred.Domain != nil {
				add(*cred.Domain)
			}
		}
		for _, cookie := range entry.Cookies {
			add(cookie.Domain)
		}
	}

	ranked := make([]DomainExposure, 0, len(domains))
	for _, domain := range domains {
		ranked = append(ranked, DomainExposure{
			Domain:      domain,
			Credentials: DomainCredentialCount(res, domain),
			Risk:        ClassifyDomain(domain),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Credentials > ranked[j].Credentials
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// PerSystemSummaries returns the per-entry host metadata and artifact
// counts in entry order.
func PerSystemSummaries(res *models.AnalysisResult) []SystemSummary {
	summaries := make([]SystemSummary, 0, len(res.SystemsData))
	for i, entry := range res.SystemsData {
		summaries = append(summaries, SystemSummary{
			Index:           i,
			System:          entry.System,
			CredentialCount: len(entry.Credentials),
			CookieCount:     len(entry.Cookies),
		})
	}
	return summaries
}
