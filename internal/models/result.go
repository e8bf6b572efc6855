// Package models defines the shared data model for a completed archive
// analysis: systems, credentials and cookies as returned by the remote
// analysis service.
package models

// SystemRecord describes one compromised machine. Every field is optional;
// a nil pointer means the value is unknown, which is distinct from an empty
// string and must survive serialization round-trips.
type SystemRecord struct {
	MachineID    *string `json:"machine_id,omitempty"`
	ComputerName *string `json:"computer_name,omitempty"`
	HardwareID   *string `json:"hardware_id,omitempty"`
	MachineUser  *string `json:"machine_user,omitempty"`
	IPAddress    *string `json:"ip_address,omitempty"`
	Country      *string `json:"country,omitempty"`
	LogDate      *string `json:"log_date,omitempty"`
}

// Credential is one extracted login artifact. Credentials belong to exactly
// one system entry and keep the insertion order of the source archive.
type Credential struct {
	Software    *string `json:"software,omitempty"`
	Host        *string `json:"host,omitempty"`
	Username    *string `json:"username,omitempty"`
	Password    *string `json:"password,omitempty"`
	Domain      *string `json:"domain,omitempty"`
	LocalPart   *string `json:"local_part,omitempty"`
	EmailDomain *string `json:"email_domain,omitempty"`
	Filepath    *string `json:"filepath,omitempty"`
	StealerName *string `json:"stealer_name,omitempty"`
}

// Cookie is one extracted session artifact. Domain, name, value, secure and
// expiry are always present in well-formed service output; expiry is a date
// string that may or may not parse (see analytics.CookieExpired).
type Cookie struct {
	Domain      string  `json:"domain"`
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Browser     *string `json:"browser,omitempty"`
	Secure      bool    `json:"secure"`
	Expiry      string  `json:"expiry"`
	Filepath    *string `json:"filepath,omitempty"`
	StealerName *string `json:"stealer_name,omitempty"`
}

// SystemEntry groups the artifacts extracted from a single machine. System
// is nil when no host metadata was identified for the entry.
type SystemEntry struct {
	System      *SystemRecord `json:"system"`
	Credentials []Credential  `json:"credentials"`
	Cookies     []Cookie      `json:"cookies"`
}

// AnalysisResult is the root of a completed analysis. It is immutable once
// received: the aggregation and export layers only ever read it.
type AnalysisResult struct {
	Filename    string        `json:"filename"`
	SystemsData []SystemEntry `json:"systems_data"`
}

// StringPtr returns a pointer to s. Convenience for building results in
// tests and fixtures.
func StringPtr(s string) *string {
	return &s
}
