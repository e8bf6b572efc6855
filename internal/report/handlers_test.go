// handlers_test.go - Tests for the report API handlers
package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealer-insight/analyzer/internal/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Filename: "leak.zip",
		SystemsData: []models.SystemEntry{
			{
				System: &models.SystemRecord{Country: models.StringPtr("US")},
				Credentials: []models.Credential{
					{Software: models.StringPtr("Chrome"), Username: models.StringPtr("alice"), Domain: models.StringPtr("gmail.com")},
					{Software: models.StringPtr("Firefox"), Username: models.StringPtr("bob"), Domain: models.StringPtr("example.org")},
					{Username: models.StringPtr("carol")},
				},
				Cookies: []models.Cookie{
					{Domain: "gmail.com", Name: "sid", Value: "v", Secure: true, Expiry: "2000-01-01T00:00:00Z"},
					{Domain: "example.org", Name: "s", Value: "v", Secure: false, Expiry: "2999-01-01T00:00:00Z"},
				},
			},
		},
	}
}

func doRequest(t *testing.T, h *Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	RegisterRoutes(e, h)
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandleSummary(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/summary")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Filename string `json:"filename"`
		Summary  struct {
			SystemCount     int      `json:"system_count"`
			CredentialCount int      `json:"credential_count"`
			CookieCount     int      `json:"cookie_count"`
			UniqueDomains   []string `json:"unique_domains"`
		} `json:"summary"`
		TopDomains []struct {
			Domain string `json:"domain"`
			Risk   string `json:"risk"`
		} `json:"top_domains"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "leak.zip", resp.Filename)
	assert.Equal(t, 1, resp.Summary.SystemCount)
	assert.Equal(t, 3, resp.Summary.CredentialCount)
	assert.Equal(t, 2, resp.Summary.CookieCount)
	assert.Equal(t, []string{"gmail.com", "example.org"}, resp.Summary.UniqueDomains)
	require.NotEmpty(t, resp.TopDomains)
	assert.Equal(t, "high", resp.TopDomains[0].Risk)
}

func TestHandleSystems(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/systems")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credential_count":3`)
	assert.Contains(t, rec.Body.String(), `"cookie_count":2`)
}

func TestHandleCredentialsPaging(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/credentials?page=1&pageSize=2")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total    int                 `json:"total"`
		Page     int                 `json:"page"`
		PageSize int                 `json:"pageSize"`
		Items    []models.Credential `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Items, 2)
	// Insertion order preserved, never silently reordered.
	assert.Equal(t, "alice", *resp.Items[0].Username)
	assert.Equal(t, "bob", *resp.Items[1].Username)
}

func TestHandleCredentialsFilters(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/report/credentials?domain=gmail.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total int                 `json:"total"`
		Items []models.Credential `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "alice", *resp.Items[0].Username)

	rec = doRequest(t, h, http.MethodGet, "/api/report/credentials?search=CAROL")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestHandleCredentialsBadPagination(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/report/credentials?page=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")

	rec = doRequest(t, h, http.MethodGet, "/api/report/credentials?pageSize=10000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCookies(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/cookies")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total int `json:"total"`
		Items []struct {
			Domain  string `json:"domain"`
			Expired bool   `json:"expired"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].Expired)
	assert.False(t, resp.Items[1].Expired)
}

func TestHandleDomainCountsFallback(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/domains")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"domain":"gmail.com"`)
}

func TestHandleExportCSV(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/export/csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "leak.zip_credentials.csv")
	assert.Contains(t, rec.Body.String(), "Software,Host,Username,Password,Domain,Stealer")
	assert.Contains(t, rec.Body.String(), `"alice"`)
}

func TestHandleExportUnknownFormat(t *testing.T) {
	h := NewHandler(sampleResult(), nil, nil)
	rec := doRequest(t, h, http.MethodGet, "/api/report/export/pdf")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

type fakeHealth struct {
	status string
	err    error
}

func (f fakeHealth) Health(context.Context) (string, error) { return f.status, f.err }

func TestHandleHealth(t *testing.T) {
	h := NewHandler(sampleResult(), nil, fakeHealth{status: "healthy"})
	rec := doRequest(t, h, http.MethodGet, "/api/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"upstream":"healthy"`)
}

func TestHandleHealthUpstreamDown(t *testing.T) {
	h := NewHandler(sampleResult(), nil, fakeHealth{err: errors.New("connection refused")})
	rec := doRequest(t, h, http.MethodGet, "/api/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"upstream":"unreachable"`)
}
