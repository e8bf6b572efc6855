// Package report serves the analytics of one completed analysis over a
// small local HTTP API: summary statistics, paged credential and cookie
// views, per-system breakdowns and export downloads. It renders nothing;
// it is the data plane a dashboard or script consumes.
package report

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stealer-insight/analyzer/internal/analytics"
	"github.com/stealer-insight/analyzer/internal/export"
	"github.com/stealer-insight/analyzer/internal/models"
	"github.com/stealer-insight/analyzer/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// HealthChecker probes the upstream analysis service.
type HealthChecker interface {
	Health(ctx context.Context) (string, error)
}

// Handler serves report endpoints over one immutable AnalysisResult.
type Handler struct {
	result   *models.AnalysisResult
	creds    *store.CredStore // optional; nil falls back to in-memory scans
	upstream HealthChecker    // optional
}

// NewHandler creates a report handler. creds and upstream may be nil.
func NewHandler(result *models.AnalysisResult, creds *store.CredStore, upstream HealthChecker) *Handler {
	return &Handler{result: result, creds: creds, upstream: upstream}
}

// HandleHealth reports report-server liveness and, when configured, the
// upstream analysis service status.
func (h *Handler) HandleHealth(c echo.Context) error {
	payload := map[string]interface{}{"status": "ok"}

	if h.upstream != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if status, err := h.upstream.Health(ctx); err != nil {
			payload["upstream"] = "unreachable"
		} else {
			payload["upstream"] = status
		}
	}

	return c.JSON(http.StatusOK, payload)
}

// summaryResponse bundles the aggregate view with the top rankings the
// dashboard shows.
type summaryResponse struct {
	Filename    string                     `json:"filename"`
	Summary     analytics.Summary          `json:"summary"`
	TopSoftware []analytics.NameCount      `json:"top_software"`
	TopDomains  []analytics.DomainExposure `json:"top_domains"`
}

// HandleSummary returns the aggregate statistics for the held result.
func (h *Handler) HandleSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, summaryResponse{
		Filename:    h.result.Filename,
		Summary:     analytics.Aggregate(h.result, time.Now()),
		TopSoftware: analytics.TopSoftware(h.result, 8),
		TopDomains:  analytics.TopDomains(h.result, 12),
	})
}

// HandleSystems returns per-entry host metadata and artifact counts.
func (h *Handler) HandleSystems(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"systems": analytics.PerSystemSummaries(h.result),
	})
}

type pagedResponse struct {
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Items    interface{} `json:"items"`
}

// HandleCredentials returns one page of credentials, filterable by exact
// domain or software and by a free-text search. Order is insertion order.
func (h *Handler) HandleCredentials(c echo.Context) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return err
	}

	q := store.Query{
		Domain:   c.QueryParam("domain"),
		Software: c.QueryParam("software"),
		Search:   c.QueryParam("search"),
	}

	if h.creds != nil {
		creds, total, err := h.creds.QueryCredentials(c.Request().Context(), q, page, pageSize)
		if err != nil {
			return NewInternalError("failed to query credentials", err)
		}
		return c.JSON(http.StatusOK, pagedResponse{Total: total, Page: page, PageSize: pageSize, Items: creds})
	}

	creds, total := filterCredentials(h.result, q, page, pageSize)
	return c.JSON(http.StatusOK, pagedResponse{Total: total, Page: page, PageSize: pageSize, Items: creds})
}

// cookieRow is a cookie plus its evaluated expiry state.
type cookieRow struct {
	models.Cookie
	Expired bool `json:"expired"`
}

// HandleCookies returns one page of cookies with expiry evaluated at
// request time.
func (h *Handler) HandleCookies(c echo.Context) error {
	page, pageSize, err := pagination(c)
	if err != nil {
		return err
	}

	now := time.Now()
	var all []cookieRow
	for _, entry := range h.result.SystemsData {
		for _, cookie := range entry.Cookies {
			all = append(all, cookieRow{
				Cookie:  cookie,
				Expired: analytics.CookieExpired(cookie.Expiry, now),
			})
		}
	}

	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, pagedResponse{Total: total, Page: page, PageSize: pageSize, Items: all[start:end]})
}

// HandleDomainCounts returns the per-domain credential distribution.
func (h *Handler) HandleDomainCounts(c echo.Context) error {
	if h.creds != nil {
		counts, err := h.creds.DomainCounts(c.Request().Context())
		if err != nil {
			return NewInternalError("failed to compute domain counts", err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"domains": counts})
	}

	exposures := analytics.TopDomains(h.result, 0)
	counts := make([]store.DomainCount, 0, len(exposures))
	for _, e := range exposures {
		counts = append(counts, store.DomainCount{Domain: e.Domain, Count: e.Credentials})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"domains": counts})
}

// exportContentTypes maps formats to download content types.
var exportContentTypes = map[export.Format]string{
	export.FormatJSON:    "application/json",
	export.FormatCSV:     "text/csv",
	export.FormatMsgpack: "application/msgpack",
	export.FormatXLSX:    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// HandleExport streams the result in the requested format as a download.
func (h *Handler) HandleExport(c echo.Context) error {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return NewBadRequestError("unsupported export format", err)
	}

	name := export.ArtifactName(h.result.Filename, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	c.Response().Header().Set(echo.HeaderContentType, exportContentTypes[format])
	c.Response().WriteHeader(http.StatusOK)

	if err := export.Write(c.Response(), h.result, format); err != nil {
		return NewInternalError("export failed", err)
	}
	return nil
}

func pagination(c echo.Context) (page, pageSize int, err error) {
	page = 1
	pageSize = defaultPageSize

	if v := c.QueryParam("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, NewBadRequestError("invalid page parameter", err)
		}
	}
	if v := c.QueryParam("pageSize"); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil || pageSize < 1 || pageSize > maxPageSize {
			return 0, 0, NewBadRequestError("invalid pageSize parameter", err)
		}
	}
	return page, pageSize, nil
}

// filterCredentials is the in-memory fallback used when no credential
// store was attached.
func filterCredentials(res *models.AnalysisResult, q store.Query, page, pageSize int) ([]models.Credential, int) {
	match := func(cred models.Credential) bool {
		if q.Domain != "" && (cred.Domain == nil || *cred.Domain != q.Domain) {
			return false
		}
		if q.Software != "" && (cred.Software == nil || *cred.Software != q.Software) {
			return false
		}
		if q.Search != "" && !credentialMatches(cred, q.Search) {
			return false
		}
		return true
	}

	var filtered []models.Credential
	for _, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			if match(cred) {
				filtered = append(filtered, cred)
			}
		}
	}

	total := len(filtered)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

func credentialMatches(cred models.Credential, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []*string{cred.Username, cred.Host, cred.Domain} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}
