// Package store holds a completed result's credentials in a temporary
// DuckDB file so the report server can filter and page large result sets
// without re-scanning the in-memory tree per request.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/stealer-insight/analyzer/internal/models"
)

// CredStore is a DuckDB-backed credential table. Rows keep the original
// entry and insertion order via a monotonically assigned id.
type CredStore struct {
	db     *sql.DB
	dbPath string
	count  int

	// Cache for filtered COUNT queries to avoid repeating them while paging.
	countCache   map[string]int
	countCacheMu sync.RWMutex

	// Limits concurrent queries to keep memory bounded under rapid paging.
	querySem chan struct{}
}

// Query filters credential rows. Domain and Software match exactly; Search
// is a case-insensitive substring match over username, host and domain.
type Query struct {
	Domain   string
	Software string
	Search   string
}

// DomainCount is one row of the per-domain credential distribution.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// NewCredStore creates a store in tempDir, keyed by the run id.
func NewCredStore(tempDir, runID string) (*CredStore, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("run_%s.duckdb", runID))

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE credentials (
			id         INTEGER PRIMARY KEY,
			system_idx INTEGER NOT NULL,
			software   VARCHAR,
			host       VARCHAR,
			username   VARCHAR,
			password   VARCHAR,
			domain     VARCHAR,
			stealer    VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("create credentials table: %w", err)
	}

	return &CredStore{
		db:         db,
		dbPath:     dbPath,
		countCache: make(map[string]int),
		querySem:   make(chan struct{}, 3),
	}, nil
}

// LoadResult inserts every credential of the result, preserving order.
func (s *CredStore) LoadResult(res *models.AnalysisResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO credentials (id, system_idx, software, host, username, password, domain, stealer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	id := 0
	for sysIdx, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			_, err := stmt.Exec(id, sysIdx,
				nullable(cred.Software), nullable(cred.Host),
				nullable(cred.Username), nullable(cred.Password),
				nullable(cred.Domain), nullable(cred.StealerName))
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("insert credential %d: %w", id, err)
			}
			id++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit inserts: %w", err)
	}
	s.count = id
	return nil
}

// Len returns the total number of stored credentials.
func (s *CredStore) Len() int { return s.count }

// QueryCredentials returns one page of filtered rows plus the filtered
// total. Rows come back in original insertion order.
func (s *CredStore) QueryCredentials(ctx context.Context, q Query, page, pageSize int) ([]models.Credential, int, error) {
	s.querySem <- struct{}{}
	defer func() { <-s.querySem }()

	where, args := buildWhere(q)

	total, err := s.filteredCount(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := "SELECT software, host, username, password, domain, stealer FROM credentials" +
		where + " ORDER BY id LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	creds := make([]models.Credential, 0, pageSize)
	for rows.Next() {
		var software, host, username, password, domain, stealer sql.NullString
		if err := rows.Scan(&software, &host, &username, &password, &domain, &stealer); err != nil {
			return nil, 0, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, models.Credential{
			Software:    optional(software),
			Host:        optional(host),
			Username:    optional(username),
			Password:    optional(password),
			Domain:      optional(domain),
			StealerName: optional(stealer),
		})
	}
	return creds, total, rows.Err()
}

// DomainCounts returns the per-domain credential distribution, descending
// by count with ties broken by first insertion.
func (s *CredStore) DomainCounts(ctx context.Context) ([]DomainCount, error) {
	s.querySem <- struct{}{}
	defer func() { <-s.querySem }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, COUNT(*) AS n
		FROM credentials
		WHERE domain IS NOT NULL AND domain != ''
		GROUP BY domain
		ORDER BY n DESC, MIN(id) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query domain counts: %w", err)
	}
	defer rows.Close()

	var counts []DomainCount
	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan domain count: %w", err)
		}
		counts = append(counts, dc)
	}
	return counts, rows.Err()
}

// Close releases the database and removes the backing file.
func (s *CredStore) Close() error {
	err := s.db.Close()
	if rmErr := os.Remove(s.dbPath); err == nil {
		err = rmErr
	}
	return err
}

func (s *CredStore) filteredCount(ctx context.Context, where string, args []interface{}) (int, error) {
	key := fmt.Sprintf("%s|%v", where, args)

	s.countCacheMu.RLock()
	if n, ok := s.countCache[key]; ok {
		s.countCacheMu.RUnlock()
		return n, nil
	}
	s.countCacheMu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM credentials"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}

	s.countCacheMu.Lock()
	s.countCache[key] = n
	s.countCacheMu.Unlock()
	return n, nil
}

func buildWhere(q Query) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, q.Domain)
	}
	if q.Software != "" {
		clauses = append(clauses, "software = ?")
		args = append(args, q.Software)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		clauses = append(clauses, "(lower(coalesce(username,'')) LIKE ? OR lower(coalesce(host,'')) LIKE ? OR lower(coalesce(domain,'')) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func optional(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
