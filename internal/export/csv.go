// csv.go - Delimited credential export
package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/stealer-insight/analyzer/internal/models"
)

// csvHeader is a fixed literal; the column order is part of the format.
const csvHeader = "Software,Host,Username,Password,Domain,Stealer"

// WriteCSV emits one quoted row per credential, preserving entry and
// insertion order. The format is lossy by design: systems with zero
// credentials and all cookies are omitted.
func WriteCSV(w io.Writer, res *models.AnalysisResult) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(csvHeader + "\n"); err != nil {
		return err
	}

	for _, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			row := []string{
				quoteField(cred.Software),
				quoteField(cred.Host),
				quoteField(cred.Username),
				quoteField(cred.Password),
				quoteField(cred.Domain),
				quoteField(cred.StealerName),
			}
			if _, err := bw.WriteString(strings.Join(row, ",") + "\n"); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// quoteField renders an optional field as a quoted CSV value; absent fields
// render as empty strings.
func quoteField(s *string) string {
	if s == nil {
		return `""`
	}
	return `"` + strings.ReplaceAll(*s, `"`, `""`) + `"`
}
