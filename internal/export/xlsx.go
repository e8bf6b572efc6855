// xlsx.go - Spreadsheet report export
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stealer-insight/analyzer/internal/analytics"
	"github.com/stealer-insight/analyzer/internal/models"
)

// WriteXLSX emits a two-sheet workbook: a Credentials sheet mirroring the
// CSV columns and a Summary sheet with the aggregate statistics. Like the
// CSV form this is a lossy reporting artifact.
func WriteXLSX(w io.Writer, res *models.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const credSheet = "Credentials"
	if err := f.SetSheetName("Sheet1", credSheet); err != nil {
		return err
	}

	headers := []string{"Software", "Host", "Username", "Password", "Domain", "Stealer"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(credSheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, entry := range res.SystemsData {
		for _, cred := range entry.Credentials {
			values := []*string{cred.Software, cred.Host, cred.Username, cred.Password, cred.Domain, cred.StealerName}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				s := ""
				if v != nil {
					s = *v
				}
				if err := f.SetCellValue(credSheet, cell, s); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := writeSummarySheet(f, res); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSummarySheet(f *excelize.File, res *models.AnalysisResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	summary := analytics.Aggregate(res, time.Now())
	rows := [][]interface{}{
		{"Archive", res.Filename},
		{"Compromised systems", summary.SystemCount},
		{"Credentials", summary.CredentialCount},
		{"Cookies", summary.CookieCount},
		{"Unique domains", len(summary.UniqueDomains)},
		{"High-risk domains", summary.Risk.High},
		{"Medium-risk domains", summary.Risk.Medium},
		{"Countries", len(summary.Countries)},
		{"Stealer variants", len(summary.StealerNames)},
		{"Expired cookies", summary.Cookies.Expired},
		{"Secure cookies", summary.Cookies.Secure},
	}

	for i, r := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &r); err != nil {
			return err
		}
	}
	return nil
}
