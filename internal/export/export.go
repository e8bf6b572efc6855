// Package export serializes an AnalysisResult into the supported transfer
// formats: lossless JSON and msgpack, plus lossy credential CSV and XLSX
// reporting artifacts.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/stealer-insight/analyzer/internal/models"
)

// Format identifies an export encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatMsgpack Format = "msgpack"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatMsgpack, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ExportError is an encoding or I/O failure while producing one artifact.
// It is caller-local and never affects orchestration state.
type ExportError struct {
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ArtifactName returns the output file name for a format, mirroring the
// service UI conventions: {filename}_analysis.json, {filename}_credentials.csv,
// {filename}_analysis.msgpack and {filename}_report.xlsx.
func ArtifactName(filename string, f Format) string {
	switch f {
	case FormatCSV:
		return filename + "_credentials.csv"
	case FormatXLSX:
		return filename + "_report.xlsx"
	case FormatMsgpack:
		return filename + "_analysis.msgpack"
	default:
		return filename + "_analysis.json"
	}
}

// Write encodes the result in the given format.
func Write(w io.Writer, res *models.AnalysisResult, f Format) error {
	var err error
	switch f {
	case FormatJSON:
		err = WriteJSON(w, res)
	case FormatCSV:
		err = WriteCSV(w, res)
	case FormatMsgpack:
		err = WriteMsgpack(w, res)
	case FormatXLSX:
		err = WriteXLSX(w, res)
	default:
		err = fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return &ExportError{Format: f, Err: err}
	}
	return nil
}

// WriteJSON emits the complete, lossless serialization of the result. It
// round-trips: ReadJSON on the output reproduces an equal AnalysisResult.
func WriteJSON(w io.Writer, res *models.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

// ReadJSON parses a JSON export back into an AnalysisResult.
func ReadJSON(r io.Reader) (*models.AnalysisResult, error) {
	var res models.AnalysisResult
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WriteMsgpack emits a compact lossless binary serialization using the same
// field names as the JSON form.
func WriteMsgpack(w io.Writer, res *models.AnalysisResult) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(res)
}

// ReadMsgpack parses a msgpack export back into an AnalysisResult.
func ReadMsgpack(r io.Reader) (*models.AnalysisResult, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var res models.AnalysisResult
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WriteFiles writes one artifact per format into dir and returns the paths
// written. Failures are accumulated so one broken artifact does not stop
// the others.
func WriteFiles(dir string, res *models.AnalysisResult, formats ...Format) ([]string, error) {
	var written []string
	var errs *multierror.Error

	for _, f := range formats {
		path := filepath.Join(dir, ArtifactName(res.Filename, f))
		file, err := os.Create(path)
		if err != nil {
			errs = multierror.Append(errs, &ExportError{Format: f, Err: err})
			continue
		}
		err = Write(file, res, f)
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = &ExportError{Format: f, Err: closeErr}
		}
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		written = append(written, path)
	}

	return written, errs.ErrorOrNil()
}
