// Package export renders a report into downloadable artifacts.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	"basegraph.app/advisor/internal/model"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"

	fileStampLayout = "20060102_150405"
)

func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatMarkdown}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown"
	}
	return "application/octet-stream"
}

// FileName stamps the export with at, e.g. architecture_report_20250314_092653.md.
func (f Format) FileName(at time.Time) string {
	stamp := at.Format(fileStampLayout)
	switch f {
	case FormatCSV:
		return "architecture_summary_" + stamp + ".csv"
	case FormatJSON:
		return "architecture_report_" + stamp + ".json"
	case FormatMarkdown:
		return "architecture_report_" + stamp + ".md"
	}
	return "architecture_report_" + stamp
}

// Artifact is one rendered export, ready to be written or served.
type Artifact struct {
	FileName string
	MIMEType string
	Data     []byte
}

func Render(f Format, r model.ReportModel, rows []model.SummaryRow, at time.Time) (*Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatCSV:
		data, err = CSV(rows)
	case FormatJSON:
		data, err = JSON(r)
	case FormatMarkdown:
		data = []byte(Markdown(r, rows))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return &Artifact{FileName: f.FileName(at), MIMEType: f.MIMEType(), Data: data}, nil
}

var csvHeader = []string{"Agent", "Role", "Key Recommendations", "Recommendation Count", "Focus Area"}

func CSV(rows []model.SummaryRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		rec := []string{
			row.Agent.String(),
			row.Role,
			row.KeyRecommendations,
			strconv.Itoa(row.RecommendationCount),
			row.FocusArea,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func JSON(r model.ReportModel) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ReportSchema describes the JSON export for clients.
func ReportSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&model.ReportModel{})
}
