// Package export renders finished questionnaires to CSV and JSON and
// publishes the results as immutable artifacts.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"qcreport/internal/blob"
	"qcreport/internal/questionnaire"
	"qcreport/internal/report"
)

// Format identifies an export output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func contentType(f Format) string {
	switch f {
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

// Artifact describes one published export.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Renderer turns a questionnaire document into a binary artifact, typically
// a printable report. The built-in renderer emits plain text; PDF engines
// plug in behind the same interface.
type Renderer interface {
	Render(doc questionnaire.Document, w io.Writer) error
}

// Exporter writes questionnaire rows to writers and publishes artifacts to a
// blob store. Exports run synchronously; a report is small enough that a
// queue would be overhead.
type Exporter struct {
	store  blob.Store
	logger *slog.Logger
}

// NewExporter wires an exporter over the artifact store.
func NewExporter(store blob.Store, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{store: store, logger: logger}
}

// WriteFormsCSV writes the per-item rows, one line per form plus the header.
func WriteFormsCSV(w io.Writer, records []questionnaire.FormRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section_name", "specification_content", "notes", "status"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{rec.SectionName, rec.SpecificationContent, rec.Notes, rec.Status}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComplianceCSV writes the per-section tally rows.
func WriteComplianceCSV(w io.Writer, records []report.ComplianceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "ok", "no", "% Compliance"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.Section, strconv.Itoa(rec.OK), strconv.Itoa(rec.NO), strconv.Itoa(rec.PercentCompliance)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFormsJSON writes the per-item rows as a JSON array.
func WriteFormsJSON(w io.Writer, records []questionnaire.FormRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ExportForms renders the rows in the requested format and publishes them
// under key.
func (e *Exporter) ExportForms(ctx context.Context, key string, format Format, records []questionnaire.FormRecord) (Artifact, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJSON:
		err = WriteFormsJSON(&buf, records)
	case FormatCSV, "":
		format = FormatCSV
		err = WriteFormsCSV(&buf, records)
	default:
		return Artifact{}, fmt.Errorf("unknown export format %s", format)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", format, err)
	}
	return e.publish(ctx, key, format, buf.Bytes())
}

// ExportCompliance renders the per-section tally as CSV and publishes it
// under key.
func (e *Exporter) ExportCompliance(ctx context.Context, key string, records []report.ComplianceRecord) (Artifact, error) {
	var buf bytes.Buffer
	if err := WriteComplianceCSV(&buf, records); err != nil {
		return Artifact{}, fmt.Errorf("render csv: %w", err)
	}
	return e.publish(ctx, key, FormatCSV, buf.Bytes())
}

// ExportDocument runs the renderer over the document and publishes its
// output under key with the given content type.
func (e *Exporter) ExportDocument(ctx context.Context, key string, r Renderer, doc questionnaire.Document, docContentType string) (Artifact, error) {
	var buf bytes.Buffer
	if err := r.Render(doc, &buf); err != nil {
		return Artifact{}, fmt.Errorf("render document: %w", err)
	}
	info, err := e.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), blob.PutOptions{ContentType: docContentType})
	if err != nil {
		return Artifact{}, fmt.Errorf("publish %s: %w", key, err)
	}
	e.logger.InfoContext(ctx, "document exported", "key", key, "bytes", info.Size)
	return Artifact{Key: info.Key, ContentType: docContentType, SizeBytes: info.Size, CreatedAt: info.LastModified}, nil
}

func (e *Exporter) publish(ctx context.Context, key string, format Format, payload []byte) (Artifact, error) {
	ct := contentType(format)
	info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: ct})
	if err != nil {
		return Artifact{}, fmt.Errorf("publish %s: %w", key, err)
	}
	e.logger.InfoContext(ctx, "report exported", "key", key, "format", string(format), "bytes", info.Size)
	return Artifact{Key: info.Key, Format: format, ContentType: ct, SizeBytes: info.Size, CreatedAt: info.LastModified}, nil
}

// TextRenderer is the built-in Renderer: a fixed-width plain text table.
type TextRenderer struct{}

// Render writes the document title, column header and rows.
func (TextRenderer) Render(doc questionnaire.Document, w io.Writer) error {
	if doc.Title != "" {
		if _, err := fmt.Fprintln(w, doc.Title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(doc.Columns, " | ")); err != nil {
		return err
	}
	for _, row := range doc.Rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, " | ")); err != nil {
			return err
		}
	}
	return nil
}
