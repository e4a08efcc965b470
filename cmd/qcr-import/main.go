// Command qcr-import seeds the questionnaire database from a CSV item list.
// Each row carries an item number, a heading and the specification content;
// headings become sections and contents become specifications linked to them.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"qcreport/internal/report"
	"qcreport/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("qcr-import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	csvPath := fs.String("csv", "", "path to the item list CSV (columns: Item, Heading, Content)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *csvPath == "" {
		fmt.Fprintln(stderr, "qcr-import: -csv is required")
		fs.Usage()
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	ctx := context.Background()

	store, err := report.OpenStore(ctx, report.StorageConfigFromEnv())
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		logger.Error("open csv", "path", *csvPath, "error", err)
		return 1
	}
	defer func() { _ = file.Close() }()

	imported, err := runImport(ctx, store, file, logger)
	if err != nil {
		logger.Error("import failed", "error", err)
		return 1
	}
	logger.Info("import complete", "path", *csvPath, "specifications", imported)
	return 0
}

// headerIndexes resolves the Item/Heading/Content columns from the header
// row, case-sensitively as exported by the sheet.
func headerIndexes(header []string) (heading, content int, err error) {
	heading, content = -1, -1
	for i, name := range header {
		switch name {
		case "Heading":
			heading = i
		case "Content":
			content = i
		}
	}
	if heading < 0 || content < 0 {
		return 0, 0, fmt.Errorf("csv header missing Heading or Content column: %v", header)
	}
	return heading, content, nil
}

// runImport streams the CSV into the store. Sections repeat across rows, so
// a duplicate-name insert failure is expected and skipped; every row still
// resolves the section id before inserting its specification. Rows with an
// empty heading import as section-less specifications.
func runImport(ctx context.Context, store domain.Store, r io.Reader, logger *slog.Logger) (int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	headingIdx, contentIdx, err := headerIndexes(header)
	if err != nil {
		return 0, err
	}

	imported := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		heading := row[headingIdx]
		content := row[contentIdx]
		if content == "" {
			continue
		}

		var sectionID *domain.SectionID
		if heading != "" {
			if err := store.AddSection(ctx, heading); err != nil {
				// an already known section fails the unique constraint
				var stmt *domain.StatementError
				if !errors.As(err, &stmt) {
					return imported, fmt.Errorf("add section %q: %w", heading, err)
				}
			}
			id, err := store.GetSectionID(ctx, heading)
			if err != nil {
				return imported, fmt.Errorf("resolve section %q: %w", heading, err)
			}
			sectionID = &id
		}

		if err := store.AddSpecification(ctx, content, sectionID); err != nil {
			var stmt *domain.StatementError
			if errors.As(err, &stmt) {
				logger.Warn("specification skipped", "content", content, "error", err)
				continue
			}
			return imported, fmt.Errorf("add specification %q: %w", content, err)
		}
		imported++
	}
	return imported, nil
}
