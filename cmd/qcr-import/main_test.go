package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"qcreport/internal/report"
)

const sampleCSV = `Item,Heading,Content
1,Cover Page,Title
2,Cover Page,Subtitle
3,Well Data,Well %
4,,Loose note
5,Well Data,
`

func TestRunImport(t *testing.T) {
	ctx := context.Background()
	cfg := report.StorageConfig{Driver: report.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "import_test.db")}
	store, err := report.OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	imported, err := runImport(ctx, store, strings.NewReader(sampleCSV), slog.Default())
	if err != nil {
		t.Fatalf("runImport: %v", err)
	}
	// row 5 has no content and is skipped
	if imported != 4 {
		t.Fatalf("imported = %d, want 4", imported)
	}

	sections, err := store.GetAllSections(ctx)
	if err != nil {
		t.Fatalf("GetAllSections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %v", sections)
	}

	specs, err := store.GetAllSpecifications(ctx)
	if err != nil {
		t.Fatalf("GetAllSpecifications: %v", err)
	}
	if len(specs) != 4 {
		t.Fatalf("expected 4 specifications, got %d", len(specs))
	}
	var loose int
	for _, spec := range specs {
		if spec.Section == nil {
			loose++
			if spec.Content != "Loose note" {
				t.Fatalf("unexpected section-less specification %+v", spec)
			}
		}
	}
	if loose != 1 {
		t.Fatalf("expected 1 section-less specification, got %d", loose)
	}

	// re-import is idempotent for sections, duplicate contents are skipped
	imported, err = runImport(ctx, store, strings.NewReader(sampleCSV), slog.Default())
	if err != nil {
		t.Fatalf("second runImport: %v", err)
	}
	if imported != 0 {
		t.Fatalf("second import added %d specifications", imported)
	}
}

func TestRunImportBadHeader(t *testing.T) {
	ctx := context.Background()
	cfg := report.StorageConfig{Driver: report.StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "import_test.db")}
	store, err := report.OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if _, err := runImport(ctx, store, strings.NewReader("a,b,c\n1,2,3\n"), slog.Default()); err == nil {
		t.Fatal("expected header error")
	}
}
