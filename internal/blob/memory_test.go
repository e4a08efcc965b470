package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %q", store.Driver())
	}

	if _, err := store.Put(ctx, "cement/forms.csv", strings.NewReader("rows"), PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, "cement/forms.csv", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatal("expected duplicate Put to fail")
	}

	info, rc, err := store.Get(ctx, "cement/forms.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "rows" || info.ContentType != "text/csv" {
		t.Fatalf("unexpected artifact %+v %q", info, data)
	}

	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}

	ok, err := store.Delete(ctx, "cement/forms.csv")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	infos, err := store.List(ctx, "")
	if err != nil || len(infos) != 0 {
		t.Fatalf("List after delete = %v, %v", infos, err)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Config{Driver: DriverMemory})
	if err != nil || store.Driver() != DriverMemory {
		t.Fatalf("Open memory = %v, %v", store, err)
	}
	if _, err := Open(ctx, Config{Driver: "tape"}); err == nil {
		t.Fatal("expected unknown driver to fail")
	}

	t.Setenv("QCREPORT_BLOB_DRIVER", "s3")
	t.Setenv("QCREPORT_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(ctx); err == nil {
		t.Fatal("s3 driver without bucket should fail")
	}
}
