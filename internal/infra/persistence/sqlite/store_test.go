package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"qcreport/pkg/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "qcr_test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStoreCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Path() != path {
		t.Fatalf("Path() = %q, want %q", s.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestJobTypeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddJobType(ctx, "Cement"); err != nil {
		t.Fatalf("AddJobType: %v", err)
	}
	id, err := s.GetJobTypeID(ctx, "Cement")
	if err != nil {
		t.Fatalf("GetJobTypeID: %v", err)
	}
	rec, err := s.GetJobType(ctx, id)
	if err != nil {
		t.Fatalf("GetJobType: %v", err)
	}
	if rec.Name != "Cement" || rec.ID != id {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := s.UpdateJobType(ctx, id, "Cementing"); err != nil {
		t.Fatalf("UpdateJobType: %v", err)
	}
	rec, err = s.GetJobType(ctx, id)
	if err != nil {
		t.Fatalf("GetJobType after update: %v", err)
	}
	if rec.Name != "Cementing" {
		t.Fatalf("update not applied, got %q", rec.Name)
	}

	ok, err := s.JobExists(ctx, "Cementing")
	if err != nil || !ok {
		t.Fatalf("JobExists = %v, %v", ok, err)
	}
	ok, err = s.JobExists(ctx, "Cement")
	if err != nil || ok {
		t.Fatalf("JobExists for old name = %v, %v", ok, err)
	}
}

func TestGetJobTypeNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetJobType(ctx, 42)
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != domain.KindJobType || nf.ID != 42 {
		t.Fatalf("unexpected not-found detail %+v", nf)
	}
	var set *domain.ErrorSet
	if !errors.As(err, &set) {
		t.Fatalf("expected ErrorSet wrapper, got %T", err)
	}
}

func TestDuplicateJobTypeRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddJobType(ctx, "Cement"); err != nil {
		t.Fatalf("AddJobType: %v", err)
	}
	err := s.AddJobType(ctx, "Cement")
	var stmt *domain.StatementError
	if !errors.As(err, &stmt) {
		t.Fatalf("expected StatementError for duplicate, got %v", err)
	}
}

func TestSectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddSection(ctx, "Cover Page"); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	id, err := s.GetSectionID(ctx, "Cover Page")
	if err != nil {
		t.Fatalf("GetSectionID: %v", err)
	}
	rec, err := s.GetSection(ctx, id)
	if err != nil {
		t.Fatalf("GetSection: %v", err)
	}
	if rec.Name != "Cover Page" {
		t.Fatalf("unexpected section %+v", rec)
	}

	if err := s.UpdateSection(ctx, id, "Well Data"); err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if _, err := s.GetSectionID(ctx, "Cover Page"); err == nil {
		t.Fatal("old name still resolves")
	}
	if _, err := s.GetSectionID(ctx, "Well Data"); err != nil {
		t.Fatalf("new name does not resolve: %v", err)
	}

	if err := s.AddAdditiveSection(ctx, "Well Data"); err != nil {
		t.Fatalf("AddAdditiveSection: %v", err)
	}
	err = s.AddAdditiveSection(ctx, "Missing")
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != domain.KindSection {
		t.Fatalf("expected section NotFoundError, got %v", err)
	}
}

func TestSpecificationNullSection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddSpecification(ctx, "Check slurry density", nil); err != nil {
		t.Fatalf("AddSpecification: %v", err)
	}
	specs, err := s.GetAllSpecifications(ctx)
	if err != nil {
		t.Fatalf("GetAllSpecifications: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("expected 1 specification, got %d", len(specs))
	}
	if specs[0].Section != nil {
		t.Fatalf("expected nil section, got %+v", specs[0].Section)
	}

	rec, err := s.GetSpecification(ctx, specs[0].ID)
	if err != nil {
		t.Fatalf("GetSpecification: %v", err)
	}
	if rec.Content != "Check slurry density" || rec.Section != nil {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestRemoveSectionNullsSpecification(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddSection(ctx, "Cover Page"); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	sectionID, err := s.GetSectionID(ctx, "Cover Page")
	if err != nil {
		t.Fatalf("GetSectionID: %v", err)
	}
	if err := s.AddSpecification(ctx, "Title", &sectionID); err != nil {
		t.Fatalf("AddSpecification: %v", err)
	}

	specs, err := s.GetAllSpecifications(ctx)
	if err != nil || len(specs) != 1 {
		t.Fatalf("GetAllSpecifications = %v, %v", specs, err)
	}
	if specs[0].Section == nil || specs[0].Section.Name != "Cover Page" {
		t.Fatalf("expected joined section, got %+v", specs[0].Section)
	}

	if err := s.RemoveSection(ctx, sectionID); err != nil {
		t.Fatalf("RemoveSection: %v", err)
	}
	rec, err := s.GetSpecification(ctx, specs[0].ID)
	if err != nil {
		t.Fatalf("GetSpecification after remove: %v", err)
	}
	if rec.Section != nil {
		t.Fatalf("expected section cleared, got %+v", rec.Section)
	}
}

func TestJobSpecificationJoin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddJobType(ctx, "Cement"); err != nil {
		t.Fatalf("AddJobType: %v", err)
	}
	jobID, err := s.GetJobTypeID(ctx, "Cement")
	if err != nil {
		t.Fatalf("GetJobTypeID: %v", err)
	}
	if err := s.AddSection(ctx, "Cover Page"); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	sectionID, err := s.GetSectionID(ctx, "Cover Page")
	if err != nil {
		t.Fatalf("GetSectionID: %v", err)
	}

	if err := s.AddSpecification(ctx, "Title", &sectionID); err != nil {
		t.Fatalf("AddSpecification: %v", err)
	}
	if err := s.AddSpecification(ctx, "Unfiled note", nil); err != nil {
		t.Fatalf("AddSpecification: %v", err)
	}
	specs, err := s.GetAllSpecifications(ctx)
	if err != nil || len(specs) != 2 {
		t.Fatalf("GetAllSpecifications = %v, %v", specs, err)
	}
	for _, spec := range specs {
		if err := s.AddJobSpecification(ctx, jobID, spec.ID); err != nil {
			t.Fatalf("AddJobSpecification: %v", err)
		}
	}

	rows, err := s.GetAllJobSpecifications(ctx, jobID)
	if err != nil {
		t.Fatalf("GetAllJobSpecifications: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	var withSection, withoutSection int
	for _, row := range rows {
		if row.JobTypeID != jobID || row.JobName != "Cement" {
			t.Fatalf("unexpected job columns in %+v", row)
		}
		if row.Section != nil {
			withSection++
			if row.Section.Name != "Cover Page" {
				t.Fatalf("unexpected section %+v", row.Section)
			}
		} else {
			withoutSection++
		}
	}
	if withSection != 1 || withoutSection != 1 {
		t.Fatalf("expected one sectioned and one unsectioned row, got %d/%d", withSection, withoutSection)
	}

	has, err := s.JobHasSpecification(ctx, jobID, specs[0].ID)
	if err != nil || !has {
		t.Fatalf("JobHasSpecification = %v, %v", has, err)
	}
	if err := s.RemoveJobSpecification(ctx, jobID, specs[0].ID); err != nil {
		t.Fatalf("RemoveJobSpecification: %v", err)
	}
	has, err = s.JobHasSpecification(ctx, jobID, specs[0].ID)
	if err != nil || has {
		t.Fatalf("JobHasSpecification after remove = %v, %v", has, err)
	}
}

func TestRemoveJobTypeCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddJobType(ctx, "Cement"); err != nil {
		t.Fatalf("AddJobType: %v", err)
	}
	jobID, err := s.GetJobTypeID(ctx, "Cement")
	if err != nil {
		t.Fatalf("GetJobTypeID: %v", err)
	}
	if err := s.AddSpecification(ctx, "Title", nil); err != nil {
		t.Fatalf("AddSpecification: %v", err)
	}
	specs, err := s.GetAllSpecifications(ctx)
	if err != nil || len(specs) != 1 {
		t.Fatalf("GetAllSpecifications = %v, %v", specs, err)
	}
	if err := s.AddJobSpecification(ctx, jobID, specs[0].ID); err != nil {
		t.Fatalf("AddJobSpecification: %v", err)
	}

	if err := s.RemoveJobType(ctx, jobID); err != nil {
		t.Fatalf("RemoveJobType: %v", err)
	}
	rows, err := s.GetAllJobSpecifications(ctx, jobID)
	if err != nil {
		t.Fatalf("GetAllJobSpecifications: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected cascade to clear links, got %d rows", len(rows))
	}
	// The specification itself survives the cascade.
	if _, err := s.GetSpecification(ctx, specs[0].ID); err != nil {
		t.Fatalf("specification removed by cascade: %v", err)
	}
}

func TestUpdateSpecification(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.AddSection(ctx, "Well Data"); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	sectionID, err := s.GetSectionID(ctx, "Well Data")
	if err != nil {
		t.Fatalf("GetSectionID: %v", err)
	}
	if err := s.AddSpecification(ctx, "Location", nil); err != nil {
		t.Fatalf("AddSpecification: %v", err)
	}
	specs, err := s.GetAllSpecifications(ctx)
	if err != nil || len(specs) != 1 {
		t.Fatalf("GetAllSpecifications = %v, %v", specs, err)
	}

	if err := s.UpdateSpecificationContent(ctx, specs[0].ID, "Well location"); err != nil {
		t.Fatalf("UpdateSpecificationContent: %v", err)
	}
	if err := s.UpdateSpecificationSection(ctx, specs[0].ID, sectionID); err != nil {
		t.Fatalf("UpdateSpecificationSection: %v", err)
	}

	rec, err := s.GetSpecification(ctx, specs[0].ID)
	if err != nil {
		t.Fatalf("GetSpecification: %v", err)
	}
	if rec.Content != "Well location" {
		t.Fatalf("content not updated, got %q", rec.Content)
	}
	if rec.Section == nil || rec.Section.ID != sectionID {
		t.Fatalf("section not updated, got %+v", rec.Section)
	}

	if err := s.RemoveSpecification(ctx, specs[0].ID); err != nil {
		t.Fatalf("RemoveSpecification: %v", err)
	}
	_, err = s.GetSpecification(ctx, specs[0].ID)
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != domain.KindSpecification {
		t.Fatalf("expected specification NotFoundError, got %v", err)
	}
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"Cement", "Stimulation"} {
		if err := s.AddJobType(ctx, name); err != nil {
			t.Fatalf("AddJobType(%q): %v", name, err)
		}
	}
	for _, name := range []string{"Cover Page", "Well Data"} {
		if err := s.AddSection(ctx, name); err != nil {
			t.Fatalf("AddSection(%q): %v", name, err)
		}
	}

	jobs, err := s.GetAllJobTypes(ctx)
	if err != nil || len(jobs) != 2 {
		t.Fatalf("GetAllJobTypes = %v, %v", jobs, err)
	}
	sections, err := s.GetAllSections(ctx)
	if err != nil || len(sections) != 2 {
		t.Fatalf("GetAllSections = %v, %v", sections, err)
	}
}

func TestCloseLeakedEmpty(t *testing.T) {
	s := newTestStore(t)
	if got := s.LeakedConns(); len(got) != 0 {
		t.Fatalf("expected no leaked connections, got %d", len(got))
	}
	if err := s.CloseLeaked(); err != nil {
		t.Fatalf("CloseLeaked on empty set: %v", err)
	}
}

var errFailClose = errors.New("connection close failed")

// failCloseDriver hands out connections whose Close always fails, so
// closing the pool surfaces an error from db.Close.
type failCloseDriver struct{}

func (failCloseDriver) Open(string) (driver.Conn, error) { return failCloseConn{}, nil }

type failCloseConn struct{}

func (failCloseConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (failCloseConn) Close() error              { return errFailClose }
func (failCloseConn) Begin() (driver.Tx, error) { return nil, errors.New("begin not supported") }

func init() { sql.Register("failclose", failCloseDriver{}) }

func TestRunRetainsHandleOnCloseFailure(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(_, dsn string) (*sql.DB, error) { return sql.Open("failclose", dsn) }

	s := &Store{path: "unused", dsn: "unused"}
	opErr := &domain.StatementError{Op: "select job_type", Err: errors.New("boom")}
	_, err := run(s, func(db *sql.DB) (int, error) {
		// Park a connection in the free pool so db.Close has one to fail on.
		if pingErr := db.Ping(); pingErr != nil {
			t.Fatalf("Ping: %v", pingErr)
		}
		return 0, opErr
	})

	var set *domain.ErrorSet
	if !errors.As(err, &set) {
		t.Fatalf("expected ErrorSet, got %T: %v", err, err)
	}
	if len(set.Errors) != 2 {
		t.Fatalf("expected operation and close errors, got %v", set.Errors)
	}
	if set.Errors[0] != error(opErr) {
		t.Fatalf("first member = %v, want the operation error", set.Errors[0])
	}
	var closeErr *domain.CloseError
	if !errors.As(set.Errors[1], &closeErr) || !errors.Is(closeErr, errFailClose) {
		t.Fatalf("second member = %v, want CloseError wrapping the driver failure", set.Errors[1])
	}
	if set.Conn == nil {
		t.Fatal("expected the still-open handle on the error set")
	}
	leaked := s.LeakedConns()
	if len(leaked) != 1 || leaked[0] != set.Conn {
		t.Fatalf("leaked = %v, want exactly the handle carried by the error set", leaked)
	}
	// The pool is marked closed after the first attempt, so draining succeeds.
	if err := s.CloseLeaked(); err != nil {
		t.Fatalf("CloseLeaked: %v", err)
	}
	if got := s.LeakedConns(); len(got) != 0 {
		t.Fatalf("expected leaked handles drained, got %d", len(got))
	}
}

func TestRunCloseFailureDiscardsValue(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(_, dsn string) (*sql.DB, error) { return sql.Open("failclose", dsn) }

	s := &Store{path: "unused", dsn: "unused"}
	value, err := run(s, func(db *sql.DB) (int, error) {
		if pingErr := db.Ping(); pingErr != nil {
			t.Fatalf("Ping: %v", pingErr)
		}
		return 7, nil
	})
	if value != 0 {
		t.Fatalf("expected zero value on close failure, got %d", value)
	}
	var set *domain.ErrorSet
	if !errors.As(err, &set) {
		t.Fatalf("expected ErrorSet, got %T: %v", err, err)
	}
	if len(set.Errors) != 1 {
		t.Fatalf("expected a lone close error, got %v", set.Errors)
	}
	var closeErr *domain.CloseError
	if !errors.As(set.Errors[0], &closeErr) {
		t.Fatalf("expected CloseError, got %v", set.Errors[0])
	}
}

func TestRunOpenFailure(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	openErr := errors.New("driver unavailable")
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, openErr }

	s := &Store{path: "unused", dsn: "unused"}
	_, err := run(s, func(*sql.DB) (int, error) {
		t.Fatal("operation must not run when open fails")
		return 0, nil
	})
	var connErr *domain.ConnectionError
	if !errors.As(err, &connErr) || !errors.Is(err, openErr) {
		t.Fatalf("expected ConnectionError wrapping the open failure, got %v", err)
	}
	if got := s.LeakedConns(); len(got) != 0 {
		t.Fatalf("nothing was opened, leaked = %v", got)
	}
}
