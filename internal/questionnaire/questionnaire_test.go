package questionnaire

import (
	"errors"
	"strings"
	"testing"

	"qcreport/pkg/domain"
)

func cementJob() *domain.Job {
	job := domain.NewJob(1, "Cement", "")
	cover := domain.NewSection(1, "Cover Page", "")
	cover.AddQuestion(domain.Question{ID: 1, Title: "Title"})
	cover.AddQuestion(domain.Question{ID: 2, Title: "Subtitle"})
	job.AddSection(cover)
	well := domain.NewSection(2, "Well Data", "")
	well.AddQuestion(domain.Question{ID: 3, Title: "Well %"})
	well.AddQuestion(domain.Question{ID: 4, Title: "Location"})
	job.AddSection(well)
	return job
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{StatusOK: "OK", StatusNO: "NO", StatusNA: "N/A"}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", status, got, want)
		}
	}
	var zero Status
	if zero != StatusNA {
		t.Fatal("zero value must be N/A")
	}
}

func TestNewDerivesFormsDeterministically(t *testing.T) {
	q := New(cementJob())
	forms := q.Forms()
	if len(forms) != 4 {
		t.Fatalf("expected 4 forms, got %d", len(forms))
	}

	wantOrder := []struct {
		section  domain.SectionID
		question domain.QuestionID
	}{{1, 1}, {1, 2}, {2, 3}, {2, 4}}
	for i, form := range forms {
		if form.FormID != uint64(i) {
			t.Fatalf("form ids not sequential: %+v", forms)
		}
		if form.SectionID != wantOrder[i].section || form.QuestionID != wantOrder[i].question {
			t.Fatalf("form %d routed to (%d,%d), want (%d,%d)",
				i, form.SectionID, form.QuestionID, wantOrder[i].section, wantOrder[i].question)
		}
		if form.Status != StatusNA || form.Notes != "" {
			t.Fatalf("fresh form %d not blank: %+v", i, form)
		}
	}

	// rebuilding the same tree yields the same assignment
	again := New(cementJob()).Forms()
	for i := range forms {
		if forms[i] != again[i] {
			t.Fatalf("derivation not reproducible at %d: %+v vs %+v", i, forms[i], again[i])
		}
	}
}

func TestNewSkipsOrphans(t *testing.T) {
	job := cementJob()
	job.AddOrphanedQuestion(domain.Question{ID: 9, Title: "Loose note"})
	q := New(job)
	if len(q.Forms()) != 4 {
		t.Fatalf("orphan received a form: %d forms", len(q.Forms()))
	}
}

func TestUpdateForm(t *testing.T) {
	q := New(cementJob())

	if err := q.UpdateFormStatus(0, StatusOK); err != nil {
		t.Fatalf("UpdateFormStatus: %v", err)
	}
	if err := q.UpdateFormNotes(0, "verified"); err != nil {
		t.Fatalf("UpdateFormNotes: %v", err)
	}
	form, err := q.Form(0)
	if err != nil {
		t.Fatalf("Form: %v", err)
	}
	if form.Status != StatusOK || form.Notes != "verified" {
		t.Fatalf("form = %+v", form)
	}

	// any status is reachable from any other
	if err := q.UpdateFormStatus(0, StatusNA); err != nil {
		t.Fatalf("UpdateFormStatus back to N/A: %v", err)
	}

	err = q.UpdateFormStatus(99, StatusNO)
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != domain.KindForm {
		t.Fatalf("expected form NotFoundError, got %v", err)
	}
	for _, form := range q.Forms() {
		if form.Status == StatusNO {
			t.Fatalf("failed update mutated state: %+v", form)
		}
	}
}

func TestFormCopyIsolation(t *testing.T) {
	q := New(cementJob())
	form, err := q.Form(0)
	if err != nil {
		t.Fatalf("Form: %v", err)
	}
	form.Notes = "local only"
	fresh, _ := q.Form(0)
	if fresh.Notes != "" {
		t.Fatal("Form must return a copy")
	}
}

func TestRecords(t *testing.T) {
	q := New(cementJob())
	if err := q.UpdateFormStatus(0, StatusOK); err != nil {
		t.Fatalf("UpdateFormStatus: %v", err)
	}
	if err := q.UpdateFormNotes(0, "done"); err != nil {
		t.Fatalf("UpdateFormNotes: %v", err)
	}

	records, err := q.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	first := records[0]
	if first.SectionName != "Cover Page" || first.SpecificationContent != "Title" ||
		first.Notes != "done" || first.Status != "OK" {
		t.Fatalf("record = %+v", first)
	}
	if records[1].Status != "N/A" {
		t.Fatalf("untouched record status %q", records[1].Status)
	}
}

func TestRenderDocument(t *testing.T) {
	q := New(cementJob())
	doc, err := q.RenderDocument("Cement QC Report")
	if err != nil {
		t.Fatalf("RenderDocument: %v", err)
	}
	if doc.Title != "Cement QC Report" || len(doc.Rows) != 4 {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Rows[0][0] != "Cover Page" || doc.Rows[0][1] != "Title" {
		t.Fatalf("first row = %v", doc.Rows[0])
	}
}

func TestString(t *testing.T) {
	q := New(cementJob())
	out := q.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out)
	}
	if lines[0] != "0, Cover Page, Title, N/A, " {
		t.Fatalf("first line = %q", lines[0])
	}
}
