// Package questionnaire derives the editable, exportable answer set for one
// job tree and renders it to export-ready records.
package questionnaire

import (
	"fmt"
	"sort"
	"strings"

	"qcreport/pkg/domain"
)

// Status is the three-state compliance value of one form. Any status is
// reachable from any other by direct overwrite; there is no terminal state.
type Status int

// Compliance statuses. The zero value is NA so a freshly derived form reads
// as not-applicable until answered.
const (
	StatusNA Status = iota
	StatusOK
	StatusNO
)

// String renders the status column literal used by exports and displays.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNO:
		return "NO"
	default:
		return "N/A"
	}
}

// UnitForm is the mutable answer record for one question-in-section. FormID
// is assigned sequentially at questionnaire construction and is not a stable
// function of the question or section id across rebuilds.
type UnitForm struct {
	FormID     uint64
	QuestionID domain.QuestionID
	SectionID  domain.SectionID
	Status     Status
	Notes      string
}

// FormRecord is the flat export row for one form. Field order matches the
// CSV column contract: section_name, specification_content, notes, status.
type FormRecord struct {
	SectionName          string
	SpecificationContent string
	Notes                string
	Status               string
}

// Document is the table-structured view handed to document renderers: one
// row per form, four columns (section, question, notes, status).
type Document struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Questionnaire pairs a job tree with the forms derived from it. It is built
// once per report and replaced wholesale on rebuild; mutation is synchronous
// and assumes a single owner.
type Questionnaire struct {
	job   *domain.Job
	forms map[uint64]*UnitForm
}

// New derives one form per (section, question) pair of the job, statuses NA
// and notes empty. Form ids count up over sections and questions in
// ascending id order, so derivation is reproducible for the same tree.
// Orphaned questions receive no form and cannot be answered through the
// questionnaire.
func New(job *domain.Job) *Questionnaire {
	forms := make(map[uint64]*UnitForm)
	var next uint64
	for _, section := range job.Sections() {
		for _, question := range section.Questions() {
			forms[next] = &UnitForm{
				FormID:     next,
				QuestionID: question.ID,
				SectionID:  section.ID,
				Status:     StatusNA,
			}
			next++
		}
	}
	return &Questionnaire{job: job, forms: forms}
}

// Job returns the underlying job tree.
func (q *Questionnaire) Job() *domain.Job { return q.job }

// Form returns a copy of the form with the given id.
func (q *Questionnaire) Form(id uint64) (UnitForm, error) {
	form, ok := q.forms[id]
	if !ok {
		return UnitForm{}, domain.NotFoundError{Kind: domain.KindForm, ID: id}
	}
	return *form, nil
}

// UpdateFormNotes replaces the notes of the form with the given id. An
// unknown id fails with NotFound and leaves every form untouched.
func (q *Questionnaire) UpdateFormNotes(id uint64, notes string) error {
	form, ok := q.forms[id]
	if !ok {
		return domain.NotFoundError{Kind: domain.KindForm, ID: id}
	}
	form.Notes = notes
	return nil
}

// UpdateFormStatus replaces the status of the form with the given id.
func (q *Questionnaire) UpdateFormStatus(id uint64, status Status) error {
	form, ok := q.forms[id]
	if !ok {
		return domain.NotFoundError{Kind: domain.KindForm, ID: id}
	}
	form.Status = status
	return nil
}

// Question resolves a question through the job.
func (q *Questionnaire) Question(sectionID domain.SectionID, questionID domain.QuestionID) (domain.Question, error) {
	return q.job.Question(sectionID, questionID)
}

// Section resolves a section through the job.
func (q *Questionnaire) Section(sectionID domain.SectionID) (*domain.Section, error) {
	return q.job.Section(sectionID)
}

// Forms returns copies of all forms sorted ascending by form id, giving
// exports and displays a deterministic order.
func (q *Questionnaire) Forms() []UnitForm {
	out := make([]UnitForm, 0, len(q.forms))
	for _, form := range q.forms {
		out = append(out, *form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FormID < out[j].FormID })
	return out
}

// Records renders every form, in Forms() order, to its flat export row.
func (q *Questionnaire) Records() ([]FormRecord, error) {
	forms := q.Forms()
	records := make([]FormRecord, 0, len(forms))
	for _, form := range forms {
		section, err := q.job.Section(form.SectionID)
		if err != nil {
			return nil, err
		}
		question, err := section.Question(form.QuestionID)
		if err != nil {
			return nil, err
		}
		records = append(records, FormRecord{
			SectionName:          section.Title,
			SpecificationContent: question.Title,
			Notes:                form.Notes,
			Status:               form.Status.String(),
		})
	}
	return records, nil
}

// RenderDocument builds the four-column table view consumed by document
// renderers (the PDF sink), one row per form in Forms() order.
func (q *Questionnaire) RenderDocument(title string) (Document, error) {
	records, err := q.Records()
	if err != nil {
		return Document{}, err
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{rec.SectionName, rec.SpecificationContent, rec.Notes, rec.Status})
	}
	return Document{
		Title:   title,
		Columns: []string{"section_name", "specification_content", "notes", "status"},
		Rows:    rows,
	}, nil
}

// String dumps every form as "id, section, question, status, notes" lines.
// Unresolvable titles render empty rather than failing the dump.
func (q *Questionnaire) String() string {
	var b strings.Builder
	for _, form := range q.Forms() {
		var sectionTitle, questionTitle string
		if section, err := q.job.Section(form.SectionID); err == nil {
			sectionTitle = section.Title
		}
		if question, err := q.job.Question(form.SectionID, form.QuestionID); err == nil {
			questionTitle = question.Title
		}
		fmt.Fprintf(&b, "%d, %s, %s, %s, %s\n", form.FormID, sectionTitle, questionTitle, form.Status, form.Notes)
	}
	return b.String()
}
