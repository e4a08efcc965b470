// Package report hosts the service boundary: it loads answer-set rows from a
// store, assembles the job tree, derives the questionnaire and tallies
// compliance. It is the only package that touches persistence backends.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"qcreport/internal/projection"
	"qcreport/internal/questionnaire"
	"qcreport/pkg/domain"
)

// Service owns the working questionnaire for one job at a time. It is not
// safe for concurrent use; one report is edited by one caller.
type Service struct {
	store   domain.Store
	logger  *slog.Logger
	metrics MetricsRecorder

	jobID domain.JobID
	sheet *questionnaire.Questionnaire
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// NewService wires a service over the given store.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  slog.Default(),
		metrics: noopMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

// BuildReport loads the answer-set join for jobID, assembles the job tree
// and derives a fresh questionnaire, replacing any previous working state.
// A job with no linked specifications fails with NotFound.
func (s *Service) BuildReport(ctx context.Context, jobID domain.JobID) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "build_report", start, err) }()

	rows, err := s.store.GetAllJobSpecifications(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %d: %w", jobID, err)
	}
	jobs, err := projection.Assemble(rows)
	if err != nil {
		return fmt.Errorf("assemble job %d: %w", jobID, err)
	}
	job, ok := jobs[jobID]
	if !ok {
		return domain.NotFoundError{Kind: domain.KindJob, ID: uint64(jobID)}
	}

	s.jobID = jobID
	s.sheet = questionnaire.New(job)
	s.logger.InfoContext(ctx, "report built",
		"job_id", uint64(jobID),
		"job", job.Title,
		"sections", len(job.Sections()),
		"forms", len(s.sheet.Forms()),
		"orphans", len(job.OrphanedQuestions()))
	return nil
}

// ErrNoReport is returned by operations that need a working questionnaire
// before BuildReport has produced one.
var ErrNoReport = errors.New("no report built")

func (s *Service) working() (*questionnaire.Questionnaire, error) {
	if s.sheet == nil {
		return nil, ErrNoReport
	}
	return s.sheet, nil
}

// JobID returns the id of the job the working questionnaire was built from.
func (s *Service) JobID() domain.JobID { return s.jobID }

// UpdateFormNotes rewrites the notes of one form of the working
// questionnaire.
func (s *Service) UpdateFormNotes(ctx context.Context, formID uint64, notes string) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "update_form_notes", start, err) }()

	sheet, err := s.working()
	if err != nil {
		return err
	}
	if err = sheet.UpdateFormNotes(formID, notes); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "form notes updated", "form_id", formID)
	return nil
}

// UpdateFormStatus rewrites the status of one form of the working
// questionnaire.
func (s *Service) UpdateFormStatus(ctx context.Context, formID uint64, status questionnaire.Status) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "update_form_status", start, err) }()

	sheet, err := s.working()
	if err != nil {
		return err
	}
	if err = sheet.UpdateFormStatus(formID, status); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "form status updated", "form_id", formID, "status", status.String())
	return nil
}

// FormFields returns the display fields of one form: section title, question
// title, notes and status literal. Unresolvable titles degrade to empty
// strings so a display never fails outright.
func (s *Service) FormFields(formID uint64) []string {
	if s.sheet == nil {
		return nil
	}
	form, err := s.sheet.Form(formID)
	if err != nil {
		return nil
	}
	var sectionTitle, questionTitle string
	if section, err := s.sheet.Section(form.SectionID); err == nil {
		sectionTitle = section.Title
	}
	if question, err := s.sheet.Question(form.SectionID, form.QuestionID); err == nil {
		questionTitle = question.Title
	}
	return []string{sectionTitle, questionTitle, form.Notes, form.Status.String()}
}

// Forms returns the working forms in derivation order.
func (s *Service) Forms() ([]questionnaire.UnitForm, error) {
	sheet, err := s.working()
	if err != nil {
		return nil, err
	}
	return sheet.Forms(), nil
}

// Records renders the working questionnaire to flat export rows.
func (s *Service) Records() ([]questionnaire.FormRecord, error) {
	sheet, err := s.working()
	if err != nil {
		return nil, err
	}
	return sheet.Records()
}

// Document renders the working questionnaire to the table view document
// renderers consume.
func (s *Service) Document(title string) (questionnaire.Document, error) {
	sheet, err := s.working()
	if err != nil {
		return questionnaire.Document{}, err
	}
	return sheet.RenderDocument(title)
}

// BuildTally folds the working forms into a per-section compliance tally.
// N/A forms contribute nothing.
func (s *Service) BuildTally() (*ComplianceTally, error) {
	sheet, err := s.working()
	if err != nil {
		return nil, err
	}
	tally := NewComplianceTally()
	for _, form := range sheet.Forms() {
		section, err := sheet.Section(form.SectionID)
		if err != nil {
			return nil, err
		}
		switch form.Status {
		case questionnaire.StatusOK:
			tally.IncrementOK(section.Title)
		case questionnaire.StatusNO:
			tally.IncrementNO(section.Title)
		}
	}
	return tally, nil
}

// ComplianceRecords tallies the working forms and returns the per-section
// records.
func (s *Service) ComplianceRecords() ([]ComplianceRecord, error) {
	tally, err := s.BuildTally()
	if err != nil {
		return nil, err
	}
	return tally.Records(), nil
}
