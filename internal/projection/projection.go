// Package projection folds flat job/specification/section join rows into the
// hierarchical domain model.
package projection

import (
	"fmt"

	"qcreport/pkg/domain"
)

// TranslationError reports a row whose declared job was absent from the
// working map at lookup time. Given the creation order below this branch is
// unreachable for well-formed input; hitting it signals a translator bug.
type TranslationError struct {
	JobID domain.JobID
}

func (e TranslationError) Error() string {
	return fmt.Sprintf("no job id %d found in working set", e.JobID)
}

// Assemble iterates the rows once and builds one Job tree per distinct job
// id. Jobs and sections are created lazily on first sight, named from the
// row; question inserts are idempotent, so duplicate rows are safely ignored.
// Rows without a section land in the job's orphan bag. A job that appears in
// no row does not appear in the output.
func Assemble(rows []domain.JobSpecificationRecord) (map[domain.JobID]*domain.Job, error) {
	jobs := make(map[domain.JobID]*domain.Job)

	for _, row := range rows {
		if _, ok := jobs[row.JobTypeID]; !ok {
			jobs[row.JobTypeID] = domain.NewJob(row.JobTypeID, row.JobName, "")
		}
	}

	for _, row := range rows {
		job, ok := jobs[row.JobTypeID]
		if !ok {
			return nil, TranslationError{JobID: row.JobTypeID}
		}

		question := domain.Question{ID: row.SpecificationID, Title: row.Content}

		if row.Section == nil {
			job.AddOrphanedQuestion(question)
			continue
		}

		if !job.HasSection(row.Section.ID) {
			job.AddSection(domain.NewSection(row.Section.ID, row.Section.Name, ""))
		}
		if err := job.AddQuestion(row.Section.ID, question); err != nil {
			return nil, err
		}
	}

	return jobs, nil
}
