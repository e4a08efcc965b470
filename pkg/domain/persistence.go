package domain

import "context"

// JobTypeRecord is one row of the job_type table.
type JobTypeRecord struct {
	ID   JobID
	Name string
}

// SectionRecord is one row of the section table.
type SectionRecord struct {
	ID   SectionID
	Name string
}

// SpecificationRecord is one row of the specification table joined to its
// section. Section is nil when the row carries a NULL section_id.
type SpecificationRecord struct {
	ID      QuestionID
	Content string
	Section *SectionRecord
}

// JobSpecificationRecord is one row of the job answer-set join: one answered
// item in one job, optionally associated with a section. It is the
// translator's input shape.
type JobSpecificationRecord struct {
	JobTypeID JobID
	JobName   string
	Section   *SectionRecord

	SpecificationID QuestionID
	Content         string
}

// Equal compares all fields, treating a nil section as equal only to nil.
func (r JobSpecificationRecord) Equal(other JobSpecificationRecord) bool {
	if r.JobTypeID != other.JobTypeID || r.JobName != other.JobName {
		return false
	}
	if r.SpecificationID != other.SpecificationID || r.Content != other.Content {
		return false
	}
	switch {
	case r.Section == nil && other.Section == nil:
		return true
	case r.Section == nil || other.Section == nil:
		return false
	default:
		return *r.Section == *other.Section
	}
}

// Store is the persistence contract for the five-table questionnaire schema.
// Every operation is one unit of work; failures arrive as an *ErrorSet whose
// members follow the ConnectionError/StatementError/CloseError taxonomy (a
// missing row is a NotFoundError member). List operations return rows in
// store-native order; callers must not rely on it.
type Store interface {
	AddJobType(ctx context.Context, name string) error
	AddSection(ctx context.Context, name string) error
	AddAdditiveSection(ctx context.Context, sectionName string) error
	AddSpecification(ctx context.Context, content string, sectionID *SectionID) error
	AddJobSpecification(ctx context.Context, jobID JobID, specificationID QuestionID) error

	UpdateJobType(ctx context.Context, id JobID, name string) error
	UpdateSection(ctx context.Context, id SectionID, name string) error
	UpdateSpecificationContent(ctx context.Context, id QuestionID, content string) error
	UpdateSpecificationSection(ctx context.Context, id QuestionID, sectionID SectionID) error

	RemoveJobType(ctx context.Context, id JobID) error
	RemoveSection(ctx context.Context, id SectionID) error
	RemoveSpecification(ctx context.Context, id QuestionID) error
	RemoveJobSpecification(ctx context.Context, jobID JobID, specificationID QuestionID) error

	GetJobType(ctx context.Context, id JobID) (JobTypeRecord, error)
	GetJobTypeID(ctx context.Context, name string) (JobID, error)
	GetSection(ctx context.Context, id SectionID) (SectionRecord, error)
	GetSectionID(ctx context.Context, name string) (SectionID, error)
	GetSpecification(ctx context.Context, id QuestionID) (SpecificationRecord, error)

	GetAllJobTypes(ctx context.Context) ([]JobTypeRecord, error)
	GetAllSections(ctx context.Context) ([]SectionRecord, error)
	GetAllSpecifications(ctx context.Context) ([]SpecificationRecord, error)
	GetAllJobSpecifications(ctx context.Context, jobID JobID) ([]JobSpecificationRecord, error)

	JobExists(ctx context.Context, name string) (bool, error)
	JobHasSpecification(ctx context.Context, jobID JobID, specificationID QuestionID) (bool, error)
}
