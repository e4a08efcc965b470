package domain

// Identifiers are distinct newtypes over the store's 64-bit row ids so the
// compiler rejects cross-kind misuse (a SectionID can never be passed where a
// QuestionID is expected even though both are unsigned integers underneath).

// JobID identifies a job type, the top-level questionnaire family.
type JobID uint64

// SectionID identifies a named grouping of checklist items within a job.
type SectionID uint64

// QuestionID identifies a single checklist item (a specification row).
type QuestionID uint64
