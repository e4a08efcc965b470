// Package domain defines the core questionnaire entities, their identifier
// types, and the persistence contracts used by qcreport.
package domain

import "sort"

// Question is one checklist item. Description is informational and excluded
// from equality; two questions are the same item when id and title match.
type Question struct {
	ID          QuestionID
	Title       string
	Description string
}

// Equal reports whether both questions carry the same id and title.
func (q Question) Equal(other Question) bool {
	return q.ID == other.ID && q.Title == other.Title
}

// Section owns a set of questions keyed by id. A question id is unique within
// its owning section.
type Section struct {
	ID          SectionID
	Title       string
	Description string

	questions map[QuestionID]Question
}

// NewSection constructs an empty section.
func NewSection(id SectionID, title, description string) *Section {
	return &Section{
		ID:          id,
		Title:       title,
		Description: description,
		questions:   make(map[QuestionID]Question),
	}
}

// AddQuestion inserts the question unless one with the same id is already
// present. Re-inserting an existing id is a no-op, not an update.
func (s *Section) AddQuestion(q Question) {
	if _, ok := s.questions[q.ID]; ok {
		return
	}
	s.questions[q.ID] = q
}

// RemoveQuestion deletes the question with the given id.
func (s *Section) RemoveQuestion(id QuestionID) error {
	if _, ok := s.questions[id]; !ok {
		return NotFoundError{Kind: KindQuestion, ID: uint64(id)}
	}
	delete(s.questions, id)
	return nil
}

// Question returns the question with the given id.
func (s *Section) Question(id QuestionID) (Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return Question{}, NotFoundError{Kind: KindQuestion, ID: uint64(id)}
	}
	return q, nil
}

// HasQuestion reports whether a question with the given id exists.
func (s *Section) HasQuestion(id QuestionID) bool {
	_, ok := s.questions[id]
	return ok
}

// Questions returns all questions sorted ascending by id. Callers must not
// rely on any other ordering; map iteration order never leaks out.
func (s *Section) Questions() []Question {
	out := make([]Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QuestionCount returns the number of owned questions.
func (s *Section) QuestionCount() int { return len(s.questions) }

// Equal reports full two-way equality: matching id and title, and identical
// question sets in both directions.
func (s *Section) Equal(other *Section) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.ID != other.ID || s.Title != other.Title {
		return false
	}
	if len(s.questions) != len(other.questions) {
		return false
	}
	for id, q := range s.questions {
		oq, ok := other.questions[id]
		if !ok || !q.Equal(oq) {
			return false
		}
	}
	return true
}

// Job is the top-level questionnaire instance for one inspection type. It
// exclusively owns its sections and a bag of orphaned questions that carry no
// section association; the two never share a question with the same meaning.
type Job struct {
	ID          JobID
	Title       string
	Description string

	sections map[SectionID]*Section
	orphans  map[QuestionID]Question
}

// NewJob constructs an empty job.
func NewJob(id JobID, title, description string) *Job {
	return &Job{
		ID:          id,
		Title:       title,
		Description: description,
		sections:    make(map[SectionID]*Section),
		orphans:     make(map[QuestionID]Question),
	}
}

// AddSection inserts the section unless one with the same id already exists.
func (j *Job) AddSection(s *Section) {
	if _, ok := j.sections[s.ID]; ok {
		return
	}
	j.sections[s.ID] = s
}

// Section returns the owned section with the given id.
func (j *Job) Section(id SectionID) (*Section, error) {
	s, ok := j.sections[id]
	if !ok {
		return nil, NotFoundError{Kind: KindSection, ID: uint64(id)}
	}
	return s, nil
}

// RemoveSection deletes the section with the given id.
func (j *Job) RemoveSection(id SectionID) error {
	if _, ok := j.sections[id]; !ok {
		return NotFoundError{Kind: KindSection, ID: uint64(id)}
	}
	delete(j.sections, id)
	return nil
}

// HasSection reports whether a section with the given id exists.
func (j *Job) HasSection(id SectionID) bool {
	_, ok := j.sections[id]
	return ok
}

// Sections returns all owned sections sorted ascending by id.
func (j *Job) Sections() []*Section {
	out := make([]*Section, 0, len(j.sections))
	for _, s := range j.sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddQuestion inserts a question under the section with the given id.
func (j *Job) AddQuestion(sectionID SectionID, q Question) error {
	s, err := j.Section(sectionID)
	if err != nil {
		return err
	}
	s.AddQuestion(q)
	return nil
}

// Question resolves a question through its owning section.
func (j *Job) Question(sectionID SectionID, questionID QuestionID) (Question, error) {
	s, err := j.Section(sectionID)
	if err != nil {
		return Question{}, err
	}
	return s.Question(questionID)
}

// RemoveQuestion deletes a question from its owning section.
func (j *Job) RemoveQuestion(sectionID SectionID, questionID QuestionID) error {
	s, err := j.Section(sectionID)
	if err != nil {
		return err
	}
	return s.RemoveQuestion(questionID)
}

// AddOrphanedQuestion places a question into the job's orphan bag. Insertion
// is idempotent under the same policy as sections.
func (j *Job) AddOrphanedQuestion(q Question) {
	if _, ok := j.orphans[q.ID]; ok {
		return
	}
	j.orphans[q.ID] = q
}

// OrphanedQuestion returns the orphaned question with the given id.
func (j *Job) OrphanedQuestion(id QuestionID) (Question, error) {
	q, ok := j.orphans[id]
	if !ok {
		return Question{}, NotFoundError{Kind: KindQuestion, ID: uint64(id)}
	}
	return q, nil
}

// RemoveOrphanedQuestion deletes the orphaned question with the given id.
func (j *Job) RemoveOrphanedQuestion(id QuestionID) error {
	if _, ok := j.orphans[id]; !ok {
		return NotFoundError{Kind: KindQuestion, ID: uint64(id)}
	}
	delete(j.orphans, id)
	return nil
}

// OrphanedQuestions returns the orphan bag sorted ascending by id.
func (j *Job) OrphanedQuestions() []Question {
	out := make([]Question, 0, len(j.orphans))
	for _, q := range j.orphans {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Equal reports whether both jobs carry the same id, title, and section sets.
func (j *Job) Equal(other *Job) bool {
	if j == nil || other == nil {
		return j == other
	}
	if j.ID != other.ID || j.Title != other.Title {
		return false
	}
	if len(j.sections) != len(other.sections) {
		return false
	}
	for id, s := range j.sections {
		os, ok := other.sections[id]
		if !ok || !s.Equal(os) {
			return false
		}
	}
	if len(j.orphans) != len(other.orphans) {
		return false
	}
	for id, q := range j.orphans {
		oq, ok := other.orphans[id]
		if !ok || !q.Equal(oq) {
			return false
		}
	}
	return true
}
