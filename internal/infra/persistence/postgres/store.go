// Package postgres implements the questionnaire persistence contract on
// PostgreSQL through the pgx stdlib driver. Unlike the sqlite variant it
// keeps one pooled handle for the life of the store; PostgreSQL connections
// are not cheap enough to open per operation.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"qcreport/pkg/domain"
)

var _ domain.Store = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost:5432/qcreport?sslmode=disable"
)

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

const schemaDDL = `
CREATE TABLE IF NOT EXISTS section (
	id BIGSERIAL PRIMARY KEY,
	section_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS job_type (
	id BIGSERIAL PRIMARY KEY,
	job_type_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS additive_section (
	section_id BIGINT REFERENCES section (id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS specification (
	id BIGSERIAL PRIMARY KEY,
	specification_content TEXT NOT NULL UNIQUE,
	section_id BIGINT REFERENCES section (id) ON DELETE SET NULL
);
CREATE TABLE IF NOT EXISTS job_specification (
	job_type_id BIGINT REFERENCES job_type (id) ON DELETE CASCADE,
	specification_id BIGINT REFERENCES specification (id) ON DELETE CASCADE,
	PRIMARY KEY (job_type_id, specification_id)
);`

// Store holds the pooled connection and the DSN it was opened with.
type Store struct {
	dsn string
	db  *sql.DB
}

// NewStore connects to the database at dsn (falling back to a local default
// when empty) and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, &domain.ErrorSet{Errors: []error{&domain.ConnectionError{Err: err}}}
	}
	if err := db.PingContext(ctx); err != nil {
		errs := []error{&domain.ConnectionError{Err: err}}
		if closeErr := db.Close(); closeErr != nil {
			return nil, &domain.ErrorSet{Errors: append(errs, &domain.CloseError{Err: closeErr}), Conn: db}
		}
		return nil, &domain.ErrorSet{Errors: errs}
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		errs := []error{&domain.StatementError{Op: "init schema", Err: err}}
		if closeErr := db.Close(); closeErr != nil {
			return nil, &domain.ErrorSet{Errors: append(errs, &domain.CloseError{Err: closeErr}), Conn: db}
		}
		return nil, &domain.ErrorSet{Errors: errs}
	}
	return &Store{dsn: dsn, db: db}, nil
}

// Close releases the pooled handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &domain.ErrorSet{Errors: []error{&domain.CloseError{Err: err}}, Conn: s.db}
	}
	return nil
}

func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &domain.ErrorSet{Errors: []error{&domain.StatementError{Op: op, Err: err}}}
	}
	return nil
}

func wrap(err error) error {
	return &domain.ErrorSet{Errors: []error{err}}
}

// AddJobType inserts one job type row.
func (s *Store) AddJobType(ctx context.Context, name string) error {
	return s.exec(ctx, "add job_type", `INSERT INTO job_type (job_type_name) VALUES ($1)`, name)
}

// AddSection inserts one section row.
func (s *Store) AddSection(ctx context.Context, name string) error {
	return s.exec(ctx, "add section", `INSERT INTO section (section_name) VALUES ($1)`, name)
}

// AddAdditiveSection records a supplemental association for the named section.
func (s *Store) AddAdditiveSection(ctx context.Context, sectionName string) error {
	var id uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM section WHERE section_name = $1`, sectionName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return wrap(domain.NotFoundError{Kind: domain.KindSection, Name: sectionName})
	}
	if err != nil {
		return wrap(&domain.StatementError{Op: "lookup section", Err: err})
	}
	return s.exec(ctx, "add additive_section",
		`INSERT INTO additive_section (section_id) VALUES ($1)`, id)
}

// AddSpecification inserts one specification row; a nil sectionID persists
// as NULL.
func (s *Store) AddSpecification(ctx context.Context, content string, sectionID *domain.SectionID) error {
	var section any
	if sectionID != nil {
		section = uint64(*sectionID)
	}
	return s.exec(ctx, "add specification",
		`INSERT INTO specification (specification_content, section_id) VALUES ($1, $2)`, content, section)
}

// AddJobSpecification links one specification to one job type.
func (s *Store) AddJobSpecification(ctx context.Context, jobID domain.JobID, specificationID domain.QuestionID) error {
	return s.exec(ctx, "add job_specification",
		`INSERT INTO job_specification (job_type_id, specification_id) VALUES ($1, $2)`,
		uint64(jobID), uint64(specificationID))
}

// UpdateJobType rewrites the name of the job type with the given id.
func (s *Store) UpdateJobType(ctx context.Context, id domain.JobID, name string) error {
	return s.exec(ctx, "update job_type",
		`UPDATE job_type SET job_type_name = $2 WHERE id = $1`, uint64(id), name)
}

// UpdateSection rewrites the name of the section with the given id.
func (s *Store) UpdateSection(ctx context.Context, id domain.SectionID, name string) error {
	return s.exec(ctx, "update section",
		`UPDATE section SET section_name = $2 WHERE id = $1`, uint64(id), name)
}

// UpdateSpecificationContent rewrites one specification's content.
func (s *Store) UpdateSpecificationContent(ctx context.Context, id domain.QuestionID, content string) error {
	return s.exec(ctx, "update specification content",
		`UPDATE specification SET specification_content = $2 WHERE id = $1`, uint64(id), content)
}

// UpdateSpecificationSection rewrites one specification's section link.
func (s *Store) UpdateSpecificationSection(ctx context.Context, id domain.QuestionID, sectionID domain.SectionID) error {
	return s.exec(ctx, "update specification section",
		`UPDATE specification SET section_id = $2 WHERE id = $1`, uint64(id), uint64(sectionID))
}

// RemoveJobType deletes one job type; its job_specification rows cascade.
func (s *Store) RemoveJobType(ctx context.Context, id domain.JobID) error {
	return s.exec(ctx, "remove job_type", `DELETE FROM job_type WHERE id = $1`, uint64(id))
}

// RemoveSection deletes one section; dependents cascade or null out per the
// schema.
func (s *Store) RemoveSection(ctx context.Context, id domain.SectionID) error {
	return s.exec(ctx, "remove section", `DELETE FROM section WHERE id = $1`, uint64(id))
}

// RemoveSpecification deletes one specification.
func (s *Store) RemoveSpecification(ctx context.Context, id domain.QuestionID) error {
	return s.exec(ctx, "remove specification", `DELETE FROM specification WHERE id = $1`, uint64(id))
}

// RemoveJobSpecification unlinks one specification from one job type.
func (s *Store) RemoveJobSpecification(ctx context.Context, jobID domain.JobID, specificationID domain.QuestionID) error {
	return s.exec(ctx, "remove job_specification",
		`DELETE FROM job_specification WHERE job_type_id = $1 AND specification_id = $2`,
		uint64(jobID), uint64(specificationID))
}

// GetJobType returns the job type row with the given id.
func (s *Store) GetJobType(ctx context.Context, id domain.JobID) (domain.JobTypeRecord, error) {
	var rec domain.JobTypeRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, job_type_name FROM job_type WHERE id = $1`, uint64(id)).
		Scan(&rec.ID, &rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, wrap(domain.NotFoundError{Kind: domain.KindJobType, ID: uint64(id)})
	}
	if err != nil {
		return rec, wrap(&domain.StatementError{Op: "get job_type", Err: err})
	}
	return rec, nil
}

// GetJobTypeID resolves a job type name to its id.
func (s *Store) GetJobTypeID(ctx context.Context, name string) (domain.JobID, error) {
	var id uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM job_type WHERE job_type_name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, wrap(domain.NotFoundError{Kind: domain.KindJobType, Name: name})
	}
	if err != nil {
		return 0, wrap(&domain.StatementError{Op: "get job_type id", Err: err})
	}
	return domain.JobID(id), nil
}

// GetSection returns the section row with the given id.
func (s *Store) GetSection(ctx context.Context, id domain.SectionID) (domain.SectionRecord, error) {
	var rec domain.SectionRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, section_name FROM section WHERE id = $1`, uint64(id)).
		Scan(&rec.ID, &rec.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, wrap(domain.NotFoundError{Kind: domain.KindSection, ID: uint64(id)})
	}
	if err != nil {
		return rec, wrap(&domain.StatementError{Op: "get section", Err: err})
	}
	return rec, nil
}

// GetSectionID resolves a section name to its id.
func (s *Store) GetSectionID(ctx context.Context, name string) (domain.SectionID, error) {
	var id uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM section WHERE section_name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, wrap(domain.NotFoundError{Kind: domain.KindSection, Name: name})
	}
	if err != nil {
		return 0, wrap(&domain.StatementError{Op: "get section id", Err: err})
	}
	return domain.SectionID(id), nil
}

// GetSpecification returns one specification joined to its section.
func (s *Store) GetSpecification(ctx context.Context, id domain.QuestionID) (domain.SpecificationRecord, error) {
	var rec domain.SpecificationRecord
	var sectionID sql.NullInt64
	var sectionName sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT specification.id, specification_content, section_id, section_name
		 FROM specification LEFT JOIN section ON section.id = section_id
		 WHERE specification.id = $1`, uint64(id)).
		Scan(&rec.ID, &rec.Content, &sectionID, &sectionName)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, wrap(domain.NotFoundError{Kind: domain.KindSpecification, ID: uint64(id)})
	}
	if err != nil {
		return rec, wrap(&domain.StatementError{Op: "get specification", Err: err})
	}
	rec.Section = sectionRef(sectionID, sectionName)
	return rec, nil
}

// GetAllJobTypes lists every job type in store-native order.
func (s *Store) GetAllJobTypes(ctx context.Context) ([]domain.JobTypeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, job_type_name FROM job_type`)
	if err != nil {
		return nil, wrap(&domain.StatementError{Op: "list job_types", Err: err})
	}
	defer func() { _ = rows.Close() }()

	var out []domain.JobTypeRecord
	for rows.Next() {
		var rec domain.JobTypeRecord
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, wrap(&domain.StatementError{Op: "scan job_type", Err: err})
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(&domain.StatementError{Op: "list job_types", Err: err})
	}
	return out, nil
}

// GetAllSections lists every section in store-native order.
func (s *Store) GetAllSections(ctx context.Context) ([]domain.SectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, section_name FROM section`)
	if err != nil {
		return nil, wrap(&domain.StatementError{Op: "list sections", Err: err})
	}
	defer func() { _ = rows.Close() }()

	var out []domain.SectionRecord
	for rows.Next() {
		var rec domain.SectionRecord
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, wrap(&domain.StatementError{Op: "scan section", Err: err})
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(&domain.StatementError{Op: "list sections", Err: err})
	}
	return out, nil
}

// GetAllSpecifications lists every specification joined to its section.
func (s *Store) GetAllSpecifications(ctx context.Context) ([]domain.SpecificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT specification.id, specification_content, section_id, section_name
		 FROM specification LEFT JOIN section ON section.id = section_id`)
	if err != nil {
		return nil, wrap(&domain.StatementError{Op: "list specifications", Err: err})
	}
	defer func() { _ = rows.Close() }()

	var out []domain.SpecificationRecord
	for rows.Next() {
		var rec domain.SpecificationRecord
		var sectionID sql.NullInt64
		var sectionName sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Content, &sectionID, &sectionName); err != nil {
			return nil, wrap(&domain.StatementError{Op: "scan specification", Err: err})
		}
		rec.Section = sectionRef(sectionID, sectionName)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(&domain.StatementError{Op: "list specifications", Err: err})
	}
	return out, nil
}

// GetAllJobSpecifications returns the answer-set join for one job type.
func (s *Store) GetAllJobSpecifications(ctx context.Context, jobID domain.JobID) ([]domain.JobSpecificationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_type_id, job_type_name, section_id, section_name, specification_id, specification_content
		 FROM job_specification
		 INNER JOIN specification ON specification_id = specification.id
		 INNER JOIN job_type ON job_type_id = job_type.id
		 LEFT JOIN section ON section_id = section.id
		 WHERE job_type_id = $1`, uint64(jobID))
	if err != nil {
		return nil, wrap(&domain.StatementError{Op: "list job_specifications", Err: err})
	}
	defer func() { _ = rows.Close() }()

	var out []domain.JobSpecificationRecord
	for rows.Next() {
		var rec domain.JobSpecificationRecord
		var sectionID sql.NullInt64
		var sectionName sql.NullString
		if err := rows.Scan(&rec.JobTypeID, &rec.JobName, &sectionID, &sectionName,
			&rec.SpecificationID, &rec.Content); err != nil {
			return nil, wrap(&domain.StatementError{Op: "scan job_specification", Err: err})
		}
		rec.Section = sectionRef(sectionID, sectionName)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(&domain.StatementError{Op: "list job_specifications", Err: err})
	}
	return out, nil
}

// JobExists reports whether a job type with the given name exists.
func (s *Store) JobExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM job_type WHERE job_type_name = $1`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrap(&domain.StatementError{Op: "job exists", Err: err})
	}
	return true, nil
}

// JobHasSpecification reports whether the job type is linked to the
// specification.
func (s *Store) JobHasSpecification(ctx context.Context, jobID domain.JobID, specificationID domain.QuestionID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM job_specification WHERE job_type_id = $1 AND specification_id = $2`,
		uint64(jobID), uint64(specificationID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrap(&domain.StatementError{Op: "job has specification", Err: err})
	}
	return true, nil
}

func sectionRef(id sql.NullInt64, name sql.NullString) *domain.SectionRecord {
	if !id.Valid || !name.Valid {
		return nil
	}
	return &domain.SectionRecord{ID: domain.SectionID(id.Int64), Name: name.String}
}
