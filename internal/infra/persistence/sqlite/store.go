// Package sqlite implements the questionnaire persistence contract over a
// single local SQLite file using the pure-Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"qcreport/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.Store = (*Store)(nil)

const (
	driverName  = "sqlite"
	defaultPath = "qcr_database.db"
)

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

const schemaDDL = `
CREATE TABLE IF NOT EXISTS section (
	id INTEGER PRIMARY KEY,
	section_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS job_type (
	id INTEGER PRIMARY KEY,
	job_type_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS additive_section (
	section_id INTEGER,
	FOREIGN KEY (section_id)
		REFERENCES section (id)
			ON DELETE CASCADE
			ON UPDATE NO ACTION
);
CREATE TABLE IF NOT EXISTS specification (
	id INTEGER PRIMARY KEY,
	specification_content TEXT NOT NULL UNIQUE,
	section_id INTEGER,
	FOREIGN KEY (section_id)
		REFERENCES section (id)
			ON DELETE SET NULL
			ON UPDATE NO ACTION
);
CREATE TABLE IF NOT EXISTS job_specification (
	job_type_id INTEGER,
	specification_id INTEGER,
	PRIMARY KEY (job_type_id, specification_id),
	FOREIGN KEY (job_type_id)
		REFERENCES job_type (id)
			ON DELETE CASCADE
			ON UPDATE NO ACTION,
	FOREIGN KEY (specification_id)
		REFERENCES specification (id)
			ON DELETE CASCADE
			ON UPDATE NO ACTION
);`

// Store executes one unit of work per operation against the configured file:
// open a dedicated connection, run the statement, close the connection,
// report every error. No connection is shared across calls. The store is
// meant for a single owner; concurrent callers are out of scope.
type Store struct {
	path string
	dsn  string

	// Connections whose close failed. Retained so a caller can attempt
	// remediation later instead of leaking the handle.
	leaked []io.Closer
}

// NewStore opens (creating if needed) the database file at path and applies
// the schema. An empty path falls back to qcr_database.db in the working
// directory. Foreign key enforcement is switched on per connection through
// the DSN so the schema's cascade and set-null policies hold.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	s := &Store{
		path: path,
		dsn:  "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}
	if _, err := run(s, func(db *sql.DB) (struct{}, error) {
		if _, err := db.Exec(schemaDDL); err != nil {
			return struct{}{}, &domain.StatementError{Op: "init schema", Err: err}
		}
		return struct{}{}, nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the configured database file path.
func (s *Store) Path() string { return s.path }

// LeakedConns returns the handles whose close failed, oldest first.
func (s *Store) LeakedConns() []io.Closer {
	out := make([]io.Closer, len(s.leaked))
	copy(out, s.leaked)
	return out
}

// CloseLeaked retries closing every retained handle, dropping the ones that
// close cleanly and reporting the rest.
func (s *Store) CloseLeaked() error {
	var errs []error
	var still []io.Closer
	for _, c := range s.leaked {
		if err := c.Close(); err != nil {
			errs = append(errs, &domain.CloseError{Err: err})
			still = append(still, c)
		}
	}
	s.leaked = still
	if len(errs) > 0 {
		return &domain.ErrorSet{Errors: errs}
	}
	return nil
}

// run is the unit-of-work wrapper shared by every operation: open, execute,
// close. The operation error and any close error are collected into one
// ordered ErrorSet; when the close fails the still-open handle travels out
// through the set and is retained on the store, never dropped.
func run[T any](s *Store, fn func(*sql.DB) (T, error)) (T, error) {
	var zero T

	db, err := sqlOpen(driverName, s.dsn)
	if err != nil {
		return zero, &domain.ErrorSet{Errors: []error{&domain.ConnectionError{Err: err}}}
	}

	value, opErr := fn(db)

	var errs []error
	if opErr != nil {
		errs = append(errs, opErr)
	}
	var open io.Closer
	if closeErr := db.Close(); closeErr != nil {
		errs = append(errs, &domain.CloseError{Err: closeErr})
		open = db
		s.leaked = append(s.leaked, db)
	}

	if len(errs) > 0 {
		return zero, &domain.ErrorSet{Errors: errs, Conn: open}
	}
	return value, nil
}

// exec runs one write statement. Rows-affected is not inspected: updates and
// removes of absent primary keys are silent no-ops, matching the statement
// contract.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	_, err := run(s, func(db *sql.DB) (struct{}, error) {
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return struct{}{}, &domain.StatementError{Op: op, Err: err}
		}
		return struct{}{}, nil
	})
	return err
}

// AddJobType inserts one job type row.
func (s *Store) AddJobType(ctx context.Context, name string) error {
	return s.exec(ctx, "add job_type", `INSERT INTO job_type (job_type_name) VALUES (?)`, name)
}

// AddSection inserts one section row.
func (s *Store) AddSection(ctx context.Context, name string) error {
	return s.exec(ctx, "add section", `INSERT INTO section (section_name) VALUES (?)`, name)
}

// AddAdditiveSection records a supplemental association for the named
// section. The name is resolved to its id on the same connection.
func (s *Store) AddAdditiveSection(ctx context.Context, sectionName string) error {
	_, err := run(s, func(db *sql.DB) (struct{}, error) {
		var id uint64
		err := db.QueryRowContext(ctx, `SELECT id FROM section WHERE section_name = ?`, sectionName).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, domain.NotFoundError{Kind: domain.KindSection, Name: sectionName}
		}
		if err != nil {
			return struct{}{}, &domain.StatementError{Op: "lookup section", Err: err}
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO additive_section (section_id) VALUES (?)`, id); err != nil {
			return struct{}{}, &domain.StatementError{Op: "add additive_section", Err: err}
		}
		return struct{}{}, nil
	})
	return err
}

// AddSpecification inserts one specification row; a nil sectionID persists
// as NULL.
func (s *Store) AddSpecification(ctx context.Context, content string, sectionID *domain.SectionID) error {
	var section any
	if sectionID != nil {
		section = uint64(*sectionID)
	}
	return s.exec(ctx, "add specification",
		`INSERT INTO specification (specification_content, section_id) VALUES (?, ?)`, content, section)
}

// AddJobSpecification links one specification to one job type.
func (s *Store) AddJobSpecification(ctx context.Context, jobID domain.JobID, specificationID domain.QuestionID) error {
	return s.exec(ctx, "add job_specification",
		`INSERT INTO job_specification (job_type_id, specification_id) VALUES (?, ?)`,
		uint64(jobID), uint64(specificationID))
}

// UpdateJobType rewrites the name of the job type with the given id.
func (s *Store) UpdateJobType(ctx context.Context, id domain.JobID, name string) error {
	return s.exec(ctx, "update job_type",
		`UPDATE job_type SET job_type_name = ?2 WHERE id = ?1`, uint64(id), name)
}

// UpdateSection rewrites the name of the section with the given id.
func (s *Store) UpdateSection(ctx context.Context, id domain.SectionID, name string) error {
	return s.exec(ctx, "update section",
		`UPDATE section SET section_name = ?2 WHERE id = ?1`, uint64(id), name)
}

// UpdateSpecificationContent rewrites one specification's content.
func (s *Store) UpdateSpecificationContent(ctx context.Context, id domain.QuestionID, content string) error {
	return s.exec(ctx, "update specification content",
		`UPDATE specification SET specification_content = ?2 WHERE id = ?1`, uint64(id), content)
}

// UpdateSpecificationSection rewrites one specification's section link.
func (s *Store) UpdateSpecificationSection(ctx context.Context, id domain.QuestionID, sectionID domain.SectionID) error {
	return s.exec(ctx, "update specification section",
		`UPDATE specification SET section_id = ?2 WHERE id = ?1`, uint64(id), uint64(sectionID))
}

// RemoveJobType deletes one job type; its job_specification rows cascade.
func (s *Store) RemoveJobType(ctx context.Context, id domain.JobID) error {
	return s.exec(ctx, "remove job_type", `DELETE FROM job_type WHERE id = ?`, uint64(id))
}

// RemoveSection deletes one section. Dependent additive_section rows cascade
// and dependent specifications get a NULL section_id; both are schema-level
// guarantees the access layer relies on rather than re-implements.
func (s *Store) RemoveSection(ctx context.Context, id domain.SectionID) error {
	return s.exec(ctx, "remove section", `DELETE FROM section WHERE id = ?`, uint64(id))
}

// RemoveSpecification deletes one specification; its job_specification rows
// cascade.
func (s *Store) RemoveSpecification(ctx context.Context, id domain.QuestionID) error {
	return s.exec(ctx, "remove specification", `DELETE FROM specification WHERE id = ?`, uint64(id))
}

// RemoveJobSpecification unlinks one specification from one job type.
func (s *Store) RemoveJobSpecification(ctx context.Context, jobID domain.JobID, specificationID domain.QuestionID) error {
	return s.exec(ctx, "remove job_specification",
		`DELETE FROM job_specification WHERE job_type_id = ? AND specification_id = ?`,
		uint64(jobID), uint64(specificationID))
}

// GetJobType returns the job type row with the given id.
func (s *Store) GetJobType(ctx context.Context, id domain.JobID) (domain.JobTypeRecord, error) {
	return run(s, func(db *sql.DB) (domain.JobTypeRecord, error) {
		var rec domain.JobTypeRecord
		err := db.QueryRowContext(ctx,
			`SELECT id, job_type_name FROM job_type WHERE id = ?`, uint64(id)).
			Scan(&rec.ID, &rec.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return rec, domain.NotFoundError{Kind: domain.KindJobType, ID: uint64(id)}
		}
		if err != nil {
			return rec, &domain.StatementError{Op: "get job_type", Err: err}
		}
		return rec, nil
	})
}

// GetJobTypeID resolves a job type name to its id.
func (s *Store) GetJobTypeID(ctx context.Context, name string) (domain.JobID, error) {
	return run(s, func(db *sql.DB) (domain.JobID, error) {
		var id uint64
		err := db.QueryRowContext(ctx,
			`SELECT id FROM job_type WHERE job_type_name = ?`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NotFoundError{Kind: domain.KindJobType, Name: name}
		}
		if err != nil {
			return 0, &domain.StatementError{Op: "get job_type id", Err: err}
		}
		return domain.JobID(id), nil
	})
}

// GetSection returns the section row with the given id.
func (s *Store) GetSection(ctx context.Context, id domain.SectionID) (domain.SectionRecord, error) {
	return run(s, func(db *sql.DB) (domain.SectionRecord, error) {
		var rec domain.SectionRecord
		err := db.QueryRowContext(ctx,
			`SELECT id, section_name FROM section WHERE id = ?`, uint64(id)).
			Scan(&rec.ID, &rec.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return rec, domain.NotFoundError{Kind: domain.KindSection, ID: uint64(id)}
		}
		if err != nil {
			return rec, &domain.StatementError{Op: "get section", Err: err}
		}
		return rec, nil
	})
}

// GetSectionID resolves a section name to its id.
func (s *Store) GetSectionID(ctx context.Context, name string) (domain.SectionID, error) {
	return run(s, func(db *sql.DB) (domain.SectionID, error) {
		var id uint64
		err := db.QueryRowContext(ctx,
			`SELECT id FROM section WHERE section_name = ?`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NotFoundError{Kind: domain.KindSection, Name: name}
		}
		if err != nil {
			return 0, &domain.StatementError{Op: "get section id", Err: err}
		}
		return domain.SectionID(id), nil
	})
}

// GetSpecification returns one specification joined to its section; a NULL
// section_id maps to a nil Section, never to a partially populated one.
func (s *Store) GetSpecification(ctx context.Context, id domain.QuestionID) (domain.SpecificationRecord, error) {
	return run(s, func(db *sql.DB) (domain.SpecificationRecord, error) {
		var rec domain.SpecificationRecord
		var sectionID sql.NullInt64
		var sectionName sql.NullString
		err := db.QueryRowContext(ctx,
			`SELECT specification.id, specification_content, section_id, section_name
			 FROM specification LEFT JOIN section ON section.id = section_id
			 WHERE specification.id = ?`, uint64(id)).
			Scan(&rec.ID, &rec.Content, &sectionID, &sectionName)
		if errors.Is(err, sql.ErrNoRows) {
			return rec, domain.NotFoundError{Kind: domain.KindSpecification, ID: uint64(id)}
		}
		if err != nil {
			return rec, &domain.StatementError{Op: "get specification", Err: err}
		}
		rec.Section = sectionRef(sectionID, sectionName)
		return rec, nil
	})
}

// GetAllJobTypes lists every job type in store-native order.
func (s *Store) GetAllJobTypes(ctx context.Context) ([]domain.JobTypeRecord, error) {
	return run(s, func(db *sql.DB) ([]domain.JobTypeRecord, error) {
		rows, err := db.QueryContext(ctx, `SELECT id, job_type_name FROM job_type`)
		if err != nil {
			return nil, &domain.StatementError{Op: "list job_types", Err: err}
		}
		defer func() { _ = rows.Close() }()

		var out []domain.JobTypeRecord
		for rows.Next() {
			var rec domain.JobTypeRecord
			if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
				return nil, &domain.StatementError{Op: "scan job_type", Err: err}
			}
			out = append(out, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, &domain.StatementError{Op: "list job_types", Err: err}
		}
		return out, nil
	})
}

// GetAllSections lists every section in store-native order.
func (s *Store) GetAllSections(ctx context.Context) ([]domain.SectionRecord, error) {
	return run(s, func(db *sql.DB) ([]domain.SectionRecord, error) {
		rows, err := db.QueryContext(ctx, `SELECT id, section_name FROM section`)
		if err != nil {
			return nil, &domain.StatementError{Op: "list sections", Err: err}
		}
		defer func() { _ = rows.Close() }()

		var out []domain.SectionRecord
		for rows.Next() {
			var rec domain.SectionRecord
			if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
				return nil, &domain.StatementError{Op: "scan section", Err: err}
			}
			out = append(out, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, &domain.StatementError{Op: "list sections", Err: err}
		}
		return out, nil
	})
}

// GetAllSpecifications lists every specification joined to its section.
func (s *Store) GetAllSpecifications(ctx context.Context) ([]domain.SpecificationRecord, error) {
	return run(s, func(db *sql.DB) ([]domain.SpecificationRecord, error) {
		rows, err := db.QueryContext(ctx,
			`SELECT specification.id, specification_content, section_id, section_name
			 FROM specification LEFT JOIN section ON section.id = section_id`)
		if err != nil {
			return nil, &domain.StatementError{Op: "list specifications", Err: err}
		}
		defer func() { _ = rows.Close() }()

		var out []domain.SpecificationRecord
		for rows.Next() {
			var rec domain.SpecificationRecord
			var sectionID sql.NullInt64
			var sectionName sql.NullString
			if err := rows.Scan(&rec.ID, &rec.Content, &sectionID, &sectionName); err != nil {
				return nil, &domain.StatementError{Op: "scan specification", Err: err}
			}
			rec.Section = sectionRef(sectionID, sectionName)
			out = append(out, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, &domain.StatementError{Op: "list specifications", Err: err}
		}
		return out, nil
	})
}

// GetAllJobSpecifications returns the answer-set join for one job type, one
// row per answered item. Items without a section survive the join with a nil
// Section.
func (s *Store) GetAllJobSpecifications(ctx context.Context, jobID domain.JobID) ([]domain.JobSpecificationRecord, error) {
	return run(s, func(db *sql.DB) ([]domain.JobSpecificationRecord, error) {
		rows, err := db.QueryContext(ctx,
			`SELECT job_type_id, job_type_name, section_id, section_name, specification_id, specification_content
			 FROM job_specification
			 INNER JOIN specification ON specification_id = specification.id
			 INNER JOIN job_type ON job_type_id = job_type.id
			 LEFT JOIN section ON section_id = section.id
			 WHERE job_type_id = ?`, uint64(jobID))
		if err != nil {
			return nil, &domain.StatementError{Op: "list job_specifications", Err: err}
		}
		defer func() { _ = rows.Close() }()

		var out []domain.JobSpecificationRecord
		for rows.Next() {
			var rec domain.JobSpecificationRecord
			var sectionID sql.NullInt64
			var sectionName sql.NullString
			if err := rows.Scan(&rec.JobTypeID, &rec.JobName, &sectionID, &sectionName,
				&rec.SpecificationID, &rec.Content); err != nil {
				return nil, &domain.StatementError{Op: "scan job_specification", Err: err}
			}
			rec.Section = sectionRef(sectionID, sectionName)
			out = append(out, rec)
		}
		if err := rows.Err(); err != nil {
			return nil, &domain.StatementError{Op: "list job_specifications", Err: err}
		}
		return out, nil
	})
}

// JobExists reports whether a job type with the given name exists.
func (s *Store) JobExists(ctx context.Context, name string) (bool, error) {
	return run(s, func(db *sql.DB) (bool, error) {
		var one int
		err := db.QueryRowContext(ctx,
			`SELECT 1 FROM job_type WHERE job_type_name = ?`, name).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, &domain.StatementError{Op: "job exists", Err: err}
		}
		return true, nil
	})
}

// JobHasSpecification reports whether the job type is linked to the
// specification.
func (s *Store) JobHasSpecification(ctx context.Context, jobID domain.JobID, specificationID domain.QuestionID) (bool, error) {
	return run(s, func(db *sql.DB) (bool, error) {
		var one int
		err := db.QueryRowContext(ctx,
			`SELECT 1 FROM job_specification WHERE job_type_id = ? AND specification_id = ?`,
			uint64(jobID), uint64(specificationID)).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, &domain.StatementError{Op: "job has specification", Err: err}
		}
		return true, nil
	})
}

func sectionRef(id sql.NullInt64, name sql.NullString) *domain.SectionRecord {
	if !id.Valid || !name.Valid {
		return nil
	}
	return &domain.SectionRecord{ID: domain.SectionID(id.Int64), Name: name.String}
}
