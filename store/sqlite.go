package store

import (
	"database/sql"
	"io"

	"go.uber.org/zap"

	"github.com/forensix/aff4/db"
	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// Query constants
const (
	tripleUpsertQuery = `
		INSERT INTO triples (subject, attribute, value_type, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(subject, attribute) DO UPDATE SET
			value_type = excluded.value_type,
			value = excluded.value`

	tripleGetQuery = `
		SELECT value_type, value FROM triples
		WHERE subject = ? AND attribute = ?`

	tripleDeleteSubjectQuery = `
		DELETE FROM triples WHERE subject = ?`

	tripleSnapshotQuery = `
		SELECT subject, attribute, value_type, value FROM triples`
)

// SQLiteDataStore realizes the DataStore contract on a SQLite triple
// table, persisting metadata across process lifetimes. The object cache
// still lives in process memory; only the triples hit the database.
//
// The *sql.DB is caller-owned: open it with db.Open, migrate it with
// db.Migrate, and close it after the store's Close.
type SQLiteDataStore struct {
	resolverCore

	db *sql.DB
}

// NewSQLiteDataStore creates a resolver over a migrated SQLite handle.
// A nil logger silences diagnostics.
func NewSQLiteDataStore(database *sql.DB, log *zap.SugaredLogger) *SQLiteDataStore {
	return &SQLiteDataStore{
		resolverCore: newResolverCore(log),
		db:           database,
	}
}

// Set records value for (subject, attribute), replacing any prior
// value. Set carries no failure signal; a backend write error is logged
// and the triple is simply absent afterwards.
func (s *SQLiteDataStore) Set(subject, attribute rdf.URN, value rdf.Value) {
	_, err := s.db.Exec(tripleUpsertQuery,
		subject.String(), attribute.String(), value.TypeName(), value.SerializeToString())
	if db.IsDatabaseClosed(err) {
		// Shutdown race: the connection went away before a final Set.
		s.log.Warnw("triple dropped, database already closed",
			"subject", subject, "attribute", attribute)
		return
	}
	if err != nil {
		s.log.Errorw("failed to persist triple",
			"subject", subject, "attribute", attribute, "error", err)
	}
}

// Get returns the value for (subject, attribute), or ErrNotFound.
func (s *SQLiteDataStore) Get(subject, attribute rdf.URN) (rdf.Value, error) {
	var typeName, serialized string
	err := s.db.QueryRow(tripleGetQuery, subject.String(), attribute.String()).
		Scan(&typeName, &serialized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "subject %s has no attribute %s", subject, attribute)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "query triple"), errors.ErrIO)
	}
	return rdf.ParseValue(typeName, serialized)
}

// DeleteSubject removes every triple with the given subject. Unknown
// subjects are a no-op.
func (s *SQLiteDataStore) DeleteSubject(subject rdf.URN) error {
	if _, err := s.db.Exec(tripleDeleteSubjectQuery, subject.String()); err != nil {
		return errors.Mark(errors.Wrapf(err, "delete subject %s", subject), errors.ErrIO)
	}
	return nil
}

// Clear removes all triples and evicts every cached object after
// flushing it.
func (s *SQLiteDataStore) Clear() error {
	err := s.closeObjects()
	if _, derr := s.db.Exec("DELETE FROM triples"); derr != nil {
		err = errors.CombineErrors(err, errors.Mark(errors.Wrap(derr, "clear triples"), errors.ErrIO))
	}
	return err
}

// Flush finalizes every cached object.
func (s *SQLiteDataStore) Flush() error {
	return s.flushObjects()
}

// Close flushes and releases every cached object. The database handle
// remains open for the caller to close.
func (s *SQLiteDataStore) Close() error {
	return s.closeObjects()
}

// Snapshot reads the full triple set out of the database.
func (s *SQLiteDataStore) Snapshot() (TripleSet, error) {
	rows, err := s.db.Query(tripleSnapshotQuery)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "query triples"), errors.ErrIO)
	}
	defer rows.Close()

	out := make(TripleSet)
	for rows.Next() {
		var subject, attribute, typeName, serialized string
		if err := rows.Scan(&subject, &attribute, &typeName, &serialized); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "scan triple"), errors.ErrIO)
		}
		value, err := rdf.ParseValue(typeName, serialized)
		if err != nil {
			return nil, errors.Wrapf(err, "subject %s attribute %s", subject, attribute)
		}
		attrs, ok := out[rdf.URN(subject)]
		if !ok {
			attrs = make(map[rdf.URN]rdf.Value)
			out[rdf.URN(subject)] = attrs
		}
		attrs[rdf.URN(attribute)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "iterate triples"), errors.ErrIO)
	}
	return out, nil
}

func (s *SQLiteDataStore) DumpToYAML(w io.Writer) error     { return dumpToYAML(s, w) }
func (s *SQLiteDataStore) LoadFromYAML(r io.Reader) error   { return loadFromYAML(s, r) }
func (s *SQLiteDataStore) DumpToTurtle(w io.Writer) error   { return dumpToTurtle(s, w) }
func (s *SQLiteDataStore) LoadFromTurtle(r io.Reader) error { return loadFromTurtle(s, r) }

var _ DataStore = (*SQLiteDataStore)(nil)
