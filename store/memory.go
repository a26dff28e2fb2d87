package store

import (
	"io"

	"go.uber.org/zap"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// MemoryDataStore is the in-memory realization of the DataStore
// contract: the full triple set lives in process memory and is
// persisted only through the Dump/Load codecs.
//
// Storage is single-valued per (subject, attribute): a repeated Set
// overwrites, last write wins. Loads are additive onto the current
// contents, which is how multi-volume metadata preloading accumulates
// into one store; call Clear first for a fresh load.
type MemoryDataStore struct {
	resolverCore

	triples map[rdf.URN]map[rdf.URN]rdf.Value
}

// NewMemoryDataStore creates an empty in-memory resolver. A nil logger
// silences diagnostics.
func NewMemoryDataStore(log *zap.SugaredLogger) *MemoryDataStore {
	return &MemoryDataStore{
		resolverCore: newResolverCore(log),
		triples:      make(map[rdf.URN]map[rdf.URN]rdf.Value),
	}
}

// Set records value for (subject, attribute), replacing any prior
// value. The store takes ownership of value.
func (s *MemoryDataStore) Set(subject, attribute rdf.URN, value rdf.Value) {
	attrs, ok := s.triples[subject]
	if !ok {
		attrs = make(map[rdf.URN]rdf.Value)
		s.triples[subject] = attrs
	}
	attrs[attribute] = value
}

// Get returns the store-owned value for (subject, attribute), or
// ErrNotFound.
func (s *MemoryDataStore) Get(subject, attribute rdf.URN) (rdf.Value, error) {
	attrs, ok := s.triples[subject]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no triples for subject %s", subject)
	}
	value, ok := attrs[attribute]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "subject %s has no attribute %s", subject, attribute)
	}
	return value, nil
}

// DeleteSubject removes every triple with the given subject. Unknown
// subjects are a no-op.
func (s *MemoryDataStore) DeleteSubject(subject rdf.URN) error {
	delete(s.triples, subject)
	return nil
}

// Clear removes all triples and evicts every cached object after
// flushing it.
func (s *MemoryDataStore) Clear() error {
	err := s.closeObjects()
	s.triples = make(map[rdf.URN]map[rdf.URN]rdf.Value)
	return err
}

// Flush finalizes every cached object.
func (s *MemoryDataStore) Flush() error {
	return s.flushObjects()
}

// Close flushes and releases every cached object, ending the
// resolver's transaction scope.
func (s *MemoryDataStore) Close() error {
	return s.closeObjects()
}

// Snapshot deep-copies the triple set.
func (s *MemoryDataStore) Snapshot() (TripleSet, error) {
	out := make(TripleSet, len(s.triples))
	for subject, attrs := range s.triples {
		copied := make(map[rdf.URN]rdf.Value, len(attrs))
		for attribute, value := range attrs {
			copied[attribute] = value.Clone()
		}
		out[subject] = copied
	}
	return out, nil
}

func (s *MemoryDataStore) DumpToYAML(w io.Writer) error    { return dumpToYAML(s, w) }
func (s *MemoryDataStore) LoadFromYAML(r io.Reader) error  { return loadFromYAML(s, r) }
func (s *MemoryDataStore) DumpToTurtle(w io.Writer) error  { return dumpToTurtle(s, w) }
func (s *MemoryDataStore) LoadFromTurtle(r io.Reader) error { return loadFromTurtle(s, r) }

var _ DataStore = (*MemoryDataStore)(nil)
