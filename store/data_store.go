// Package store implements the AFF4 metadata resolver: a typed triple
// store keyed by URN, combined with an object cache and class factory
// that together own the lifetime of every container object.
//
// A resolver defines a transaction scope. Objects opened through
// FactoryOpen live in the resolver's cache until Close, which flushes
// them all, so a typical acquisition looks like:
//
//	resolver := store.NewMemoryDataStore(nil)
//	defer resolver.Close()
//
//	vol, err := volume.NewDirectoryVolume(resolver, "evidence.aff4")
//	img, err := volume.NewImageStream(resolver, vol.Get().URN().Append("disk.dd"),
//		vol.Get().URN(), 0, "zlib")
//	...
package store

import (
	"io"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// TripleSet is a point-in-time copy of a store's contents: subject to
// attribute to value. Values in a TripleSet are clones; mutating them
// does not affect the store.
type TripleSet map[rdf.URN]map[rdf.URN]rdf.Value

// DataStore is the resolver contract: the triple operations, the
// persistence codecs, and the flush boundary. The object cache and
// FactoryOpen are layered on top of it.
//
// Stores are single-threaded: no operation suspends and no internal
// locking is provided. Callers needing concurrency must serialize
// access externally, treating each FactoryOpen as one critical section.
// The sole exception is SuppressType, which may be called from another
// goroutine (a config reload) while the owning flow runs.
type DataStore interface {
	// Set records a value for (subject, attribute), replacing any prior
	// value. The store takes ownership of value; callers must not reuse
	// it. Set always succeeds for a well-formed store; backend write
	// failures are logged and surface at Flush.
	Set(subject, attribute rdf.URN, value rdf.Value)

	// Get returns the current value for (subject, attribute), or
	// ErrNotFound. The returned value remains store-owned; Clone it to
	// retain it past the next Set.
	Get(subject, attribute rdf.URN) (rdf.Value, error)

	// DeleteSubject removes every triple with the given subject. A
	// subject with no triples is a no-op, not an error. The object
	// cache is unaffected.
	DeleteSubject(subject rdf.URN) error

	// Clear removes all triples and evicts every cached object after
	// flushing it, resetting the store for reuse.
	Clear() error

	// Flush invokes every cached object's flush hook and returns the
	// combined result. Idempotent: flushing twice without intervening
	// mutation is harmless.
	Flush() error

	// Close flushes, releases every cached object's external resources,
	// and ends the resolver's transaction scope.
	Close() error

	// Snapshot copies the full triple set out of the store.
	Snapshot() (TripleSet, error)

	// SuppressType excludes subjects of the named type from Turtle
	// output. Suppressed subjects are still loaded back if present on
	// input.
	SuppressType(name string)

	DumpToYAML(w io.Writer) error
	LoadFromYAML(r io.Reader) error
	DumpToTurtle(w io.Writer) error
	LoadFromTurtle(r io.Reader) error

	// cache exposes the object cache to FactoryOpen.
	cache() *resolverCore
}

// resolverCore is the state shared by every DataStore realization: the
// object cache this resolver exclusively owns, the suppressed-type set,
// and the logger.
//
// The suppressed set carries its own lock: a config reload may call
// SuppressType from a watcher goroutine while the owning flow is
// dumping Turtle.
type resolverCore struct {
	objects map[rdf.URN]Object
	log     *zap.SugaredLogger

	suppressedMu sync.RWMutex
	suppressed   map[string]struct{}
}

func newResolverCore(log *zap.SugaredLogger) resolverCore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return resolverCore{
		objects:    make(map[rdf.URN]Object),
		suppressed: make(map[string]struct{}),
		log:        log,
	}
}

func (c *resolverCore) cache() *resolverCore { return c }

// SuppressType excludes subjects of the named type from Turtle output.
// Unlike the rest of the store, SuppressType is safe to call
// concurrently with reads.
func (c *resolverCore) SuppressType(name string) {
	c.suppressedMu.Lock()
	defer c.suppressedMu.Unlock()
	c.suppressed[name] = struct{}{}
}

func (c *resolverCore) isSuppressed(name string) bool {
	c.suppressedMu.RLock()
	defer c.suppressedMu.RUnlock()
	_, ok := c.suppressed[name]
	return ok
}

// flushObjects runs every cached object's flush hook, combining
// failures so one broken object does not mask the rest.
func (c *resolverCore) flushObjects() error {
	var err error
	for _, urn := range sortedURNs(c.objects) {
		if ferr := c.objects[urn].Flush(); ferr != nil {
			c.log.Warnw("flush failed", "urn", urn, "error", ferr)
			err = errors.CombineErrors(err, errors.Wrapf(ferr, "flush %s", urn))
		}
	}
	return err
}

// closeObjects flushes and then releases external resources for every
// cached object, emptying the cache.
func (c *resolverCore) closeObjects() error {
	err := c.flushObjects()
	for _, urn := range sortedURNs(c.objects) {
		if closer, ok := c.objects[urn].(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				err = errors.CombineErrors(err, errors.Wrapf(cerr, "close %s", urn))
			}
		}
	}
	c.objects = make(map[rdf.URN]Object)
	return err
}

func sortedURNs[V any](m map[rdf.URN]V) []rdf.URN {
	urns := make([]rdf.URN, 0, len(m))
	for urn := range m {
		urns = append(urns, urn)
	}
	sort.Slice(urns, func(i, j int) bool { return urns[i] < urns[j] })
	return urns
}
