package store

import "github.com/forensix/aff4/rdf"

// Object is the contract every concrete container type (stream, volume,
// image) implements so the resolver can own and coordinate it.
//
// Objects are created exclusively by FactoryOpen and owned by the
// resolver's object cache for the resolver's whole lifetime. Objects
// reference each other by URN, never by pointer; a member finds its
// volume by resolving the aff4:stored attribute through the resolver.
type Object interface {
	// URN returns the identifier this object was opened with.
	URN() rdf.URN

	// SetURN assigns the identifier. Called once by FactoryOpen before
	// LoadFromURN.
	SetURN(urn rdf.URN)

	// LoadFromURN initializes the object from the attributes stored
	// against its URN. A failure here keeps the object out of the cache.
	LoadFromURN() error

	// Prepare resets transient state (e.g. read position) before a
	// cached object is handed out again.
	Prepare()

	// Flush persists the object's state back into the data store and
	// finalizes any pending writes. Invoked by the resolver's Flush and
	// at teardown; must be safe to call repeatedly.
	Flush() error
}

// BaseObject carries the state common to all concrete object types.
// Concrete types embed it and supply their own LoadFromURN.
type BaseObject struct {
	Resolver DataStore

	urn rdf.URN
}

func (o *BaseObject) URN() rdf.URN     { return o.urn }
func (o *BaseObject) SetURN(u rdf.URN) { o.urn = u }

// Prepare is a no-op by default.
func (o *BaseObject) Prepare() {}

// Flush is a no-op by default.
func (o *BaseObject) Flush() error { return nil }
