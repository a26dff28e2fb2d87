package store

import (
	"reflect"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// Handle is a scoped borrow of a cache-owned object.
//
// The resolver's object cache remains the owner at all times; a handle
// only marks an active borrow. The zero value is the empty handle,
// meaning "not found" or "wrong type"; every accessor on an empty
// handle panics, because dereferencing a failed open is a programming
// error the caller should have checked for.
//
// Go cannot enforce move-only semantics at compile time, so the borrow
// token is invalidated at runtime instead: Release clears the handle,
// and any later access through it panics. Handles are used by pointer
// and must not be copied after Release.
type Handle[T Object] struct {
	obj      T
	resolver DataStore
	valid    bool
}

// NewHandle binds a borrowed object to the resolver that owns it.
// Binding a nil object or nil resolver is a contract violation;
// emptiness must use the zero value.
func NewHandle[T Object](obj T, resolver DataStore) Handle[T] {
	if resolver == nil {
		panic(errors.AssertionFailedf("handle bound to nil resolver"))
	}
	if isNilObject(obj) {
		panic(errors.AssertionFailedf("handle bound to nil object; use the zero Handle for emptiness"))
	}
	return Handle[T]{obj: obj, resolver: resolver, valid: true}
}

// IsEmpty reports whether the handle holds no borrow. Empty handles
// signal "not found" or "wrong type" from FactoryOpen.
func (h *Handle[T]) IsEmpty() bool {
	return !h.valid
}

// Get returns the borrowed object. Panics on an empty handle.
func (h *Handle[T]) Get() T {
	if !h.valid {
		panic(errors.AssertionFailedf("access through empty handle"))
	}
	return h.obj
}

// Resolver returns the data store that owns the borrowed object.
// Panics on an empty handle.
func (h *Handle[T]) Resolver() DataStore {
	if !h.valid {
		panic(errors.AssertionFailedf("access through empty handle"))
	}
	return h.resolver
}

// Release hands back the borrowed object and invalidates the handle.
// The cache still owns the object; the caller gains no ownership, only
// the right to re-wrap it, e.g. via Cast.
func (h *Handle[T]) Release() T {
	obj := h.Get()
	var zero T
	h.obj = zero
	h.resolver = nil
	h.valid = false
	return obj
}

// Cast releases the borrow from h and rebinds it under a different
// target type. The object was already validated when h was produced,
// so an incompatible target is a contract violation, not a recoverable
// failure.
func Cast[U Object, T Object](h *Handle[T]) Handle[U] {
	resolver := h.Resolver()
	obj := h.Release()
	u, ok := any(obj).(U)
	if !ok {
		panic(errors.AssertionFailedf("cast of %s to incompatible type", obj.URN()))
	}
	return NewHandle(u, resolver)
}

// isNilObject reports whether an interface-typed object holds nil.
func isNilObject(obj any) bool {
	if obj == nil {
		return true
	}
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// FactoryOpen resolves a URN to a live object of type T, creating it on
// first use. This is the resolver's primary entry point.
//
// The sequence: a cache hit is Prepared and narrowed to T (an empty
// handle on narrowing failure means "wrong type", the cached object is
// untouched). On a miss the type is resolved from the aff4:type triple,
// falling back to the URN scheme, and the class factory constructs the
// object, which loads itself via LoadFromURN before entering the cache.
// A load failure keeps the half-constructed object out of the cache and
// returns an empty handle with a diagnostic.
func FactoryOpen[T Object](r DataStore, urn rdf.URN) Handle[T] {
	if r == nil {
		panic(errors.AssertionFailedf("FactoryOpen on nil resolver"))
	}
	core := r.cache()

	if cached, ok := core.objects[urn]; ok {
		cached.Prepare()
		t, ok := cached.(T)
		if !ok {
			core.log.Debugw("cached object has wrong type",
				"urn", urn, "have", reflect.TypeOf(cached).String())
			return Handle[T]{}
		}
		return NewHandle(t, r)
	}

	var typeName string
	if v, err := r.Get(urn, AttrType); err == nil {
		typeName = v.SerializeToString()
	} else {
		typeName = urn.Parse().Scheme
	}

	obj, err := CreateInstance(typeName, r)
	if err != nil {
		core.log.Debugw("no registered handler", "urn", urn, "type", typeName)
		return Handle[T]{}
	}

	obj.SetURN(urn)
	if err := obj.LoadFromURN(); err != nil {
		core.log.Warnw("failed to load object",
			"urn", urn, "type", typeName, "error", err)
		return Handle[T]{}
	}

	// Cache the object even if it does not satisfy T: the instance is
	// valid for its own type and must stay unique per URN.
	core.objects[urn] = obj

	t, ok := obj.(T)
	if !ok {
		return Handle[T]{}
	}
	return NewHandle(t, r)
}
