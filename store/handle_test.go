package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// Test object types registered with the class factory. alpha and beta
// share no capability beyond Object, which is what the type-mismatch
// tests rely on.

type alphaObject struct {
	BaseObject
	prepared int
	flushed  int
}

func (a *alphaObject) LoadFromURN() error { return nil }
func (a *alphaObject) Prepare()           { a.prepared++ }

func (a *alphaObject) Flush() error {
	a.flushed++
	a.Resolver.Set(a.URN(), AttrSize, rdf.NewXSDInteger(int64(len(a.URN()))))
	return nil
}

type betaObject struct {
	BaseObject
}

func (b *betaObject) LoadFromURN() error { return nil }

type brokenObject struct {
	BaseObject
}

func (b *brokenObject) LoadFromURN() error {
	return errors.Wrapf(errors.ErrInitFailed, "backing data for %s is malformed", b.URN())
}

var alphaConstructed int

func init() {
	RegisterType("test:alpha", func(r DataStore) Object {
		alphaConstructed++
		return &alphaObject{BaseObject: BaseObject{Resolver: r}}
	})
	RegisterType("test:beta", func(r DataStore) Object {
		return &betaObject{BaseObject: BaseObject{Resolver: r}}
	})
	RegisterType("test:broken", func(r DataStore) Object {
		return &brokenObject{BaseObject: BaseObject{Resolver: r}}
	})
	// Scheme fallback handler, as a file stream would register "file".
	RegisterScheme("alphafs", func(r DataStore) Object {
		alphaConstructed++
		return &alphaObject{BaseObject: BaseObject{Resolver: r}}
	})
}

func openAlpha(t *testing.T, r DataStore, urn rdf.URN) *alphaObject {
	t.Helper()
	h := FactoryOpen[*alphaObject](r, urn)
	require.False(t, h.IsEmpty(), "open %s", urn)
	return h.Get()
}

func TestFactoryOpenCacheUniqueness(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-1")
	r.Set(urn, AttrType, rdf.NewXSDString("test:alpha"))

	first := openAlpha(t, r, urn)
	second := openAlpha(t, r, urn)

	assert.Same(t, first, second, "two opens must borrow the same instance")
	assert.Equal(t, 1, second.prepared, "cache hit must invoke the reuse hook")
}

func TestFactoryOpenTypeMismatchKeepsCachedObject(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-2")
	r.Set(urn, AttrType, rdf.NewXSDString("test:alpha"))

	first := openAlpha(t, r, urn)

	wrong := FactoryOpen[*betaObject](r, urn)
	assert.True(t, wrong.IsEmpty(), "wrong capability must yield an empty handle")

	again := openAlpha(t, r, urn)
	assert.Same(t, first, again, "mismatch must not evict the cached instance")
}

func TestFactoryOpenSchemeFallback(t *testing.T) {
	r := NewMemoryDataStore(nil)

	// No type triple stored; the scheme alone resolves the handler.
	h := FactoryOpen[*alphaObject](r, "alphafs://dev/sda")
	require.False(t, h.IsEmpty())
	assert.Equal(t, rdf.URN("alphafs://dev/sda"), h.Get().URN())
}

func TestFactoryOpenUnregisteredType(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-3")
	r.Set(urn, AttrType, rdf.NewXSDString("test:unknown"))

	h := FactoryOpen[*alphaObject](r, urn)
	assert.True(t, h.IsEmpty())
}

func TestFactoryOpenLoadFailureNotCached(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-4")
	r.Set(urn, AttrType, rdf.NewXSDString("test:broken"))

	h := FactoryOpen[*brokenObject](r, urn)
	assert.True(t, h.IsEmpty())
	_, cached := r.cache().objects[urn]
	assert.False(t, cached, "half-constructed object must not enter the cache")
}

func TestFactoryOpenFreshNarrowFailureStillCaches(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-5")
	r.Set(urn, AttrType, rdf.NewXSDString("test:alpha"))

	before := alphaConstructed
	wrong := FactoryOpen[*betaObject](r, urn)
	assert.True(t, wrong.IsEmpty())

	openAlpha(t, r, urn)
	assert.Equal(t, before+1, alphaConstructed,
		"the instance built during the mismatched open must be reused")
}

func TestEmptyHandleAccessPanics(t *testing.T) {
	var h Handle[*alphaObject]

	assert.True(t, h.IsEmpty())
	assert.Panics(t, func() { h.Get() })
	assert.Panics(t, func() { h.Release() })
	assert.Panics(t, func() { h.Resolver() })
	assert.Panics(t, func() { Cast[Object](&h) })
}

func TestHandleBindingContract(t *testing.T) {
	r := NewMemoryDataStore(nil)

	assert.Panics(t, func() { NewHandle[*alphaObject](&alphaObject{}, nil) })
	assert.Panics(t, func() { NewHandle[*alphaObject](nil, r) })
}

func TestHandleReleaseInvalidates(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-6")
	r.Set(urn, AttrType, rdf.NewXSDString("test:alpha"))

	h := FactoryOpen[*alphaObject](r, urn)
	obj := h.Release()
	require.NotNil(t, obj)

	assert.True(t, h.IsEmpty())
	assert.Panics(t, func() { h.Get() }, "a released handle must fail loudly")
}

func TestHandleCastRebinds(t *testing.T) {
	r := NewMemoryDataStore(nil)
	urn := rdf.URN("aff4://subject-7")
	r.Set(urn, AttrType, rdf.NewXSDString("test:alpha"))

	h := FactoryOpen[*alphaObject](r, urn)
	generic := Cast[Object](&h)

	assert.True(t, h.IsEmpty(), "cast must release the source handle")
	assert.Equal(t, urn, generic.Get().URN())

	// Narrowing back down to the concrete type works too.
	concrete := Cast[*alphaObject](&generic)
	assert.False(t, concrete.IsEmpty())

	// An incompatible narrowing is a contract violation.
	h2 := FactoryOpen[*alphaObject](r, urn)
	assert.Panics(t, func() { Cast[*betaObject](&h2) })
}

func TestFactoryOpenNilResolverPanics(t *testing.T) {
	assert.Panics(t, func() { FactoryOpen[*alphaObject](nil, "aff4://x") })
}
