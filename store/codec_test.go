package store

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensix/aff4/rdf"
)

// populate fills a store with a representative mix of value kinds,
// including characters the codecs must escape.
func populate(s DataStore) {
	image := rdf.URN("aff4://volume/image.dd")
	s.Set(image, AttrType, rdf.NewXSDString("test:alpha"))
	s.Set(image, AttrSize, rdf.NewXSDInteger(4096))
	s.Set(image, AttrStored, rdf.URN("aff4://volume").AsValue())
	s.Set(image, AttrCompression, rdf.NewXSDString("zlib"))

	vol := rdf.URN("aff4://volume")
	s.Set(vol, AttrType, rdf.NewXSDString("test:beta"))
	s.Set(vol, rdf.URN("http://example.com/ns#note"), rdf.NewXSDString("line one\nline \"two\"\ttabbed"))
	s.Set(vol, rdf.URN(rdf.NamespaceAFF4+"sealed"), rdf.NewXSDBoolean(true))
}

// assertSameTriples checks that every triple of want is observably
// identical in got.
func assertSameTriples(t *testing.T, want, got DataStore) {
	t.Helper()
	snap, err := want.Snapshot()
	require.NoError(t, err)
	for subject, attrs := range snap {
		for attribute, value := range attrs {
			loaded, err := got.Get(subject, attribute)
			require.NoError(t, err, "triple (%s, %s)", subject, attribute)
			assert.Equal(t, value.TypeName(), loaded.TypeName(), "triple (%s, %s)", subject, attribute)
			assert.Equal(t, value.SerializeToString(), loaded.SerializeToString(), "triple (%s, %s)", subject, attribute)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	s := NewMemoryDataStore(nil)
	populate(s)

	var buf bytes.Buffer
	require.NoError(t, s.DumpToYAML(&buf))

	loaded := NewMemoryDataStore(nil)
	require.NoError(t, loaded.LoadFromYAML(&buf))

	assertSameTriples(t, s, loaded)
}

func TestYAMLLoadIsAdditive(t *testing.T) {
	a := NewMemoryDataStore(nil)
	a.Set("aff4://one", AttrType, rdf.NewXSDString("test:alpha"))
	b := NewMemoryDataStore(nil)
	b.Set("aff4://two", AttrType, rdf.NewXSDString("test:beta"))

	var dumpA, dumpB bytes.Buffer
	require.NoError(t, a.DumpToYAML(&dumpA))
	require.NoError(t, b.DumpToYAML(&dumpB))

	// Loading two files accumulates into one store, the multi-volume
	// preloading pattern.
	merged := NewMemoryDataStore(nil)
	require.NoError(t, merged.LoadFromYAML(&dumpA))
	require.NoError(t, merged.LoadFromYAML(&dumpB))

	_, err := merged.Get("aff4://one", AttrType)
	assert.NoError(t, err)
	_, err = merged.Get("aff4://two", AttrType)
	assert.NoError(t, err)
}

func TestYAMLLoadEmptyInput(t *testing.T) {
	s := NewMemoryDataStore(nil)
	assert.NoError(t, s.LoadFromYAML(strings.NewReader("")))
}

func TestTurtleRoundTrip(t *testing.T) {
	s := NewMemoryDataStore(nil)
	populate(s)

	var buf bytes.Buffer
	require.NoError(t, s.DumpToTurtle(&buf))

	loaded := NewMemoryDataStore(nil)
	require.NoError(t, loaded.LoadFromTurtle(&buf))

	assertSameTriples(t, s, loaded)
}

func TestTurtleSuppressedTypesOmitted(t *testing.T) {
	s := NewMemoryDataStore(nil)
	populate(s)
	ephemeral := rdf.URN("aff4://scratch")
	s.Set(ephemeral, AttrType, rdf.NewXSDString("test:ephemeral"))
	s.Set(ephemeral, AttrSize, rdf.NewXSDInteger(12))
	s.SuppressType("test:ephemeral")

	var buf bytes.Buffer
	require.NoError(t, s.DumpToTurtle(&buf))
	assert.NotContains(t, buf.String(), "aff4://scratch")

	loaded := NewMemoryDataStore(nil)
	require.NoError(t, loaded.LoadFromTurtle(&buf))
	_, err := loaded.Get(ephemeral, AttrType)
	assert.Error(t, err, "suppressed subject must not survive the round trip")
	_, err = loaded.Get("aff4://volume/image.dd", AttrType)
	assert.NoError(t, err, "unsuppressed subjects must survive")
}

func TestTurtleSuppressedTypeStillLoads(t *testing.T) {
	// A store that suppresses a type on output still accepts it on input.
	input := `@prefix aff4: <http://aff4.org/Schema#> .
<aff4://scratch>
    aff4:type "test:ephemeral" .
`
	s := NewMemoryDataStore(nil)
	s.SuppressType("test:ephemeral")
	require.NoError(t, s.LoadFromTurtle(strings.NewReader(input)))

	v, err := s.Get("aff4://scratch", AttrType)
	require.NoError(t, err)
	assert.Equal(t, "test:ephemeral", v.SerializeToString())
}

func TestSuppressTypeDuringTurtleDump(t *testing.T) {
	// A config reload suppresses types from a watcher goroutine while
	// the owning flow dumps Turtle; run under -race.
	s := NewMemoryDataStore(nil)
	populate(s)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			s.SuppressType(fmt.Sprintf("test:reloaded-%d", i))
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, s.DumpToTurtle(io.Discard))
	}
	<-done

	// Everything suppressed mid-dump is in effect afterwards.
	s.Set("aff4://late", AttrType, rdf.NewXSDString("test:reloaded-499"))
	var buf bytes.Buffer
	require.NoError(t, s.DumpToTurtle(&buf))
	assert.NotContains(t, buf.String(), "aff4://late")
}

func TestTurtleParsesCommentsAndDatatypes(t *testing.T) {
	input := `# produced by another implementation
@prefix aff4: <http://aff4.org/Schema#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<aff4://image>
    aff4:size "1024"^^xsd:integer ;
    aff4:stored <aff4://volume> ;
    <http://example.com/ns#note> "plain" .
`
	s := NewMemoryDataStore(nil)
	require.NoError(t, s.LoadFromTurtle(strings.NewReader(input)))

	size, err := s.Get("aff4://image", AttrSize)
	require.NoError(t, err)
	assert.Equal(t, rdf.TypeXSDInteger, size.TypeName())
	assert.Equal(t, "1024", size.SerializeToString())

	stored, err := s.Get("aff4://image", AttrStored)
	require.NoError(t, err)
	assert.Equal(t, rdf.TypeURN, stored.TypeName())

	note, err := s.Get("aff4://image", "http://example.com/ns#note")
	require.NoError(t, err)
	assert.Equal(t, rdf.TypeXSDString, note.TypeName())
}

func TestTurtleRejectsUnknownPrefix(t *testing.T) {
	input := `<aff4://x> mystery:attr "v" .`
	s := NewMemoryDataStore(nil)
	err := s.LoadFromTurtle(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown prefix")
}

func TestTurtleRejectsUnterminatedStatement(t *testing.T) {
	input := `<aff4://x> <http://example.com/p> "v"`
	s := NewMemoryDataStore(nil)
	assert.Error(t, s.LoadFromTurtle(strings.NewReader(input)))
}
