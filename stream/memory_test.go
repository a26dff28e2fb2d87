package stream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
)

func openMemoryStream(t *testing.T, r store.DataStore, urn rdf.URN) *MemoryStream {
	t.Helper()
	r.Set(urn, store.AttrType, rdf.NewXSDString(TypeMemory))
	h := store.FactoryOpen[*MemoryStream](r, urn)
	require.False(t, h.IsEmpty(), "open %s", urn)
	return h.Get()
}

func TestMemoryStreamReadWriteSeek(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	m := openMemoryStream(t, r, rdf.NewURN())

	n, err := m.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, int64(11), m.Size())

	_, err = m.Seek(6, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(m)
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	// Overwrite in the middle, then read back the whole stream.
	_, err = m.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	_, err = m.Write([]byte("earth"))
	require.NoError(t, err)

	_, err = m.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err = io.ReadAll(m)
	require.NoError(t, err)
	assert.Equal(t, "hello earth", string(data))
}

func TestMemoryStreamReuseRewinds(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	urn := rdf.NewURN()
	m := openMemoryStream(t, r, urn)
	_, err := m.Write([]byte("payload"))
	require.NoError(t, err)

	again := openMemoryStream(t, r, urn)
	assert.Same(t, m, again)

	data, err := io.ReadAll(again)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestMemoryStreamFlushRecordsSize(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	urn := rdf.NewURN()
	m := openMemoryStream(t, r, urn)
	_, err := m.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, m.Flush())

	v, err := r.Get(urn, store.AttrSize)
	require.NoError(t, err)
	assert.Equal(t, "3", v.SerializeToString())
}

func TestMemoryStreamEmptyRead(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	m := openMemoryStream(t, r, rdf.NewURN())
	_, err := m.Read(make([]byte, 4))
	assert.Equal(t, io.EOF, err)
}
