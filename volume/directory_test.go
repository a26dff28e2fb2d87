package volume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
)

func newTestVolume(t *testing.T, r store.DataStore, root string) *DirectoryVolume {
	t.Helper()
	h, err := NewDirectoryVolume(r, root)
	require.NoError(t, err)
	return h.Get()
}

func TestVolumeCreatesRoot(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	root := filepath.Join(t.TempDir(), "evidence")
	v := newTestVolume(t, r, root)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, root, v.Root())

	typ, err := r.Get(v.URN(), store.AttrType)
	require.NoError(t, err)
	assert.Equal(t, TypeDirectory, typ.SerializeToString())
}

func TestVolumeIsCachedPerRoot(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	root := t.TempDir()
	v1 := newTestVolume(t, r, root)
	v2 := newTestVolume(t, r, root)
	assert.Same(t, v1, v2)
}

func TestCreateMemberRecordsContainment(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	v := newTestVolume(t, r, t.TempDir())
	h, err := v.CreateMember("logs/syslog")
	require.NoError(t, err)
	member := h.Get()

	_, err = member.Write([]byte("boot"))
	require.NoError(t, err)

	stored, err := r.Get(member.URN(), store.AttrStored)
	require.NoError(t, err)
	assert.Equal(t, v.URN().String(), stored.SerializeToString())

	contains, err := r.Get(v.URN(), store.AttrContains)
	require.NoError(t, err)
	assert.Equal(t, member.URN().String(), contains.SerializeToString())

	_, err = os.Stat(filepath.Join(v.Root(), "logs", "syslog"))
	assert.NoError(t, err)
}

func TestMemberNameValidation(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	v := newTestVolume(t, r, t.TempDir())
	for _, name := range []string{"../escape", "/etc/passwd", "information.turtle", "a/../../b"} {
		_, err := v.CreateMember(name)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput), "name %q", name)
	}
}

func TestSegmentRoundTrip(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	v := newTestVolume(t, r, t.TempDir())
	require.NoError(t, v.WriteSegment("img/00000000", []byte{0xde, 0xad}))

	data, err := v.ReadSegment("img/00000000")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, data)

	_, err = v.ReadSegment("img/00000001")
	assert.True(t, errors.IsNotFound(err))
}

func TestVolumeTruncateMode(t *testing.T) {
	r := store.NewMemoryDataStore(nil)
	defer r.Close()

	root := filepath.Join(t.TempDir(), "vol")
	require.NoError(t, os.MkdirAll(root, 0755))
	stale := filepath.Join(root, "stale.bin")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	r.Set(rdf.URN("dir://"+root), store.AttrStreamWriteMode, rdf.NewXSDString(store.WriteModeTruncate))
	newTestVolume(t, r, root)

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "truncate mode discards existing content")
}

func TestVolumeMetadataSurvivesReopen(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vol")
	subject := rdf.NewURN()

	r1 := store.NewMemoryDataStore(nil)
	newTestVolume(t, r1, root)
	r1.Set(subject, "http://aff4.org/Schema#note", rdf.NewXSDString("session one"))
	require.NoError(t, r1.Close())

	_, err := os.Stat(filepath.Join(root, "information.turtle"))
	require.NoError(t, err)

	// A fresh resolver accumulates the persisted triples on reopen.
	r2 := store.NewMemoryDataStore(nil)
	defer r2.Close()
	newTestVolume(t, r2, root)

	v, err := r2.Get(subject, "http://aff4.org/Schema#note")
	require.NoError(t, err)
	assert.Equal(t, "session one", v.SerializeToString())
}
