// Package volume provides the container object types of the AFF4
// universe: the directory-backed volume and the chunked image stream
// stored inside one. Importing the package registers the types with the
// class factory.
package volume

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
	"github.com/forensix/aff4/stream"
)

// Canonical type names under which the volume objects register.
const (
	// TypeDirectory is the canonical type of a directory volume. It
	// also handles the "dir" URN scheme.
	TypeDirectory = "aff4:directory-volume"

	// TypeImage is the canonical type of a chunked image stream.
	TypeImage = "aff4:image-stream"
)

// metadataName is the volume's persisted metadata segment. It is
// written directly, never listed as a member.
const metadataName = "information.turtle"

func init() {
	ctor := func(r store.DataStore) store.Object {
		return &DirectoryVolume{BaseObject: store.BaseObject{Resolver: r}}
	}
	store.RegisterType(TypeDirectory, ctor)
	store.RegisterScheme("dir", ctor)
}

// DirectoryVolume is a container whose members are plain files under a
// root directory, identified by a URN of the form dir:///path/to/root.
//
// The volume persists the resolver's metadata into an
// information.turtle segment at teardown and loads it back additively
// when reopened, which is how multi-volume preloading accumulates
// metadata into one resolver.
type DirectoryVolume struct {
	store.BaseObject

	root string
}

// NewDirectoryVolume opens (or creates) the volume rooted at the given
// directory path, routing through the resolver so the instance is
// cached and unique.
func NewDirectoryVolume(r store.DataStore, rootPath string) (store.Handle[*DirectoryVolume], error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return store.Handle[*DirectoryVolume]{}, errors.Wrapf(err, "resolve volume path %s", rootPath)
	}
	urn := rdf.URN("dir://" + abs)
	h := store.FactoryOpen[*DirectoryVolume](r, urn)
	if h.IsEmpty() {
		return h, errors.Wrapf(errors.ErrInitFailed, "open volume %s", urn)
	}
	return h, nil
}

// LoadFromURN creates the root directory if needed, honoring the
// truncate write mode by discarding any existing content first, and
// loads persisted metadata back into the resolver.
func (v *DirectoryVolume) LoadFromURN() error {
	v.root = v.URN().Parse().Path
	if v.root == "" {
		return errors.Wrapf(errors.ErrInitFailed, "URN %s has no directory path", v.URN())
	}

	if v.writeMode() == store.WriteModeTruncate {
		if err := os.RemoveAll(v.root); err != nil {
			return errors.Mark(errors.Wrapf(err, "truncate volume %s", v.root), errors.ErrInitFailed)
		}
	}

	if err := os.MkdirAll(v.root, 0755); err != nil {
		return errors.Mark(errors.Wrapf(err, "create volume root %s", v.root), errors.ErrInitFailed)
	}

	v.Resolver.Set(v.URN(), store.AttrType, rdf.NewXSDString(TypeDirectory))

	// Reopening an existing volume: accumulate its persisted metadata.
	meta, err := os.Open(filepath.Join(v.root, metadataName))
	if err == nil {
		defer meta.Close()
		if err := v.Resolver.LoadFromTurtle(meta); err != nil {
			return errors.Wrapf(err, "load metadata of %s", v.URN())
		}
	}
	return nil
}

func (v *DirectoryVolume) writeMode() string {
	val, err := v.Resolver.Get(v.URN(), store.AttrStreamWriteMode)
	if err != nil {
		return store.WriteModeAppend
	}
	return val.SerializeToString()
}

// Root returns the volume's backing directory.
func (v *DirectoryVolume) Root() string {
	return v.root
}

// CreateMember opens a named member stream inside the volume through
// the resolver. The member is a file-backed stream whose URN records
// the containment relation; the volume never holds a pointer to it.
func (v *DirectoryVolume) CreateMember(name string) (store.Handle[stream.Stream], error) {
	memberPath, err := v.memberPath(name)
	if err != nil {
		return store.Handle[stream.Stream]{}, err
	}
	if err := os.MkdirAll(filepath.Dir(memberPath), 0755); err != nil {
		return store.Handle[stream.Stream]{}, errors.Mark(errors.Wrap(err, "create member directory"), errors.ErrIO)
	}

	memberURN := rdf.URN("file://" + memberPath)
	v.Resolver.Set(memberURN, store.AttrStored, v.URN().AsValue())
	v.Resolver.Set(v.URN(), store.AttrContains, memberURN.AsValue())

	h := store.FactoryOpen[stream.Stream](v.Resolver, memberURN)
	if h.IsEmpty() {
		return h, errors.Wrapf(errors.ErrInitFailed, "create member %s", memberURN)
	}
	return h, nil
}

// WriteSegment stores a named blob directly under the volume root,
// bypassing the object cache. Image chunks use this to avoid holding
// one descriptor per chunk.
func (v *DirectoryVolume) WriteSegment(name string, data []byte) error {
	segPath, err := v.memberPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(segPath), 0755); err != nil {
		return errors.Mark(errors.Wrapf(err, "create segment directory for %s", name), errors.ErrIO)
	}
	if err := os.WriteFile(segPath, data, 0644); err != nil {
		return errors.Mark(errors.Wrapf(err, "write segment %s", name), errors.ErrIO)
	}
	return nil
}

// ReadSegment reads a named blob back. Missing segments report
// ErrNotFound.
func (v *DirectoryVolume) ReadSegment(name string) ([]byte, error) {
	segPath, err := v.memberPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(segPath)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrNotFound, "segment %s", name)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read segment %s", name), errors.ErrIO)
	}
	return data, nil
}

// memberPath maps a member name into the volume root, rejecting names
// that would escape it.
func (v *DirectoryVolume) memberPath(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == metadataName || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errors.Wrapf(errors.ErrInvalidInput, "invalid member name %q", name)
	}
	return filepath.Join(v.root, cleaned), nil
}

// Flush persists the resolver's metadata into the volume.
func (v *DirectoryVolume) Flush() error {
	return v.writeMetadata()
}

// Close rewrites the metadata segment one final time, after every other
// object has flushed its state, so the persisted triples reflect final
// member sizes.
func (v *DirectoryVolume) Close() error {
	return v.writeMetadata()
}

func (v *DirectoryVolume) writeMetadata() error {
	f, err := os.Create(filepath.Join(v.root, metadataName))
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "write metadata of %s", v.URN()), errors.ErrIO)
	}
	defer f.Close()
	return v.Resolver.DumpToTurtle(f)
}

var _ store.Object = (*DirectoryVolume)(nil)
