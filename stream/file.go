package stream

import (
	"os"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
)

func init() {
	ctor := func(r store.DataStore) store.Object {
		return &FileBackedObject{BaseObject: store.BaseObject{Resolver: r}}
	}
	store.RegisterType(TypeFile, ctor)
	// Identifiers with no stored type but a file path resolve to a
	// file-backed stream.
	store.RegisterScheme("file", ctor)
}

// FileBackedObject is a stream backed by a plain file on disk.
//
// The aff4:stream-write-mode attribute of its URN governs opening: in
// "truncate" mode existing backing content is discarded, in "append"
// mode (the default) it is preserved. Either way the stream is opened
// read-write and positioned at the start.
type FileBackedObject struct {
	store.BaseObject

	file *os.File
}

// LoadFromURN opens the backing file named by the URN path, creating it
// if needed, and records the object's type and size triples.
func (f *FileBackedObject) LoadFromURN() error {
	components := f.URN().Parse()
	if components.Path == "" {
		return errors.Wrapf(errors.ErrInitFailed, "URN %s has no file path", f.URN())
	}

	flags := os.O_RDWR | os.O_CREATE
	if f.writeMode() == store.WriteModeTruncate {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(components.Path, flags, 0644)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "open %s", components.Path), errors.ErrInitFailed)
	}
	f.file = file

	f.Resolver.Set(f.URN(), store.AttrType, rdf.NewXSDString(TypeFile))
	f.Resolver.Set(f.URN(), store.AttrSize, rdf.NewXSDInteger(f.Size()))
	return nil
}

func (f *FileBackedObject) writeMode() string {
	v, err := f.Resolver.Get(f.URN(), store.AttrStreamWriteMode)
	if err != nil {
		return store.WriteModeAppend
	}
	return v.SerializeToString()
}

// Prepare rewinds the stream so a cached instance reads from the start.
func (f *FileBackedObject) Prepare() {
	if f.file != nil {
		_, _ = f.file.Seek(0, 0)
	}
}

// Flush records the current size and syncs the file. Safe to call
// repeatedly.
func (f *FileBackedObject) Flush() error {
	if f.file == nil {
		return nil
	}
	f.Resolver.Set(f.URN(), store.AttrSize, rdf.NewXSDInteger(f.Size()))
	return errors.Wrapf(f.file.Sync(), "sync %s", f.URN())
}

// Close releases the file descriptor. Invoked by the resolver at
// teardown; the object is unusable afterwards.
func (f *FileBackedObject) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return errors.Wrapf(err, "close %s", f.URN())
}

func (f *FileBackedObject) Read(p []byte) (int, error)                 { return f.file.Read(p) }
func (f *FileBackedObject) Write(p []byte) (int, error)                { return f.file.Write(p) }
func (f *FileBackedObject) Seek(offset int64, whence int) (int64, error) { return f.file.Seek(offset, whence) }

// Size returns the backing file's current length.
func (f *FileBackedObject) Size() int64 {
	if f.file == nil {
		return 0
	}
	info, err := f.file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

var _ Stream = (*FileBackedObject)(nil)
