// Package stream provides the byte-stream object types of the AFF4
// universe: file-backed streams and in-memory streams. Importing the
// package registers the types with the class factory.
package stream

import (
	"io"

	"github.com/forensix/aff4/store"
)

// Canonical type names under which the stream objects register.
const (
	// TypeFile is the canonical type of a file-backed stream. It also
	// handles the "file" URN scheme, so bare paths resolve here.
	TypeFile = "aff4:file"

	// TypeMemory is the canonical type of an in-memory stream.
	TypeMemory = "aff4:memory-stream"
)

// Stream is the capability shared by every byte-stream object: a
// seekable reader/writer with a known size, owned by the resolver like
// any other object.
type Stream interface {
	store.Object
	io.Reader
	io.Writer
	io.Seeker

	// Size returns the stream's current length in bytes.
	Size() int64
}
