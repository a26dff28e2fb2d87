package store

import "github.com/forensix/aff4/rdf"

// Well-known attribute URNs. The attribute namespace is open: any
// component may introduce new attributes, these are only the ones the
// resolver core and the bundled object types agree on.
const (
	// AttrType names the concrete object type to instantiate for a
	// subject. FactoryOpen consults it before falling back to the URN
	// scheme.
	AttrType = rdf.URN(rdf.NamespaceAFF4 + "type")

	// AttrStored references the volume a stream is stored inside.
	AttrStored = rdf.URN(rdf.NamespaceAFF4 + "stored")

	// AttrContains references a member of a volume.
	AttrContains = rdf.URN(rdf.NamespaceAFF4 + "contains")

	// AttrStreamWriteMode governs whether opening an output stream
	// truncates or appends existing backing content.
	AttrStreamWriteMode = rdf.URN(rdf.NamespaceAFF4 + "stream-write-mode")

	// AttrSize is the logical size of a stream in bytes.
	AttrSize = rdf.URN(rdf.NamespaceAFF4 + "size")

	// AttrChunkSize is the chunk size of an image stream in bytes.
	AttrChunkSize = rdf.URN(rdf.NamespaceAFF4 + "chunk-size")

	// AttrCompression names the compression applied to image chunks.
	AttrCompression = rdf.URN(rdf.NamespaceAFF4 + "compression")
)

// Values of AttrStreamWriteMode.
const (
	WriteModeTruncate = "truncate"
	WriteModeAppend   = "append"
)
