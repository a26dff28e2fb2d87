package stream

import (
	"io"

	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
)

func init() {
	store.RegisterType(TypeMemory, func(r store.DataStore) store.Object {
		return &MemoryStream{BaseObject: store.BaseObject{Resolver: r}}
	})
}

// MemoryStream is a stream held entirely in process memory, used for
// staging data and in tests. Open one by setting the aff4:type triple
// of a URN to aff4:memory-stream before FactoryOpen.
type MemoryStream struct {
	store.BaseObject

	data []byte
	pos  int64
}

// LoadFromURN records the type triple; a fresh memory stream is empty.
func (m *MemoryStream) LoadFromURN() error {
	m.Resolver.Set(m.URN(), store.AttrType, rdf.NewXSDString(TypeMemory))
	return nil
}

// Prepare rewinds the stream for reuse.
func (m *MemoryStream) Prepare() {
	m.pos = 0
}

// Flush records the current size triple.
func (m *MemoryStream) Flush() error {
	m.Resolver.Set(m.URN(), store.AttrSize, rdf.NewXSDInteger(m.Size()))
	return nil
}

func (m *MemoryStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *MemoryStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	if m.pos < 0 {
		m.pos = 0
	}
	return m.pos, nil
}

// Size returns the stream's current length.
func (m *MemoryStream) Size() int64 {
	return int64(len(m.data))
}

var _ Stream = (*MemoryStream)(nil)
