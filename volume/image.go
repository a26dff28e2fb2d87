package volume

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
	"github.com/forensix/aff4/store"
	"github.com/forensix/aff4/stream"
)

// Compression schemes for image chunks.
const (
	CompressionZlib = "zlib"
	CompressionNone = "none"
)

// DefaultChunkSize is the chunk size used when no aff4:chunk-size
// triple is recorded for an image.
const DefaultChunkSize = 32 * 1024

func init() {
	store.RegisterType(TypeImage, func(r store.DataStore) store.Object {
		return &ImageStream{BaseObject: store.BaseObject{Resolver: r}}
	})
}

// ImageStream stores a byte stream as fixed-size chunks inside a
// volume, each chunk a separate segment, optionally zlib-compressed.
//
// The stream references its enclosing volume only by the aff4:stored
// URN and resolves it through the data store on every access, so no
// ownership cycle exists between a volume and its images.
type ImageStream struct {
	store.BaseObject

	volumeURN   rdf.URN
	chunkSize   int64
	compression string
	size        int64

	// Write side: the pending partial chunk.
	buffer []byte

	// Read side: position and a one-chunk cache.
	pos            int64
	cachedChunkIdx int64
	cachedChunk    []byte
}

// NewImageStream creates a new image inside a volume: it records the
// image's metadata triples and opens the instance through the resolver.
// chunkSize <= 0 selects DefaultChunkSize.
func NewImageStream(r store.DataStore, imageURN, volumeURN rdf.URN, chunkSize int64, compression string) (store.Handle[*ImageStream], error) {
	if compression == "" {
		compression = CompressionZlib
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	r.Set(imageURN, store.AttrType, rdf.NewXSDString(TypeImage))
	r.Set(imageURN, store.AttrStored, volumeURN.AsValue())
	r.Set(imageURN, store.AttrChunkSize, rdf.NewXSDInteger(chunkSize))
	r.Set(imageURN, store.AttrCompression, rdf.NewXSDString(compression))

	h := store.FactoryOpen[*ImageStream](r, imageURN)
	if h.IsEmpty() {
		return h, errors.Wrapf(errors.ErrInitFailed, "open image %s", imageURN)
	}
	return h, nil
}

// LoadFromURN configures the image from its stored attributes. The
// aff4:stored volume reference is required; an image with no volume
// cannot exist.
func (m *ImageStream) LoadFromURN() error {
	stored, err := m.Resolver.Get(m.URN(), store.AttrStored)
	if err != nil {
		return errors.Wrapf(errors.ErrInitFailed, "image %s has no stored volume", m.URN())
	}
	m.volumeURN = rdf.URN(stored.SerializeToString())

	m.chunkSize = DefaultChunkSize
	if v, err := m.Resolver.Get(m.URN(), store.AttrChunkSize); err == nil {
		var size rdf.XSDInteger
		if err := size.UnmarshalFromString(v.SerializeToString()); err != nil || size.Value <= 0 {
			return errors.Wrapf(errors.ErrInitFailed, "image %s has invalid chunk size %q", m.URN(), v.SerializeToString())
		}
		m.chunkSize = size.Value
	}

	m.compression = CompressionZlib
	if v, err := m.Resolver.Get(m.URN(), store.AttrCompression); err == nil {
		m.compression = v.SerializeToString()
	}
	switch m.compression {
	case CompressionZlib, CompressionNone:
	default:
		return errors.Wrapf(errors.ErrInitFailed, "image %s has unknown compression %q", m.URN(), m.compression)
	}

	if v, err := m.Resolver.Get(m.URN(), store.AttrSize); err == nil {
		var size rdf.XSDInteger
		if err := size.UnmarshalFromString(v.SerializeToString()); err == nil {
			m.size = size.Value
		}
	}

	// Reopening a partially-filled image: the final short chunk moves
	// back into the write buffer so appends continue it.
	if rem := m.size % m.chunkSize; rem > 0 {
		chunk, err := m.loadChunk(m.size / m.chunkSize)
		if err != nil {
			return errors.Wrapf(err, "reload final chunk of %s", m.URN())
		}
		m.buffer = chunk
		m.size -= rem
	}

	m.cachedChunkIdx = -1
	return nil
}

// Prepare rewinds the read position for reuse of a cached instance.
func (m *ImageStream) Prepare() {
	m.pos = 0
}

// volume resolves the enclosing volume through the resolver.
func (m *ImageStream) volume() (*DirectoryVolume, error) {
	h := store.FactoryOpen[*DirectoryVolume](m.Resolver, m.volumeURN)
	if h.IsEmpty() {
		return nil, errors.Wrapf(errors.ErrNotFound, "volume %s of image %s", m.volumeURN, m.URN())
	}
	return h.Release(), nil
}

// segmentName names the chunk segment inside the volume. Image URNs
// minted under the volume URN produce relative names; anything else is
// flattened.
func (m *ImageStream) segmentName(idx int64) string {
	base := m.URN().String()
	if rel, ok := strings.CutPrefix(base, m.volumeURN.String()+"/"); ok {
		base = rel
	} else {
		base = strings.NewReplacer("://", "_", "/", "_").Replace(base)
	}
	return fmt.Sprintf("%s/%08d", base, idx)
}

// Write buffers data and stores every completed chunk as a volume
// segment.
func (m *ImageStream) Write(p []byte) (int, error) {
	m.buffer = append(m.buffer, p...)
	for int64(len(m.buffer)) >= m.chunkSize {
		if err := m.storeChunk(m.buffer[:m.chunkSize]); err != nil {
			return 0, err
		}
		m.buffer = m.buffer[m.chunkSize:]
	}
	return len(p), nil
}

func (m *ImageStream) storeChunk(chunk []byte) error {
	vol, err := m.volume()
	if err != nil {
		return err
	}

	data := chunk
	if m.compression == CompressionZlib {
		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		if _, err := zw.Write(chunk); err != nil {
			return errors.Wrap(err, "compress chunk")
		}
		if err := zw.Close(); err != nil {
			return errors.Wrap(err, "finish chunk compression")
		}
		data = compressed.Bytes()
	}

	idx := m.size / m.chunkSize
	if err := vol.WriteSegment(m.segmentName(idx), data); err != nil {
		return err
	}
	m.size += int64(len(chunk))
	return nil
}

func (m *ImageStream) loadChunk(idx int64) ([]byte, error) {
	vol, err := m.volume()
	if err != nil {
		return nil, err
	}
	data, err := vol.ReadSegment(m.segmentName(idx))
	if err != nil {
		return nil, err
	}
	if m.compression != CompressionZlib {
		return data, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decompress chunk %d", idx), errors.ErrIO)
	}
	defer zr.Close()
	chunk, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decompress chunk %d", idx), errors.ErrIO)
	}
	return chunk, nil
}

// Read copies out of the chunk store starting at the current position.
func (m *ImageStream) Read(p []byte) (int, error) {
	if m.pos >= m.Size() {
		return 0, io.EOF
	}

	total := 0
	for total < len(p) && m.pos < m.Size() {
		idx := m.pos / m.chunkSize
		offset := m.pos % m.chunkSize

		chunk, err := m.chunkAt(idx)
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, err
		}
		if offset >= int64(len(chunk)) {
			break
		}

		n := copy(p[total:], chunk[offset:])
		total += n
		m.pos += int64(n)
	}
	return total, nil
}

// chunkAt returns the chunk's bytes, serving the pending write buffer
// for the final partial chunk and caching the last loaded segment.
func (m *ImageStream) chunkAt(idx int64) ([]byte, error) {
	if idx == m.size/m.chunkSize && len(m.buffer) > 0 {
		return m.buffer, nil
	}
	if idx == m.cachedChunkIdx {
		return m.cachedChunk, nil
	}
	chunk, err := m.loadChunk(idx)
	if err != nil {
		return nil, err
	}
	m.cachedChunkIdx = idx
	m.cachedChunk = chunk
	return chunk, nil
}

func (m *ImageStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = m.Size() + offset
	}
	if m.pos < 0 {
		m.pos = 0
	}
	return m.pos, nil
}

// Size returns the stream length including the pending partial chunk.
func (m *ImageStream) Size() int64 {
	return m.size + int64(len(m.buffer))
}

// Flush stores the pending partial chunk as the final segment and
// records the size triple. Flushing again without intervening writes
// stores nothing new.
func (m *ImageStream) Flush() error {
	if len(m.buffer) > 0 {
		if err := m.storeChunk(m.buffer); err != nil {
			return err
		}
		// storeChunk advanced size past the partial chunk; pull it back
		// so a subsequent append rewrites the same final segment.
		m.size -= int64(len(m.buffer))
	}
	m.Resolver.Set(m.URN(), store.AttrSize, rdf.NewXSDInteger(m.Size()))
	return nil
}

var _ stream.Stream = (*ImageStream)(nil)
