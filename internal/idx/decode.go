package idx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/mnist/internal/parallel"
	"github.com/born-ml/mnist/internal/tensor"
)

// fixedHeaderSize is the reserved bytes, type tag and dimension count.
const fixedHeaderSize = 4

// Header is the parsed IDX header.
type Header struct {
	Reserved uint16 // Always zero in a valid file
	Type     Type
	Dims     []uint32 // Dimension sizes, outermost first
}

// Shape returns the dimension sizes as a tensor shape.
func (h Header) Shape() tensor.Shape {
	shape := make(tensor.Shape, len(h.Dims))
	for i, d := range h.Dims {
		shape[i] = int(d)
	}
	return shape
}

// Size returns the encoded header length in bytes.
func (h Header) Size() int {
	return fixedHeaderSize + 4*len(h.Dims)
}

// Decoder decodes IDX streams into tensors.
type Decoder struct {
	Parallel parallel.Config // Controls byte-order conversion of large payloads
}

// NewDecoder returns a decoder that converts large payloads on all CPUs.
func NewDecoder() *Decoder {
	return &Decoder{Parallel: parallel.DefaultConfig()}
}

var defaultDecoder = NewDecoder()

// Decode reads a complete IDX stream and returns its contents as a tensor.
func Decode(r io.Reader) (*tensor.RawTensor, error) {
	return defaultDecoder.Decode(r)
}

// DecodeBytes decodes an in-memory IDX file.
func DecodeBytes(b []byte) (*tensor.RawTensor, error) {
	return defaultDecoder.Decode(bytes.NewReader(b))
}

// ReadHeader reads and validates the header only, leaving r positioned at
// the first payload byte.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	fixed := make([]byte, fixedHeaderSize)
	if n, err := io.ReadFull(r, fixed); err != nil {
		return h, truncated(err, fixedHeaderSize, n)
	}

	h.Reserved = binary.BigEndian.Uint16(fixed[0:2])
	if h.Reserved != 0 {
		return h, &DecodeError{Kind: ErrBadMagic, Offset: 0, Value: uint64(h.Reserved)}
	}

	h.Type = Type(fixed[2])
	if _, ok := h.Type.DataType(); !ok {
		return h, &DecodeError{Kind: ErrUnknownType, Offset: 2, Value: uint64(fixed[2])}
	}

	numDims := int(fixed[3])
	dims := make([]byte, 4*numDims)
	if n, err := io.ReadFull(r, dims); err != nil {
		return h, truncated(err, fixedHeaderSize+len(dims), fixedHeaderSize+n)
	}

	h.Dims = make([]uint32, numDims)
	for i := range h.Dims {
		h.Dims[i] = binary.BigEndian.Uint32(dims[4*i:])
	}
	return h, nil
}

// truncated converts a short header read into a DecodeError. Other read
// failures are returned as-is.
func truncated(err error, want, got int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &DecodeError{Kind: ErrTruncatedHeader, Offset: int64(got), Want: want, Got: got}
	}
	return fmt.Errorf("idx: read header: %w", err)
}

// Decode reads a complete IDX stream and returns its contents as a tensor.
func (d *Decoder) Decode(r io.Reader) (*tensor.RawTensor, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("idx: read payload: %w", err)
	}

	dtype, _ := h.Type.DataType()
	width := dtype.Size()

	want, ok := expectedItems(h.Dims)
	ok = ok && want <= math.MaxInt/width
	got := len(payload) / width
	if !ok || len(payload) != want*width {
		if !ok {
			want = -1
		}
		return nil, &DecodeError{
			Kind:         ErrSizeMismatch,
			Offset:       int64(h.Size()),
			Want:         want,
			Got:          got,
			PayloadBytes: len(payload),
		}
	}

	out, err := tensor.NewRaw(h.Shape(), dtype)
	if err != nil {
		return nil, fmt.Errorf("idx: allocate tensor: %w", err)
	}
	d.toHostOrder(out.Data(), payload, width)
	return out, nil
}

// expectedItems returns the product of dims. A zero dimension yields zero
// regardless of the others; ok is false if there are no dimensions or the
// product does not fit in int.
func expectedItems(dims []uint32) (int, bool) {
	if len(dims) == 0 {
		return 0, false
	}
	n := uint64(1)
	for _, dim := range dims {
		if dim == 0 {
			return 0, true
		}
	}
	for _, dim := range dims {
		if n > math.MaxInt/uint64(dim) {
			return 0, false
		}
		n *= uint64(dim)
	}
	return int(n), true
}

// toHostOrder copies big-endian elements of the given width from src into
// dst in native byte order.
func (d *Decoder) toHostOrder(dst, src []byte, width int) {
	if width == 1 {
		copy(dst, src)
		return
	}

	n := len(src) / width
	parallel.Range(n, func(start, end int) {
		switch width {
		case 2:
			for i := start; i < end; i++ {
				binary.NativeEndian.PutUint16(dst[2*i:], binary.BigEndian.Uint16(src[2*i:]))
			}
		case 4:
			for i := start; i < end; i++ {
				binary.NativeEndian.PutUint32(dst[4*i:], binary.BigEndian.Uint32(src[4*i:]))
			}
		case 8:
			for i := start; i < end; i++ {
				binary.NativeEndian.PutUint64(dst[8*i:], binary.BigEndian.Uint64(src[8*i:]))
			}
		}
	}, d.Parallel)
}
