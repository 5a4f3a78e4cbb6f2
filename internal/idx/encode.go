package idx

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/mnist/internal/tensor"
)

// Encode writes t to w in IDX layout with a big-endian payload.
func Encode(w io.Writer, t *tensor.RawTensor) error {
	tag, ok := TypeOf(t.DType())
	if !ok {
		return fmt.Errorf("idx: no type tag for %s", t.DType())
	}
	shape := t.Shape()
	if len(shape) == 0 {
		return fmt.Errorf("idx: cannot encode a rank-0 tensor")
	}
	if len(shape) > math.MaxUint8 {
		return fmt.Errorf("idx: rank %d exceeds %d dimensions", len(shape), math.MaxUint8)
	}

	bw := bufio.NewWriter(w)

	header := make([]byte, fixedHeaderSize+4*len(shape))
	header[2] = byte(tag)
	header[3] = byte(len(shape))
	for i, dim := range shape {
		if dim < 0 || uint64(dim) > math.MaxUint32 {
			return fmt.Errorf("idx: dimension %d size %d does not fit in uint32", i, dim)
		}
		binary.BigEndian.PutUint32(header[fixedHeaderSize+4*i:], uint32(dim))
	}
	if _, err := bw.Write(header); err != nil {
		return fmt.Errorf("idx: write header: %w", err)
	}

	data := t.Data()
	width := t.DType().Size()
	if width == 1 {
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("idx: write payload: %w", err)
		}
		return bw.Flush()
	}

	elem := make([]byte, width)
	for off := 0; off < len(data); off += width {
		switch width {
		case 2:
			binary.BigEndian.PutUint16(elem, binary.NativeEndian.Uint16(data[off:]))
		case 4:
			binary.BigEndian.PutUint32(elem, binary.NativeEndian.Uint32(data[off:]))
		case 8:
			binary.BigEndian.PutUint64(elem, binary.NativeEndian.Uint64(data[off:]))
		}
		if _, err := bw.Write(elem); err != nil {
			return fmt.Errorf("idx: write payload: %w", err)
		}
	}
	return bw.Flush()
}
