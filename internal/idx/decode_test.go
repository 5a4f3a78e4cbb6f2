package idx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mnist/internal/parallel"
	"github.com/born-ml/mnist/internal/tensor"
)

// header builds a valid IDX header for the given tag and dimensions.
func header(tag Type, dims ...uint32) []byte {
	buf := []byte{0x00, 0x00, byte(tag), byte(len(dims))}
	for _, d := range dims {
		buf = binary.BigEndian.AppendUint32(buf, d)
	}
	return buf
}

func TestDecode_TrainLabelsHeader(t *testing.T) {
	data := []byte{
		0x00, 0x00, 0x08, 0x01, 0x00, 0x00, 0x00, 0x05,
		0x00, 0x01, 0x02, 0x03, 0x04,
	}

	got, err := DecodeBytes(data)
	require.NoError(t, err)

	assert.Equal(t, tensor.Uint8, got.DType())
	assert.True(t, got.Shape().Equal(tensor.Shape{5}), "shape %v", got.Shape())
	assert.Equal(t, []uint8{0, 1, 2, 3, 4}, got.AsUint8())
}

func TestDecode_BigEndianPayload(t *testing.T) {
	// 0x0001 is 1 big-endian and 256 if read little-endian.
	data := append(header(TypeInt16, 1), 0x00, 0x01)

	got, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, []int16{1}, got.AsInt16())
}

func TestDecode_KnownValuesPerType(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		check   func(t *testing.T, r *tensor.RawTensor)
		tag     Type
	}{
		{
			name:    "int8",
			tag:     TypeInt8,
			payload: []byte{0xff, 0x7f},
			check: func(t *testing.T, r *tensor.RawTensor) {
				assert.Equal(t, []int8{-1, 127}, r.AsInt8())
			},
		},
		{
			name:    "int16",
			tag:     TypeInt16,
			payload: []byte{0xff, 0xfe, 0x01, 0x00},
			check: func(t *testing.T, r *tensor.RawTensor) {
				assert.Equal(t, []int16{-2, 256}, r.AsInt16())
			},
		},
		{
			name:    "int32",
			tag:     TypeInt32,
			payload: []byte{0x00, 0x00, 0xea, 0x60, 0x80, 0x00, 0x00, 0x00},
			check: func(t *testing.T, r *tensor.RawTensor) {
				assert.Equal(t, []int32{60000, math.MinInt32}, r.AsInt32())
			},
		},
		{
			name:    "float32",
			tag:     TypeFloat32,
			payload: []byte{0x3f, 0x80, 0x00, 0x00, 0xc0, 0x00, 0x00, 0x00},
			check: func(t *testing.T, r *tensor.RawTensor) {
				assert.Equal(t, []float32{1, -2}, r.AsFloat32())
			},
		},
		{
			name:    "float64",
			tag:     TypeFloat64,
			payload: []byte{0x3f, 0xf8, 0, 0, 0, 0, 0, 0, 0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18},
			check: func(t *testing.T, r *tensor.RawTensor) {
				assert.Equal(t, []float64{1.5, math.Pi}, r.AsFloat64())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBytes(append(header(tt.tag, 2), tt.payload...))
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestDecode_RowMajorReshape(t *testing.T) {
	payload := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	got, err := DecodeBytes(append(header(TypeUint8, 2, 3, 2), payload...))
	require.NoError(t, err)

	assert.True(t, got.Shape().Equal(tensor.Shape{2, 3, 2}))
	assert.Equal(t, 5.0, got.At(0, 2, 1))
	assert.Equal(t, 6.0, got.At(1, 0, 0))
	assert.Equal(t, 11.0, got.At(1, 2, 1))
}

func TestDecode_ZeroSizedDimension(t *testing.T) {
	got, err := DecodeBytes(header(TypeUint8, 0, 28, 28))
	require.NoError(t, err)

	assert.True(t, got.Shape().Equal(tensor.Shape{0, 28, 28}), "shape %v", got.Shape())
	assert.Equal(t, 0, got.NumElements())
	assert.Empty(t, got.AsUint8())
}

func TestDecode_ZeroDimensionWithPayloadIsMismatch(t *testing.T) {
	_, err := DecodeBytes(append(header(TypeUint8, 0, 4), 1, 2))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecode_BadMagic(t *testing.T) {
	// Fails iff either reserved byte is nonzero, whatever follows.
	rest := append(header(TypeUint8, 1), 42)[2:]

	for v := 0; v <= math.MaxUint16; v++ {
		data := make([]byte, 0, 2+len(rest))
		data = binary.BigEndian.AppendUint16(data, uint16(v))
		data = append(data, rest...)

		_, err := DecodeBytes(data)
		if v == 0 {
			require.NoError(t, err)
			continue
		}
		if !errors.Is(err, ErrBadMagic) {
			t.Fatalf("reserved 0x%04x: got %v, want ErrBadMagic", v, err)
		}
	}
}

func TestDecode_BadMagicReportsValue(t *testing.T) {
	_, err := DecodeBytes([]byte{0x12, 0x34, 0x08, 0x01})

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, uint64(0x1234), decErr.Value)
	assert.Contains(t, err.Error(), "0x1234")
}

func TestDecode_BadMagicBeforeUnknownType(t *testing.T) {
	_, err := DecodeBytes([]byte{0x01, 0x00, 0xff, 0x01})
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecode_UnknownType(t *testing.T) {
	known := map[byte]bool{0x08: true, 0x09: true, 0x0b: true, 0x0c: true, 0x0d: true, 0x0e: true}

	for tag := 0; tag <= math.MaxUint8; tag++ {
		if known[byte(tag)] {
			continue
		}
		_, err := DecodeBytes([]byte{0x00, 0x00, byte(tag), 0x01, 0, 0, 0, 0})

		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr, "tag 0x%02x", tag)
		require.ErrorIs(t, err, ErrUnknownType)
		assert.Equal(t, uint64(tag), decErr.Value)
	}
}

func TestDecode_TruncatedHeader(t *testing.T) {
	// Fails iff fewer than 4 + 4*D bytes precede the payload.
	for numDims := 0; numDims <= 4; numDims++ {
		dims := make([]uint32, numDims)
		full := header(TypeUint8, dims...)

		for n := 0; n < len(full); n++ {
			_, err := DecodeBytes(full[:n])
			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr, "D=%d, %d bytes", numDims, n)
			require.ErrorIs(t, err, ErrTruncatedHeader, "D=%d, %d bytes", numDims, n)
			assert.Equal(t, n, decErr.Got)
		}

		if numDims > 0 {
			_, err := DecodeBytes(full)
			require.NoError(t, err, "D=%d, full header", numDims)
		}
	}
}

func TestDecode_NoDimensions(t *testing.T) {
	for _, payload := range [][]byte{nil, {0x2a}} {
		_, err := DecodeBytes(append(header(TypeUint8), payload...))

		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr, "%d payload bytes", len(payload))
		require.ErrorIs(t, err, ErrSizeMismatch)
		assert.Equal(t, -1, decErr.Want)
		assert.Equal(t, len(payload), decErr.PayloadBytes)
		assert.Contains(t, err.Error(), "no dimensions")
	}
}

func TestDecode_TruncatedHeaderReportsNeed(t *testing.T) {
	data := header(TypeUint8, 60000, 28, 28)[:9]
	_, err := DecodeBytes(data)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, 16, decErr.Want)
	assert.Equal(t, 9, decErr.Got)
}

func TestDecode_SizeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		tag       Type
		dims      []uint32
		payload   int
		wantItems int
		gotItems  int
	}{
		{"too few bytes", TypeUint8, []uint32{5}, 4, 5, 4},
		{"too many bytes", TypeUint8, []uint32{2, 2}, 5, 4, 5},
		{"partial element", TypeInt32, []uint32{2}, 7, 2, 1},
		{"empty payload", TypeFloat64, []uint32{3}, 0, 3, 0},
		{"extra element", TypeInt16, []uint32{1, 3}, 8, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(header(tt.tag, tt.dims...), make([]byte, tt.payload)...)
			_, err := DecodeBytes(data)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			require.ErrorIs(t, err, ErrSizeMismatch)
			assert.Equal(t, tt.wantItems, decErr.Want)
			assert.Equal(t, tt.gotItems, decErr.Got)
			assert.Equal(t, tt.payload, decErr.PayloadBytes)
		})
	}
}

func TestDecode_DimensionOverflow(t *testing.T) {
	data := header(TypeUint8, math.MaxUint32, math.MaxUint32, math.MaxUint32)
	_, err := DecodeBytes(data)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.ErrorIs(t, err, ErrSizeMismatch)
	assert.Equal(t, -1, decErr.Want)
	assert.Contains(t, err.Error(), "overflows")
}

func TestDecode_Idempotent(t *testing.T) {
	data := append(header(TypeInt32, 2), 0, 0, 0, 7, 0xff, 0xff, 0xff, 0xff)

	a, err := DecodeBytes(data)
	require.NoError(t, err)
	b, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, a.AsInt32(), b.AsInt32())
	assert.Equal(t, []int32{7, -1}, a.AsInt32())
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestDecode_ReadErrorIsNotTruncation(t *testing.T) {
	boom := errors.New("boom")
	_, err := Decode(failingReader{err: boom})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTruncatedHeader)

	r := io.MultiReader(bytes.NewReader(header(TypeUint8, 1)), failingReader{err: boom})
	_, err = Decode(r)
	require.ErrorIs(t, err, boom)
}

func TestDecode_ParallelConversion(t *testing.T) {
	n := 1000
	values := make([]int32, n)
	payload := make([]byte, 0, 4*n)
	for i := range values {
		values[i] = int32(i*7919 - 500000)
		payload = binary.BigEndian.AppendUint32(payload, uint32(values[i]))
	}

	dec := &Decoder{Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16}}
	got, err := dec.Decode(bytes.NewReader(append(header(TypeInt32, uint32(n)), payload...)))
	require.NoError(t, err)

	if diff := cmp.Diff(values, got.AsInt32()); diff != "" {
		t.Errorf("decoded values mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHeader(t *testing.T) {
	r := bytes.NewReader(append(header(TypeFloat32, 10, 3), 0xaa))

	h, err := ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, TypeFloat32, h.Type)
	assert.Equal(t, []uint32{10, 3}, h.Dims)
	assert.Equal(t, 12, h.Size())
	assert.True(t, h.Shape().Equal(tensor.Shape{10, 3}))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa}, rest, "reader must stop at the payload")
}

func TestTypeTable(t *testing.T) {
	assert.Equal(t, 1, TypeUint8.Width())
	assert.Equal(t, 1, TypeInt8.Width())
	assert.Equal(t, 2, TypeInt16.Width())
	assert.Equal(t, 4, TypeInt32.Width())
	assert.Equal(t, 4, TypeFloat32.Width())
	assert.Equal(t, 8, TypeFloat64.Width())
	assert.Equal(t, 0, Type(0x0a).Width())

	assert.Equal(t, "0x08(uint8)", TypeUint8.String())
	assert.Equal(t, "0x0a(unknown)", Type(0x0a).String())
}
