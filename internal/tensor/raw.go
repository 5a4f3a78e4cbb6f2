package tensor

import (
	"fmt"
	"unsafe"

	"gonum.org/v1/gonum/mat"
)

// RawTensor is a dense row-major tensor whose elements are stored in host
// byte order.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zeroed.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// FromSlice creates a tensor of the given shape holding a copy of values.
func FromSlice[T DType](shape Shape, values []T) (*RawTensor, error) {
	r, err := NewRaw(shape, Of[T]())
	if err != nil {
		return nil, err
	}
	if len(values) != r.NumElements() {
		return nil, fmt.Errorf("shape %v needs %d elements, got %d", shape, r.NumElements(), len(values))
	}
	copy(view[T](r), values)
	return r, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// Data returns the raw host-order byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

func view[T DType](r *RawTensor) []T {
	n := r.NumElements()
	if n == 0 {
		return []T{}
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&r.data[0])), n)
}

func (r *RawTensor) mustBe(dt DataType) {
	if r.dtype != dt {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
}

// AsUint8 interprets the data as []uint8.
// Panics if the tensor's dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	r.mustBe(Uint8)
	return r.data
}

// AsInt8 interprets the data as []int8.
// Panics if the tensor's dtype is not Int8.
func (r *RawTensor) AsInt8() []int8 {
	r.mustBe(Int8)
	return view[int8](r)
}

// AsInt16 interprets the data as []int16.
// Panics if the tensor's dtype is not Int16.
func (r *RawTensor) AsInt16() []int16 {
	r.mustBe(Int16)
	return view[int16](r)
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	r.mustBe(Int32)
	return view[int32](r)
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	r.mustBe(Float32)
	return view[float32](r)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	r.mustBe(Float64)
	return view[float64](r)
}

// flatAt returns the element at flat offset i converted to float64.
func (r *RawTensor) flatAt(i int) float64 {
	switch r.dtype {
	case Uint8:
		return float64(r.data[i])
	case Int8:
		return float64(view[int8](r)[i])
	case Int16:
		return float64(view[int16](r)[i])
	case Int32:
		return float64(view[int32](r)[i])
	case Float32:
		return float64(view[float32](r)[i])
	case Float64:
		return view[float64](r)[i]
	default:
		panic("unknown data type")
	}
}

// At returns the element at the given multi-dimensional index as float64.
// Panics if the index rank or any coordinate is out of range.
func (r *RawTensor) At(indices ...int) float64 {
	if len(indices) != len(r.shape) {
		panic(fmt.Sprintf("index rank %d does not match tensor rank %d", len(indices), len(r.shape)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of range for dimension %d of size %d", idx, i, r.shape[i]))
		}
		off += idx * r.stride[i]
	}
	return r.flatAt(off)
}

// Float64s returns a copy of all elements converted to float64.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	for i := range out {
		out[i] = r.flatAt(i)
	}
	return out
}

// Gather builds a new tensor from the sub-tensors at the given indices of
// dimension 0, in the order given. Indices may repeat.
func (r *RawTensor) Gather(indices []int) (*RawTensor, error) {
	if len(r.shape) == 0 {
		return nil, fmt.Errorf("cannot gather from a scalar")
	}
	shape := r.shape.Clone()
	shape[0] = len(indices)
	out, err := NewRaw(shape, r.dtype)
	if err != nil {
		return nil, err
	}

	rowBytes := 0
	if r.shape[0] > 0 {
		rowBytes = len(r.data) / r.shape[0]
	}
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[0] {
			return nil, fmt.Errorf("gather index %d out of range [0, %d)", idx, r.shape[0])
		}
		copy(out.data[i*rowBytes:(i+1)*rowBytes], r.data[idx*rowBytes:(idx+1)*rowBytes])
	}
	return out, nil
}

// Dense converts the tensor into a gonum matrix with one row per entry of
// dimension 0 and the remaining dimensions flattened into columns.
// A rank-1 tensor becomes a single column.
func (r *RawTensor) Dense() (*mat.Dense, error) {
	if len(r.shape) == 0 {
		return nil, fmt.Errorf("cannot convert a scalar to a matrix")
	}
	rows := r.shape[0]
	cols := 1
	for _, dim := range r.shape[1:] {
		cols *= dim
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("cannot convert empty tensor %v to a matrix", r.shape)
	}
	return mat.NewDense(rows, cols, r.Float64s()), nil
}
