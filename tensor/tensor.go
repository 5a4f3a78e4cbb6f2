// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/mnist/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: uint8, int8, int16, int32, float32, float64.
type DType = tensor.DType

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Uint8   DataType = tensor.Uint8
	Int8    DataType = tensor.Int8
	Int16   DataType = tensor.Int16
	Int32   DataType = tensor.Int32
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents tensor dimensions, outermost first.
type Shape = tensor.Shape

// RawTensor is a dense row-major tensor.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType()
//   - Type-safe data access via AsUint8(), AsFloat32(), etc.
//   - Element access via At() and Float64s()
//   - Row selection via Gather() and matrix export via Dense()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := raw.AsFloat32() // Type-safe access
type RawTensor = tensor.RawTensor

// NewRaw creates a zeroed tensor with the given shape and element type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a tensor of the given shape holding a copy of values.
//
// Example:
//
//	t, err := tensor.FromSlice(tensor.Shape{2, 2}, []int16{1, 2, 3, 4})
func FromSlice[T DType](shape Shape, values []T) (*RawTensor, error) {
	return tensor.FromSlice(shape, values)
}
