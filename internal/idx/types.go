package idx

import (
	"fmt"

	"github.com/born-ml/mnist/internal/tensor"
)

// Type is the IDX element type tag (third header byte).
type Type uint8

// IDX element type tags.
const (
	TypeUint8   Type = 0x08
	TypeInt8    Type = 0x09
	TypeInt16   Type = 0x0b
	TypeInt32   Type = 0x0c
	TypeFloat32 Type = 0x0d
	TypeFloat64 Type = 0x0e
)

// typeTable maps each tag to its tensor element type. The element width
// follows from DataType.Size.
var typeTable = map[Type]tensor.DataType{
	TypeUint8:   tensor.Uint8,
	TypeInt8:    tensor.Int8,
	TypeInt16:   tensor.Int16,
	TypeInt32:   tensor.Int32,
	TypeFloat32: tensor.Float32,
	TypeFloat64: tensor.Float64,
}

// DataType returns the tensor element type for the tag.
func (t Type) DataType() (tensor.DataType, bool) {
	dt, ok := typeTable[t]
	return dt, ok
}

// Width returns the element width in bytes, or 0 for an unknown tag.
func (t Type) Width() int {
	dt, ok := typeTable[t]
	if !ok {
		return 0
	}
	return dt.Size()
}

// String returns the tag as a hex byte followed by its element type.
func (t Type) String() string {
	dt, ok := typeTable[t]
	if !ok {
		return fmt.Sprintf("0x%02x(unknown)", uint8(t))
	}
	return fmt.Sprintf("0x%02x(%s)", uint8(t), dt)
}

// TypeOf returns the tag used to encode tensors of the given element type.
func TypeOf(dt tensor.DataType) (Type, bool) {
	for tag, d := range typeTable {
		if d == dt {
			return tag, true
		}
	}
	return 0, false
}
