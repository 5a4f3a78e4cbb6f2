// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package idx decodes and encodes the IDX binary tensor format.
//
// IDX is the self-describing format of the MNIST distribution: two zero
// bytes, a type tag, a dimension count, big-endian uint32 dimension sizes
// and a big-endian row-major payload.
//
// Example usage:
//
//	f, err := os.Open("t10k-labels-idx1-ubyte")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	labels, err := idx.Decode(f)
//	switch {
//	case errors.Is(err, idx.ErrBadMagic), errors.Is(err, idx.ErrUnknownType):
//	    log.Fatalf("not an IDX file: %v", err)
//	case err != nil:
//	    log.Fatal(err)
//	}
//	fmt.Println(labels.Shape()) // (10000,)
package idx

import (
	"io"

	"github.com/born-ml/mnist/internal/idx"
	"github.com/born-ml/mnist/tensor"
)

// Type is the IDX element type tag.
type Type = idx.Type

// Element type tags.
const (
	TypeUint8   Type = idx.TypeUint8
	TypeInt8    Type = idx.TypeInt8
	TypeInt16   Type = idx.TypeInt16
	TypeInt32   Type = idx.TypeInt32
	TypeFloat32 Type = idx.TypeFloat32
	TypeFloat64 Type = idx.TypeFloat64
)

// Header is a parsed IDX header.
type Header = idx.Header

// DecodeError describes a decode failure. It wraps one of the Err* values.
type DecodeError = idx.DecodeError

// Decode failure kinds.
var (
	ErrTruncatedHeader = idx.ErrTruncatedHeader
	ErrBadMagic        = idx.ErrBadMagic
	ErrUnknownType     = idx.ErrUnknownType
	ErrSizeMismatch    = idx.ErrSizeMismatch
)

// Decode reads a complete IDX stream into a tensor.
func Decode(r io.Reader) (*tensor.RawTensor, error) {
	return idx.Decode(r)
}

// DecodeBytes decodes an in-memory IDX file.
func DecodeBytes(b []byte) (*tensor.RawTensor, error) {
	return idx.DecodeBytes(b)
}

// ReadHeader reads and validates only the header of an IDX stream.
func ReadHeader(r io.Reader) (Header, error) {
	return idx.ReadHeader(r)
}

// Encode writes t in IDX layout.
func Encode(w io.Writer, t *tensor.RawTensor) error {
	return idx.Encode(w, t)
}
