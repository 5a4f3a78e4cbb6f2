// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the typed, shaped arrays produced by the IDX decoder.
//
// # Overview
//
// A RawTensor is a dense, row-major N-dimensional array. Its element type is
// one of the six IDX element types:
//   - uint8, int8 (images and labels)
//   - int16, int32 (signed integers)
//   - float32, float64 (floating-point)
//
// Elements are stored in host byte order regardless of how they were
// encoded on disk, so the typed views can be used directly:
//
//	labels, _ := dataset.Default().TrainLabels(ctx)
//	fmt.Println(labels.Shape())        // (60000,)
//	fmt.Println(labels.AsUint8()[:10]) // [5 0 4 1 9 2 1 3 1 4]
//
// # Matrix export
//
// Dense flattens every dimension after the first into columns and returns a
// gonum matrix, ready for linear algebra:
//
//	images, _ := dataset.Default().TrainImages(ctx)
//	m, _ := images.Dense() // 60000 x 784
package tensor
