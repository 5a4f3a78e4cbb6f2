// Package idx reads and writes the IDX binary tensor format used by the
// MNIST distribution.
//
//	Format Structure:
//	  [2 bytes: reserved, always 0x00 0x00]
//	  [1 byte:  element type tag]
//	  [1 byte:  number of dimensions D]
//	  [D x 4 bytes: dimension sizes (uint32 BE), outermost first]
//	  [payload: elements in row-major order, big-endian]
//
// Supported element types:
//   - 0x08 unsigned byte
//   - 0x09 signed byte
//   - 0x0b int16
//   - 0x0c int32
//   - 0x0d float32
//   - 0x0e float64
//
// The payload is always big-endian on the wire. Decode converts it to host
// order, so tensors can be read through the typed views of tensor.RawTensor
// on any platform.
//
// Example usage:
//
//	f, err := os.Open("train-labels-idx1-ubyte")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	labels, err := idx.Decode(f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(labels.Shape(), labels.AsUint8()[:10])
package idx
