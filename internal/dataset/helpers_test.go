package dataset

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/mnist/internal/idx"
	"github.com/born-ml/mnist/internal/tensor"
)

const (
	testRows = 2
	testCols = 2
)

// dirFetcher serves files from a local directory and records requests.
type dirFetcher struct {
	dir   string
	names []string
	err   error
}

func (f *dirFetcher) Fetch(_ context.Context, name string, _ bool) (string, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("not cached: %w", err)
	}
	return path, nil
}

// synthSplit builds n samples whose labels cycle through 0..9. Pixel
// (0, 0) of image i holds i and pixel (0, 1) holds its label, so tests can
// recover the source index and label of any sampled image.
func synthSplit(t *testing.T, n int) (images, labels *tensor.RawTensor) {
	t.Helper()

	pix := make([]uint8, n*testRows*testCols)
	lbl := make([]uint8, n)
	for i := 0; i < n; i++ {
		lbl[i] = uint8(i % 10)
		pix[i*testRows*testCols] = uint8(i)
		pix[i*testRows*testCols+1] = lbl[i]
	}

	var err error
	images, err = tensor.FromSlice(tensor.Shape{n, testRows, testCols}, pix)
	require.NoError(t, err)
	labels, err = tensor.FromSlice(tensor.Shape{n}, lbl)
	require.NoError(t, err)
	return images, labels
}

// writeIDX encodes r into dir/name, gzip-compressed if name ends in .gz.
func writeIDX(t *testing.T, dir, name string, r *tensor.RawTensor) {
	t.Helper()

	var raw bytes.Buffer
	require.NoError(t, idx.Encode(&raw, r))

	data := raw.Bytes()
	if filepath.Ext(name) == ".gz" {
		var gz bytes.Buffer
		zw := gzip.NewWriter(&gz)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data = gz.Bytes()
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

// writeDataset writes a synthetic train split of nTrain samples and test
// split of nTest samples into a new directory.
func writeDataset(t *testing.T, nTrain, nTest int) string {
	t.Helper()

	dir := t.TempDir()
	trImg, trLbl := synthSplit(t, nTrain)
	teImg, teLbl := synthSplit(t, nTest)
	writeIDX(t, dir, TrainImagesFile, trImg)
	writeIDX(t, dir, TrainLabelsFile, trLbl)
	writeIDX(t, dir, TestImagesFile, teImg)
	writeIDX(t, dir, TestLabelsFile, teLbl)
	return dir
}
