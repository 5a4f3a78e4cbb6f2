// Package dataset exposes the MNIST train and test splits as tensors and
// builds label-balanced subsets of them.
//
// Files are fetched on demand and cached on disk; decoded tensors are not
// cached, so every accessor call re-reads and re-decodes its file.
package dataset

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/born-ml/mnist/internal/idx"
	"github.com/born-ml/mnist/internal/tensor"
)

// Canonical dataset file names.
const (
	TrainImagesFile = "train-images-idx3-ubyte.gz"
	TrainLabelsFile = "train-labels-idx1-ubyte.gz"
	TestImagesFile  = "t10k-images-idx3-ubyte.gz"
	TestLabelsFile  = "t10k-labels-idx1-ubyte.gz"
)

// Files lists every canonical file name.
var Files = []string{TrainImagesFile, TrainLabelsFile, TestImagesFile, TestLabelsFile}

// Fetcher resolves a file name to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, name string, force bool) (string, error)
}

// Loader composes fetching, decompression and IDX decoding.
type Loader struct {
	fetcher Fetcher
}

// New creates a Loader backed by f.
func New(f Fetcher) *Loader {
	return &Loader{fetcher: f}
}

// TrainImages returns the training images, shaped (sample, row, col).
func (l *Loader) TrainImages(ctx context.Context) (*tensor.RawTensor, error) {
	return l.LoadFile(ctx, TrainImagesFile)
}

// TrainLabels returns the training labels, shaped (sample,).
func (l *Loader) TrainLabels(ctx context.Context) (*tensor.RawTensor, error) {
	return l.LoadFile(ctx, TrainLabelsFile)
}

// TestImages returns the test images, shaped (sample, row, col).
func (l *Loader) TestImages(ctx context.Context) (*tensor.RawTensor, error) {
	return l.LoadFile(ctx, TestImagesFile)
}

// TestLabels returns the test labels, shaped (sample,).
func (l *Loader) TestLabels(ctx context.Context) (*tensor.RawTensor, error) {
	return l.LoadFile(ctx, TestLabelsFile)
}

// Images returns the images of the given split.
func (l *Loader) Images(ctx context.Context, s Split) (*tensor.RawTensor, error) {
	name, _, err := s.files()
	if err != nil {
		return nil, err
	}
	return l.LoadFile(ctx, name)
}

// Labels returns the labels of the given split.
func (l *Loader) Labels(ctx context.Context, s Split) (*tensor.RawTensor, error) {
	_, name, err := s.files()
	if err != nil {
		return nil, err
	}
	return l.LoadFile(ctx, name)
}

// LoadFile fetches name and decodes it. Fetch and decode errors are
// returned unchanged.
func (l *Loader) LoadFile(ctx context.Context, name string) (*tensor.RawTensor, error) {
	path, err := l.fetcher.Fetch(ctx, name, false)
	if err != nil {
		return nil, err
	}

	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return idx.Decode(rc)
}

// Open opens a dataset file, decompressing it transparently when the name
// ends in ".gz".
//
//nolint:gosec // G304: path comes from the fetcher's cache directory.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

// gzipFile closes both the decompressor and the underlying file.
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}
