// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides the MNIST handwritten-digit dataset as tensors.
//
// Files are downloaded on first use from the configured base URL into a
// flat cache directory and decoded on every call.
//
// Example usage:
//
//	ctx := context.Background()
//
//	// Package-level accessors use MNIST_BASE_URL and MNIST_CACHE_DIR.
//	images, err := dataset.TrainImages(ctx) // (60000, 28, 28) uint8
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Explicit configuration, e.g. a mirror and a project cache.
//	f := dataset.NewFetcher(dataset.FetchConfig{
//	    BaseURL:  "https://storage.googleapis.com/cvdf-datasets/mnist/",
//	    CacheDir: "./data",
//	})
//	l := dataset.New(f)
//	s := dataset.NewSampler(l, dataset.SamplerConfig{Seed: 1})
//
//	// 5 threes followed by 2 sevens.
//	imgs, labels, err := s.SampleTrain(ctx, dataset.NewCounts(
//	    dataset.LabelCount{Label: 3, Count: 5},
//	    dataset.LabelCount{Label: 7, Count: 2},
//	))
package dataset

import (
	"context"
	"sync"

	"github.com/born-ml/mnist/internal/dataset"
	"github.com/born-ml/mnist/internal/fetch"
	"github.com/born-ml/mnist/tensor"
)

// Canonical dataset file names.
const (
	TrainImagesFile = dataset.TrainImagesFile
	TrainLabelsFile = dataset.TrainLabelsFile
	TestImagesFile  = dataset.TestImagesFile
	TestLabelsFile  = dataset.TestLabelsFile
)

// DefaultBaseURL is the canonical MNIST distribution host.
const DefaultBaseURL = fetch.DefaultBaseURL

// Split selects the train or test partition.
type Split = dataset.Split

// Dataset splits.
const (
	Train Split = dataset.Train
	Test  Split = dataset.Test
)

// Loader exposes the four dataset files as tensors.
type Loader = dataset.Loader

// Sampler draws label-balanced subsets.
type Sampler = dataset.Sampler

// SamplerConfig configures a Sampler.
type SamplerConfig = dataset.SamplerConfig

// Counts is an insertion-ordered label to count mapping.
type Counts = dataset.Counts

// LabelCount is one entry of Counts.
type LabelCount = dataset.LabelCount

// OverRequestError reports a count above a label's population.
type OverRequestError = dataset.OverRequestError

// Fetcher downloads dataset files into a cache directory.
type Fetcher = fetch.Fetcher

// FetchConfig configures a Fetcher.
type FetchConfig = fetch.Config

// Errors.
var (
	ErrDownloadFailed   = fetch.ErrDownloadFailed
	ErrCacheWriteFailed = fetch.ErrCacheWriteFailed
	ErrOverRequest      = dataset.ErrOverRequest
	ErrInvalidCount     = dataset.ErrInvalidCount
	ErrLabelMismatch    = dataset.ErrLabelMismatch
)

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetchConfig) *Fetcher {
	return fetch.New(cfg)
}

// New creates a Loader reading through f.
func New(f *Fetcher) *Loader {
	return dataset.New(f)
}

// NewSampler creates a Sampler reading from l.
func NewSampler(l *Loader, cfg SamplerConfig) *Sampler {
	return dataset.NewSampler(l, cfg)
}

// NewCounts builds an ordered Counts mapping.
func NewCounts(pairs ...LabelCount) *Counts {
	return dataset.NewCounts(pairs...)
}

// ParseSplit parses "train" or "test".
func ParseSplit(s string) (Split, error) {
	return dataset.ParseSplit(s)
}

// ClassCounts returns the number of samples per label.
func ClassCounts(labels *tensor.RawTensor) map[int]int {
	return dataset.ClassCounts(labels)
}

var (
	defaultOnce    sync.Once
	defaultLoader  *Loader
	defaultSampler *Sampler
)

func defaults() (*Loader, *Sampler) {
	defaultOnce.Do(func() {
		defaultLoader = dataset.New(fetch.FromEnv())
		defaultSampler = dataset.NewSampler(defaultLoader, dataset.DefaultSamplerConfig())
	})
	return defaultLoader, defaultSampler
}

// Default returns the Loader configured from the environment.
func Default() *Loader {
	l, _ := defaults()
	return l
}

// Fetch downloads name into cacheDir unless it is already there or force
// is set, and returns its path. An empty cacheDir means the system
// temporary directory; the base URL comes from MNIST_BASE_URL.
func Fetch(ctx context.Context, name, cacheDir string, force bool) (string, error) {
	f := fetch.FromEnv()
	if cacheDir != "" {
		f = fetch.New(fetch.Config{BaseURL: f.BaseURL(), CacheDir: cacheDir})
	}
	return f.Fetch(ctx, name, force)
}

// TrainImages returns the training images from the default Loader.
func TrainImages(ctx context.Context) (*tensor.RawTensor, error) {
	return Default().TrainImages(ctx)
}

// TrainLabels returns the training labels from the default Loader.
func TrainLabels(ctx context.Context) (*tensor.RawTensor, error) {
	return Default().TrainLabels(ctx)
}

// TestImages returns the test images from the default Loader.
func TestImages(ctx context.Context) (*tensor.RawTensor, error) {
	return Default().TestImages(ctx)
}

// TestLabels returns the test labels from the default Loader.
func TestLabels(ctx context.Context) (*tensor.RawTensor, error) {
	return Default().TestLabels(ctx)
}

// SampleTrain samples from the training split with the shared default
// Sampler. Its generator is seeded once (MNIST_SEED, default 1) and
// advanced by every call.
func SampleTrain(ctx context.Context, counts *Counts) (images, labels *tensor.RawTensor, err error) {
	_, s := defaults()
	return s.SampleTrain(ctx, counts)
}

// SampleTest samples from the test split with the shared default Sampler.
func SampleTest(ctx context.Context, counts *Counts) (images, labels *tensor.RawTensor, err error) {
	_, s := defaults()
	return s.SampleTest(ctx, counts)
}
