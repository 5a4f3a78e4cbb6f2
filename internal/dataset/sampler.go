package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/mnist/internal/envconfig"
	"github.com/born-ml/mnist/internal/tensor"
)

// Sampler errors.
var (
	ErrOverRequest   = errors.New("requested more samples than available")
	ErrInvalidCount  = errors.New("sample count must not be negative")
	ErrLabelMismatch = errors.New("labels do not match images")
)

// OverRequestError reports a label whose requested count exceeds the
// number of samples carrying that label.
type OverRequestError struct {
	Split     Split
	Label     int
	Requested int
	Available int
}

// Error implements the error interface.
func (e *OverRequestError) Error() string {
	return fmt.Sprintf("%v: label %d in %s split: requested %d, available %d",
		ErrOverRequest, e.Label, e.Split, e.Requested, e.Available)
}

// Unwrap returns ErrOverRequest.
func (e *OverRequestError) Unwrap() error {
	return ErrOverRequest
}

// Counts maps a label to the number of samples to draw for it. Labels are
// sampled in insertion order.
type Counts = orderedmap.OrderedMap[int, int]

// LabelCount is one entry of a Counts mapping.
type LabelCount struct {
	Label int
	Count int
}

// NewCounts builds a Counts mapping from pairs, in order. A repeated label
// keeps its first position and takes the last count.
func NewCounts(pairs ...LabelCount) *Counts {
	c := orderedmap.New[int, int]()
	for _, p := range pairs {
		c.Set(p.Label, p.Count)
	}
	return c
}

// SamplerConfig configures a Sampler.
type SamplerConfig struct {
	// Seed seeds the generator when Rand is nil.
	Seed int64

	// Rand, when set, is used instead of a generator seeded from Seed.
	Rand *rand.Rand
}

// DefaultSamplerConfig returns a config seeded from the environment.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{Seed: envconfig.Seed()}
}

// Sampler draws label-balanced subsets from a Loader.
//
// A Sampler owns one random generator and every call advances it: results
// are reproducible for a fixed sequence of calls on a Sampler created with
// the same seed, not for a single call in isolation.
type Sampler struct {
	loader *Loader

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSampler creates a Sampler reading from l.
func NewSampler(l *Loader, cfg SamplerConfig) *Sampler {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Intentional deterministic seed for reproducibility
	}
	return &Sampler{loader: l, rng: rng}
}

// SampleTrain samples from the training split.
func (s *Sampler) SampleTrain(ctx context.Context, counts *Counts) (images, labels *tensor.RawTensor, err error) {
	return s.Sample(ctx, counts, Train)
}

// SampleTest samples from the test split.
func (s *Sampler) SampleTest(ctx context.Context, counts *Counts) (images, labels *tensor.RawTensor, err error) {
	return s.Sample(ctx, counts, Test)
}

// Sample draws, for each label in counts and in its order, the requested
// number of distinct samples of that label uniformly at random, and
// concatenates them. The images' leading dimension is the sum of counts;
// labels holds each requested label repeated count times.
//
// Every count is checked against the label's population in the split
// before the images are loaded or anything is drawn; an excess fails with
// an *OverRequestError.
func (s *Sampler) Sample(ctx context.Context, counts *Counts, split Split) (images, labels *tensor.RawTensor, err error) {
	if counts == nil {
		counts = NewCounts()
	}

	allLabels, err := s.loader.Labels(ctx, split)
	if err != nil {
		return nil, nil, err
	}
	byLabel, err := checkCounts(allLabels, counts, split)
	if err != nil {
		return nil, nil, err
	}

	allImages, err := s.loader.Images(ctx, split)
	if err != nil {
		return nil, nil, err
	}
	return s.gather(allImages, allLabels, byLabel, counts)
}

func (s *Sampler) sampleFrom(allImages, allLabels *tensor.RawTensor, counts *Counts, split Split) (images, labels *tensor.RawTensor, err error) {
	if counts == nil {
		counts = NewCounts()
	}
	byLabel, err := checkCounts(allLabels, counts, split)
	if err != nil {
		return nil, nil, err
	}
	return s.gather(allImages, allLabels, byLabel, counts)
}

// checkCounts validates counts against the label population of a split and
// returns the sample indices of each label.
func checkCounts(allLabels *tensor.RawTensor, counts *Counts, split Split) (map[int][]int, error) {
	if len(allLabels.Shape()) != 1 {
		return nil, fmt.Errorf("%w: labels have shape %v, want rank 1", ErrLabelMismatch, allLabels.Shape())
	}

	byLabel := indicesByLabel(allLabels)
	for pair := counts.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value < 0 {
			return nil, fmt.Errorf("%w: label %d: %d", ErrInvalidCount, pair.Key, pair.Value)
		}
		if available := len(byLabel[pair.Key]); pair.Value > available {
			return nil, &OverRequestError{Split: split, Label: pair.Key, Requested: pair.Value, Available: available}
		}
	}
	return byLabel, nil
}

// gather draws the checked counts and copies the selected samples.
func (s *Sampler) gather(allImages, allLabels *tensor.RawTensor, byLabel map[int][]int, counts *Counts) (images, labels *tensor.RawTensor, err error) {
	if len(allImages.Shape()) == 0 || allImages.Shape()[0] != allLabels.Shape()[0] {
		return nil, nil, fmt.Errorf("%w: %v images, %v labels", ErrLabelMismatch, allImages.Shape(), allLabels.Shape())
	}

	total := 0
	for pair := counts.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}

	picked := make([]int, 0, total)
	s.mu.Lock()
	for pair := counts.Oldest(); pair != nil; pair = pair.Next() {
		picked = append(picked, s.draw(byLabel[pair.Key], pair.Value)...)
	}
	s.mu.Unlock()

	if images, err = allImages.Gather(picked); err != nil {
		return nil, nil, err
	}
	if labels, err = allLabels.Gather(picked); err != nil {
		return nil, nil, err
	}
	return images, labels, nil
}

// draw returns k distinct elements of pool in the order drawn, using a
// partial Fisher-Yates shuffle on a copy.
func (s *Sampler) draw(pool []int, k int) []int {
	p := make([]int, len(pool))
	copy(p, pool)
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(len(p)-i)
		p[i], p[j] = p[j], p[i]
	}
	return p[:k]
}

// indicesByLabel groups sample indices by label value.
func indicesByLabel(labels *tensor.RawTensor) map[int][]int {
	out := make(map[int][]int)
	for i, v := range labels.Float64s() {
		out[int(v)] = append(out[int(v)], i)
	}
	return out
}

// ClassCounts returns the number of samples per label.
func ClassCounts(labels *tensor.RawTensor) map[int]int {
	out := make(map[int]int)
	for _, v := range labels.Float64s() {
		out[int(v)]++
	}
	return out
}
