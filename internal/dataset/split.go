package dataset

import (
	"fmt"
	"strings"
)

// Split selects one of the two disjoint dataset partitions.
type Split int

// Dataset splits.
const (
	Train Split = iota
	Test
)

// String returns "train" or "test".
func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("Split(%d)", int(s))
	}
}

// ParseSplit parses "train" or "test" (case-insensitive; "t10k" is accepted
// for test).
func ParseSplit(s string) (Split, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "train":
		return Train, nil
	case "test", "t10k":
		return Test, nil
	default:
		return 0, fmt.Errorf("unknown split %q (want train or test)", s)
	}
}

func (s Split) files() (images, labels string, err error) {
	switch s {
	case Train:
		return TrainImagesFile, TrainLabelsFile, nil
	case Test:
		return TestImagesFile, TestLabelsFile, nil
	default:
		return "", "", fmt.Errorf("unknown split %v", s)
	}
}
