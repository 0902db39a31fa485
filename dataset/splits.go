// Package dataset assembles per-frame training, validation, and animation
// samples: camera tensors, compacted ray batches, patch selections, and
// canonical-frame body transforms.
package dataset

import (
	"sort"

	"github.com/pkg/errors"
)

// Splits partitions n capture indices into train/val/test subsets. Every
// fifth frame (center-offset, evenly strided) is held out; the first half of
// the holdout becomes the test set and the second half the validation set.
// The three sets are disjoint and cover all n indices.
func Splits(n int) (train, val, test []int, err error) {
	if n <= 0 {
		return nil, nil, nil, errors.Errorf("cannot split %d captures", n)
	}
	numHoldout := n / 5
	if numHoldout < 2 {
		return nil, nil, nil, errors.Errorf("scene with %d captures is too short to produce non-empty splits", n)
	}
	stride := n / numHoldout
	offset := stride / 2

	var holdout []int
	held := make(map[int]bool, numHoldout)
	for i := offset; i < n; i += stride {
		holdout = append(holdout, i)
		held[i] = true
	}
	test = holdout[:len(holdout)/2]
	val = holdout[len(holdout)/2:]
	for i := 0; i < n; i++ {
		if !held[i] {
			train = append(train, i)
		}
	}
	sort.Ints(train)

	if len(train) == 0 || len(val) == 0 || len(test) == 0 {
		return nil, nil, nil, errors.Errorf(
			"degenerate split for %d captures (train=%d val=%d test=%d)", n, len(train), len(val), len(test))
	}
	return train, val, test, nil
}
