package dataset

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Store serves assembled samples by position within a split. Lazy and eager
// stores must return identical content for the same position.
type Store interface {
	Len() int
	Get(i int) (*Sample, error)
}

// LazyStore assembles each sample on access.
type LazyStore struct {
	assembler *Assembler
	indices   []int
}

// NewLazyStore returns a Store computing samples on demand.
func NewLazyStore(assembler *Assembler, indices []int) *LazyStore {
	return &LazyStore{assembler: assembler, indices: indices}
}

// Len returns the split length.
func (s *LazyStore) Len() int {
	return len(s.indices)
}

// Get assembles the sample at position i.
func (s *LazyStore) Get(i int) (*Sample, error) {
	if i < 0 || i >= len(s.indices) {
		return nil, errors.Errorf("sample position %d out of range [0, %d)", i, len(s.indices))
	}
	return s.assembler.Assemble(s.indices[i])
}

// EagerStore materializes every sample of a split up front and keeps it
// resident. Content is identical to lazy assembly; only the access cost
// moves.
type EagerStore struct {
	samples []*Sample
}

// NewEagerStore assembles all samples, fanning out across frames; each
// frame's computation is pure given its inputs.
func NewEagerStore(assembler *Assembler, indices []int, logger golog.Logger) (*EagerStore, error) {
	samples := make([]*Sample, len(indices))
	var group errgroup.Group
	for i, idx := range indices {
		i, idx := i, idx
		group.Go(func() error {
			sample, err := assembler.Assemble(idx)
			if err != nil {
				return err
			}
			samples[i] = sample
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	logger.Infof("materialized %d samples", len(samples))
	return &EagerStore{samples: samples}, nil
}

// Len returns the split length.
func (s *EagerStore) Len() int {
	return len(s.samples)
}

// Get returns the resident sample at position i.
func (s *EagerStore) Get(i int) (*Sample, error) {
	if i < 0 || i >= len(s.samples) {
		return nil, errors.Errorf("sample position %d out of range [0, %d)", i, len(s.samples))
	}
	return s.samples[i], nil
}
