package datasets

import (
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// BatchOptions controls BatchIter.
type BatchOptions struct {
	// BatchSize is the maximum number of rows per batch.
	BatchSize int

	// Epochs is the number of passes over the data. Values below 2 give a
	// single pass.
	Epochs int

	// Shuffle draws a fresh permutation of the rows at the start of every
	// epoch.
	Shuffle bool

	// Seed for the shuffle permutation. Zero picks a time-based seed.
	Seed int64
}

// Batch is one mini-batch split back into samples and labels.
//
// Rows alias the matrix given to NewBatchIter; callers must not modify them.
type Batch struct {
	Samples [][]int32
	Labels  [][]int32

	// Epoch and Index locate the batch within the iteration, both zero-based.
	Epoch int
	Index int
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int {
	return len(b.Samples)
}

// ToGomlxTensors converts the batch to int32 tensors shaped
// [rows, sampleWidth] and [rows, labelWidth].
func (b *Batch) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if len(b.Samples) == 0 {
		return nil, nil, errors.New("cannot convert an empty batch")
	}
	if len(b.Samples) != len(b.Labels) {
		return nil, nil, fmt.Errorf("samples and labels batch sizes don't match: %d != %d", len(b.Samples), len(b.Labels))
	}
	samples, sampleWidth, err := flatten(b.Samples)
	if err != nil {
		return nil, nil, fmt.Errorf("samples: %w", err)
	}
	labels, labelWidth, err := flatten(b.Labels)
	if err != nil {
		return nil, nil, fmt.Errorf("labels: %w", err)
	}
	inT := tensors.FromFlatDataAndDimensions(samples, len(b.Samples), sampleWidth)
	labT := tensors.FromFlatDataAndDimensions(labels, len(b.Labels), labelWidth)
	return inT, labT, nil
}

// flatten copies equal-width rows into one contiguous buffer.
func flatten(rows [][]int32) ([]int32, int, error) {
	width := len(rows[0])
	flat := make([]int32, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, 0, fmt.Errorf("inconsistent row width at %d: expected %d, got %d", i, width, len(row))
		}
		copy(flat[i*width:], row)
	}
	return flat, width, nil
}

// BatchIter walks a combined samples+labels matrix in mini-batches.
//
// Each epoch covers every row exactly once in ceil(N/BatchSize) batches; the
// last batch of an epoch may be short. Each batch row is split at column
// seqLen: columns before it are the sample, the rest the label.
type BatchIter struct {
	data    [][]int32
	seqLen  int
	opts    BatchOptions
	epochs  int
	rand    *rand.Rand
	order   []int
	epoch   int
	pos     int
	batchNo int
}

// NewBatchIter validates data and returns an iterator positioned before the
// first batch.
func NewBatchIter(data [][]int32, seqLen int, opts BatchOptions) (*BatchIter, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if seqLen < 0 {
		return nil, fmt.Errorf("sequence length must not be negative, got %d", seqLen)
	}
	for i, row := range data {
		if len(row) < seqLen {
			return nil, fmt.Errorf("row %d has %d columns, fewer than sequence length %d", i, len(row), seqLen)
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	epochs := opts.Epochs
	if epochs < 1 {
		epochs = 1
	}

	it := &BatchIter{
		data:   data,
		seqLen: seqLen,
		opts:   opts,
		epochs: epochs,
		rand:   rand.New(rand.NewSource(seed)),
		order:  make([]int, len(data)),
	}
	it.startEpoch(0)
	return it, nil
}

// NumBatches returns the number of batches in one epoch.
func (it *BatchIter) NumBatches() int {
	if len(it.data) == 0 {
		return 0
	}
	return (len(it.data)-1)/it.opts.BatchSize + 1
}

// Epochs returns the number of passes the iterator makes.
func (it *BatchIter) Epochs() int {
	return it.epochs
}

func (it *BatchIter) startEpoch(epoch int) {
	it.epoch = epoch
	it.pos = 0
	it.batchNo = 0
	if it.opts.Shuffle {
		copy(it.order, it.rand.Perm(len(it.data)))
		return
	}
	for i := range it.order {
		it.order[i] = i
	}
}

// Next returns the next batch, or false once every epoch is exhausted.
func (it *BatchIter) Next() (*Batch, bool) {
	if it.pos >= len(it.data) {
		if it.epoch+1 >= it.epochs || len(it.data) == 0 {
			return nil, false
		}
		it.startEpoch(it.epoch + 1)
	}

	end := min(it.pos+it.opts.BatchSize, len(it.data))
	idx := it.order[it.pos:end]
	b := &Batch{
		Samples: make([][]int32, len(idx)),
		Labels:  make([][]int32, len(idx)),
		Epoch:   it.epoch,
		Index:   it.batchNo,
	}
	for i, r := range idx {
		row := it.data[r]
		b.Samples[i] = row[:it.seqLen:it.seqLen]
		b.Labels[i] = row[it.seqLen:]
	}
	it.pos = end
	it.batchNo++
	return b, true
}

// Reset rewinds to the first epoch. A shuffling iterator draws a new
// permutation.
func (it *BatchIter) Reset() {
	it.startEpoch(0)
}

// All yields the remaining batches.
func (it *BatchIter) All() iter.Seq[*Batch] {
	return func(yield func(*Batch) bool) {
		for {
			b, ok := it.Next()
			if !ok || !yield(b) {
				return
			}
		}
	}
}
