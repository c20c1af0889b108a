package imageset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"golang.org/x/sync/errgroup"
)

// LoaderOptions controls batching.
type LoaderOptions struct {
	BatchSize int
	Shuffle   bool
	// Workers is the number of goroutines that decode and transform the
	// examples of one batch. Values below 1 mean 1.
	Workers int
	// DropLast discards a trailing batch smaller than BatchSize.
	DropLast bool
	// Seed for shuffling and augmentation. Zero picks a time based seed.
	Seed int64
}

// ImageBatch holds transformed frames and their class indices.
type ImageBatch struct {
	Frames []*Frame
	Labels []int32
	Index  int
}

// Len returns the number of examples in the batch.
func (b *ImageBatch) Len() int {
	return len(b.Frames)
}

// ToGomlxTensors stacks the frames into a float32 tensor shaped
// [N, C, H, W] and the labels into an int32 tensor shaped [N].
func (b *ImageBatch) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if len(b.Frames) == 0 {
		return nil, nil, errors.New("empty batch")
	}
	first := b.Frames[0]
	size := len(first.Pix)
	flat := make([]float32, 0, size*len(b.Frames))
	for i, f := range b.Frames {
		if !f.SameShape(first) {
			return nil, nil, fmt.Errorf("frame %d is %s, frame 0 is %s", i, f, first)
		}
		flat = append(flat, f.Pix...)
	}
	x := tensors.FromFlatDataAndDimensions(flat, len(b.Frames), first.Channels, first.Height, first.Width)
	y := tensors.FromFlatDataAndDimensions(append([]int32(nil), b.Labels...), len(b.Labels))
	return x, y, nil
}

// Loader produces mini-batches from a Source, applying a transform to
// every example. A Loader is not safe for concurrent use; the concurrency
// lives inside Next.
type Loader struct {
	src       Source
	transform Transform
	opts      LoaderOptions

	rng   *rand.Rand
	order []int
	pos   int
	batch int
}

var _ train.Dataset = (*Loader)(nil)

// NewLoader returns a loader positioned at the start of the first epoch. A
// nil transform passes frames through unchanged.
func NewLoader(src Source, transform Transform, opts LoaderOptions) (*Loader, error) {
	if src == nil {
		return nil, errors.New("nil source")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	l := &Loader{
		src:       src,
		transform: transform,
		opts:      opts,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		order:     make([]int, src.Len()),
	}
	l.Reset()
	return l, nil
}

// Source returns the underlying dataset.
func (l *Loader) Source() Source {
	return l.src
}

// Options returns the effective options.
func (l *Loader) Options() LoaderOptions {
	return l.opts
}

// Transform returns the augmentation pipeline, possibly nil.
func (l *Loader) Transform() Transform {
	return l.transform
}

// NumBatches returns the number of batches in one epoch.
func (l *Loader) NumBatches() int {
	n := l.src.Len()
	if l.opts.DropLast {
		return n / l.opts.BatchSize
	}
	return (n + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Reset starts a new epoch, reshuffling when enabled.
func (l *Loader) Reset() {
	for i := range l.order {
		l.order[i] = i
	}
	if l.opts.Shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
	l.batch = 0
}

// Next returns the next batch of the epoch, or io.EOF once it is
// exhausted.
func (l *Loader) Next(ctx context.Context) (*ImageBatch, error) {
	remaining := len(l.order) - l.pos
	if remaining <= 0 || (l.opts.DropLast && remaining < l.opts.BatchSize) {
		return nil, io.EOF
	}
	n := min(remaining, l.opts.BatchSize)
	indices := l.order[l.pos : l.pos+n]

	// Seeds are drawn up front so the result does not depend on worker
	// scheduling.
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = l.rng.Int63()
	}

	b := &ImageBatch{
		Frames: make([]*Frame, n),
		Labels: make([]int32, n),
		Index:  l.batch,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for i, idx := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, label, err := l.src.Example(idx)
			if err != nil {
				return fmt.Errorf("%s example %d: %w", l.src.Name(), idx, err)
			}
			if l.transform != nil {
				f, err = l.transform.Apply(f, rand.New(rand.NewSource(seeds[i])))
				if err != nil {
					return fmt.Errorf("%s example %d: %w", l.src.Name(), idx, err)
				}
			}
			b.Frames[i] = f
			b.Labels[i] = int32(label)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.pos += n
	l.batch++
	return b, nil
}

// Name implements train.Dataset.
func (l *Loader) Name() string {
	return l.src.Name()
}

// Yield implements train.Dataset. The spec returned is the *ImageBatch.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	b, err := l.Next(context.Background())
	if err != nil {
		return nil, nil, nil, err
	}
	x, y, err := b.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return b, []*tensors.Tensor{x}, []*tensors.Tensor{y}, nil
}
