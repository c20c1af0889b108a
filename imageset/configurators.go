package imageset

import (
	"context"
	"fmt"
)

// Defaults shared by the configurators.
const (
	DefaultBatchSize     = 128
	DefaultEvalBatchSize = 1000
	DefaultMNISTRoot     = ".data/mnist"
	DefaultCIFARRoot     = ".data/cifar"
)

// Loaders groups the loaders a training run needs. TrainEval iterates the
// training split with the evaluation pipeline and is nil for configurators
// that do not provide one.
type Loaders struct {
	Train     *Loader
	Test      *Loader
	TrainEval *Loader
	Classes   []string
}

// MNISTOptions configures MNISTLoaders. Zero values select the defaults.
type MNISTOptions struct {
	Root          string
	BatchSize     int
	EvalBatchSize int
	// SkipDownload fails instead of fetching missing files.
	SkipDownload bool
	Downloader   *Downloader
	Seed         int64
}

// CIFAR10Options configures CIFAR10Loaders. Zero values select the
// defaults.
type CIFAR10Options struct {
	Root          string
	BatchSize     int
	EvalBatchSize int
	SkipDownload  bool
	Downloader    *Downloader
	Seed          int64
}

// FolderOptions configures FolderLoaders. Root is required.
type FolderOptions struct {
	Root          string
	BatchSize     int
	EvalBatchSize int
	// ImageSize, when positive, resizes every image to a square of that
	// side while decoding.
	ImageSize int
	Seed      int64
}

func batchSizes(batch, eval int) (int, int) {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if eval <= 0 {
		eval = DefaultEvalBatchSize
	}
	return batch, eval
}

// seedFor derives distinct seeds for the loaders of one configurator while
// keeping zero as "pick one".
func seedFor(seed int64, k int64) int64 {
	if seed == 0 {
		return 0
	}
	return seed + k
}

func trainEvalPipelines(prefix string) (train, eval Transform, err error) {
	if train, err = Pipeline(prefix + "/train"); err != nil {
		return nil, nil, err
	}
	if eval, err = Pipeline(prefix + "/eval"); err != nil {
		return nil, nil, err
	}
	return train, eval, nil
}

// MNISTLoaders returns shuffled training, unshuffled test and shuffled
// train-eval loaders over MNIST. All three use two workers and drop the
// last incomplete batch. Missing files are downloaded unless SkipDownload
// is set.
func MNISTLoaders(ctx context.Context, opts MNISTOptions) (*Loaders, error) {
	root := opts.Root
	if root == "" {
		root = DefaultMNISTRoot
	}
	batch, eval := batchSizes(opts.BatchSize, opts.EvalBatchSize)

	if !opts.SkipDownload {
		d := opts.Downloader
		if d == nil {
			d = NewDownloader()
		}
		if err := d.EnsureMNIST(ctx, root); err != nil {
			return nil, err
		}
	}

	trainSrc, err := OpenMNIST(root, true)
	if err != nil {
		return nil, err
	}
	testSrc, err := OpenMNIST(root, false)
	if err != nil {
		return nil, err
	}
	trainT, evalT, err := trainEvalPipelines("mnist")
	if err != nil {
		return nil, err
	}

	ls := &Loaders{Classes: trainSrc.Classes()}
	if ls.Train, err = NewLoader(trainSrc, trainT, LoaderOptions{
		BatchSize: batch, Shuffle: true, Workers: 2, DropLast: true, Seed: seedFor(opts.Seed, 0),
	}); err != nil {
		return nil, fmt.Errorf("mnist train loader: %w", err)
	}
	if ls.TrainEval, err = NewLoader(trainSrc, evalT, LoaderOptions{
		BatchSize: eval, Shuffle: true, Workers: 2, DropLast: true, Seed: seedFor(opts.Seed, 1),
	}); err != nil {
		return nil, fmt.Errorf("mnist train-eval loader: %w", err)
	}
	if ls.Test, err = NewLoader(testSrc, evalT, LoaderOptions{
		BatchSize: eval, Workers: 2, DropLast: true, Seed: seedFor(opts.Seed, 2),
	}); err != nil {
		return nil, fmt.Errorf("mnist test loader: %w", err)
	}
	return ls, nil
}

// CIFAR10Loaders returns a shuffled training loader and an unshuffled test
// loader over CIFAR-10, both with three workers and keeping the last
// incomplete batch. TrainEval is nil.
func CIFAR10Loaders(ctx context.Context, opts CIFAR10Options) (*Loaders, error) {
	root := opts.Root
	if root == "" {
		root = DefaultCIFARRoot
	}
	batch, eval := batchSizes(opts.BatchSize, opts.EvalBatchSize)

	if !opts.SkipDownload {
		d := opts.Downloader
		if d == nil {
			d = NewDownloader()
		}
		if err := d.EnsureCIFAR10(ctx, root); err != nil {
			return nil, err
		}
	}

	trainSrc, err := OpenCIFAR10(root, true)
	if err != nil {
		return nil, err
	}
	testSrc, err := OpenCIFAR10(root, false)
	if err != nil {
		return nil, err
	}
	trainT, evalT, err := trainEvalPipelines("cifar10")
	if err != nil {
		return nil, err
	}

	ls := &Loaders{Classes: trainSrc.Classes()}
	if ls.Train, err = NewLoader(trainSrc, trainT, LoaderOptions{
		BatchSize: batch, Shuffle: true, Workers: 3, Seed: seedFor(opts.Seed, 0),
	}); err != nil {
		return nil, fmt.Errorf("cifar10 train loader: %w", err)
	}
	if ls.Test, err = NewLoader(testSrc, evalT, LoaderOptions{
		BatchSize: eval, Workers: 3, Seed: seedFor(opts.Seed, 2),
	}); err != nil {
		return nil, fmt.Errorf("cifar10 test loader: %w", err)
	}
	return ls, nil
}

// FolderLoaders returns training, test and train-eval loaders over a
// single image folder. The folder has no split, so all three iterate the
// same images; only the pipelines, batch sizes and shuffling differ. Every
// loader uses two workers and drops the last incomplete batch.
func FolderLoaders(ctx context.Context, opts FolderOptions) (*Loaders, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("image folder root is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch, eval := batchSizes(opts.BatchSize, opts.EvalBatchSize)

	src, err := OpenFolder(opts.Root, opts.ImageSize)
	if err != nil {
		return nil, err
	}
	trainT, evalT, err := trainEvalPipelines("folder")
	if err != nil {
		return nil, err
	}

	ls := &Loaders{Classes: src.Classes()}
	if ls.Train, err = NewLoader(src, trainT, LoaderOptions{
		BatchSize: batch, Shuffle: true, Workers: 2, DropLast: true, Seed: seedFor(opts.Seed, 0),
	}); err != nil {
		return nil, fmt.Errorf("folder train loader: %w", err)
	}
	if ls.TrainEval, err = NewLoader(src, evalT, LoaderOptions{
		BatchSize: eval, Shuffle: true, Workers: 2, DropLast: true, Seed: seedFor(opts.Seed, 1),
	}); err != nil {
		return nil, fmt.Errorf("folder train-eval loader: %w", err)
	}
	if ls.Test, err = NewLoader(src, evalT, LoaderOptions{
		BatchSize: eval, Workers: 2, DropLast: true, Seed: seedFor(opts.Seed, 2),
	}); err != nil {
		return nil, fmt.Errorf("folder test loader: %w", err)
	}
	return ls, nil
}
