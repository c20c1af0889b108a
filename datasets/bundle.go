package datasets

import (
	"fmt"
	"path/filepath"

	"github.com/Noofbiz/dataFeed/internal/log"
	"github.com/Noofbiz/dataFeed/textenc"
)

// File names expected inside a bundle directory.
const (
	ClassesFile = "classes.txt"
	TrainFile   = "train.csv"
	TestFile    = "test.csv"
)

// BundleOptions controls LoadTextBundle.
type BundleOptions struct {
	// TrainCapacity and TestCapacity are the declared row counts of the two
	// splits. Zero sizes the split to its file.
	TrainCapacity int
	TestCapacity  int

	OneHot    bool
	TextField TextField
}

// DefaultBundleOptions declares the AG News split sizes.
func DefaultBundleOptions() BundleOptions {
	return BundleOptions{
		TrainCapacity: TrainRows,
		TestCapacity:  TestRows,
	}
}

// TextBundle is a train/test pair sharing one class list.
type TextBundle struct {
	Classes []string
	Train   *TextDataset
	Test    *TextDataset
}

// LoadTextBundle reads dir/classes.txt to find the class count, then loads
// dir/train.csv and dir/test.csv with enc.
func LoadTextBundle(dir string, enc *textenc.Encoder, opts BundleOptions) (*TextBundle, error) {
	classes, err := readLines(filepath.Join(dir, ClassesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read class list: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("class list %s is empty", filepath.Join(dir, ClassesFile))
	}

	train, err := LoadTextCSV(filepath.Join(dir, TrainFile), enc, TextCSVOptions{
		NumClasses: len(classes),
		Capacity:   opts.TrainCapacity,
		OneHot:     opts.OneHot,
		TextField:  opts.TextField,
	})
	if err != nil {
		return nil, err
	}

	test, err := LoadTextCSV(filepath.Join(dir, TestFile), enc, TextCSVOptions{
		NumClasses: len(classes),
		Capacity:   opts.TestCapacity,
		OneHot:     opts.OneHot,
		TextField:  opts.TextField,
	})
	if err != nil {
		return nil, err
	}

	logger := log.WithComponent("datasets")
	logger.Info().
		Str("dir", dir).
		Int("classes", len(classes)).
		Ints("train_shape", []int{train.Len(), train.SeqLen}).
		Ints("test_shape", []int{test.Len(), test.SeqLen}).
		Msg("loaded text bundle")

	return &TextBundle{Classes: classes, Train: train, Test: test}, nil
}
