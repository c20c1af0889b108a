package datasets

// This package loads labeled text datasets (AG News layout: one CSV per split
// plus a classes manifest) into memory as fixed-width integer rows, and cuts
// them into mini-batches for training loops.
//
// Layout and intended usage:
//
// TextDataset
//   - Built by LoadTextCSV from a single CSV split
//   - Samples: one []int32 row of textenc codes per CSV row, width SeqLen
//   - Labels: one []int32 row per CSV row, either the zero-based class index
//     (width 1) or a one-hot vector (width NumClasses)
//
// TextBundle
//   - Built by LoadTextBundle from a directory holding classes.txt,
//     train.csv and test.csv
//
// BatchIter
//   - Walks a combined samples+labels matrix in mini-batches, splitting each
//     batch back into samples and labels at the SeqLen column
//   - TensorDataset wraps it as a gomlx train.Dataset
//
// Notes on gomlx tensors:
//   - Batches convert to int32 tensors of shape [batch, SeqLen] and
//     [batch, labelWidth] through Batch.ToGomlxTensors.

// Dataset is the random-access view shared by the in-memory text datasets.
// Training code that only needs indexed access should accept this interface
// rather than *TextDataset.
type Dataset interface {
	Len() int
	Example(i int) (sample []int32, label []int32, err error)
	Batch(indices []int) (samples [][]int32, labels [][]int32, err error)
	Shuffle(seed int64)
}

var _ Dataset = (*TextDataset)(nil)
