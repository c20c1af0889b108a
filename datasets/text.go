package datasets

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Noofbiz/dataFeed/internal/log"
	"github.com/Noofbiz/dataFeed/textenc"
)

// Row counts of the AG News splits. The bundle loader declares these as the
// capacity of the train and test arrays.
const (
	TrainRows = 120000
	TestRows  = 7600
)

// ErrCapacityExceeded is returned when a CSV split holds more rows than the
// capacity declared for it.
var ErrCapacityExceeded = errors.New("row capacity exceeded")

// TextField selects which text fields of a row are encoded.
type TextField int

const (
	// TextFieldLast encodes only the last field of the row (the description
	// column in AG News).
	TextFieldLast TextField = iota
	// TextFieldJoin joins every field after the label with a single space.
	TextFieldJoin
)

// TextCSVOptions controls LoadTextCSV.
type TextCSVOptions struct {
	// NumClasses is the number of classes. Class labels in the file are
	// 1-based and must fall in [1, NumClasses]. Zero disables the range check
	// (not allowed together with OneHot).
	NumClasses int

	// Capacity is the declared number of rows. Zero means the dataset is sized
	// to the file. When the file is shorter the dataset is padded with
	// all-zero rows; when it is longer loading fails with
	// ErrCapacityExceeded.
	Capacity int

	// OneHot stores labels as one-hot rows of width NumClasses instead of a
	// single zero-based class index.
	OneHot bool

	// TextField selects the encoded text. Defaults to TextFieldLast.
	TextField TextField
}

// TextDataset holds an encoded CSV split in memory.
type TextDataset struct {
	// Name of the source, usually the file path.
	Name string

	// Samples has one row of SeqLen codes per example.
	Samples [][]int32

	// Labels has one row per example: width 1 (class index) or NumClasses
	// (one-hot).
	Labels [][]int32

	// Rows is the number of rows read from the file. It is smaller than
	// Len() when the declared capacity was larger than the file.
	Rows int

	SeqLen     int
	NumClasses int
	OneHot     bool

	rand *rand.Rand
}

// LoadTextCSV reads a headerless CSV file whose rows are "class,text..." and
// encodes every row with enc after lowercasing the text.
func LoadTextCSV(path string, enc *textenc.Encoder, opts TextCSVOptions) (*TextDataset, error) {
	if enc == nil {
		return nil, errors.New("encoder is nil")
	}
	if opts.OneHot && opts.NumClasses <= 0 {
		return nil, fmt.Errorf("one-hot labels need a positive class count, got %d", opts.NumClasses)
	}
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("capacity must not be negative, got %d", opts.Capacity)
	}

	capacity := opts.Capacity
	if capacity == 0 {
		// Size the backing arrays to the file so rows are allocated once.
		n, err := countCSVRows(path)
		if err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", path, err)
		}
		capacity = n
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer file.Close()

	ds := newTextDataset(path, enc.MaxLen(), capacity, opts)
	if err := ds.read(file, enc, opts); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if ds.Rows < ds.Len() {
		logger := log.WithComponent("datasets")
		logger.Warn().
			Str("file", path).
			Int("rows", ds.Rows).
			Int("capacity", ds.Len()).
			Msg("declared capacity exceeds file rows; trailing rows are zero with label class 0")
	}
	return ds, nil
}

// newTextDataset allocates zeroed sample and label rows backed by two flat
// buffers.
func newTextDataset(name string, seqLen, capacity int, opts TextCSVOptions) *TextDataset {
	labelWidth := 1
	if opts.OneHot {
		labelWidth = opts.NumClasses
	}

	sampleBuf := make([]int32, capacity*seqLen)
	labelBuf := make([]int32, capacity*labelWidth)
	samples := make([][]int32, capacity)
	labels := make([][]int32, capacity)
	for i := range capacity {
		samples[i] = sampleBuf[i*seqLen : (i+1)*seqLen : (i+1)*seqLen]
		labels[i] = labelBuf[i*labelWidth : (i+1)*labelWidth : (i+1)*labelWidth]
	}

	return &TextDataset{
		Name:       name,
		Samples:    samples,
		Labels:     labels,
		SeqLen:     seqLen,
		NumClasses: opts.NumClasses,
		OneHot:     opts.OneHot,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *TextDataset) read(r io.Reader, enc *textenc.Encoder, opts TextCSVOptions) error {
	reader := newCSVReader(r)

	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read row %d: %w", i, err)
		}
		if i >= len(d.Samples) {
			return fmt.Errorf("%w: row %d does not fit capacity %d", ErrCapacityExceeded, i, len(d.Samples))
		}
		if len(record) < 2 {
			return fmt.Errorf("row %d has %d fields, want a label and at least one text field", i, len(record))
		}

		class, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return fmt.Errorf("row %d: failed to parse class %q: %w", i, record[0], err)
		}
		if class < 1 {
			return fmt.Errorf("row %d: class %d must be at least 1", i, class)
		}
		if opts.OneHot && class > opts.NumClasses {
			return fmt.Errorf("row %d: class %d out of range [1, %d]", i, class, opts.NumClasses)
		}

		if opts.OneHot {
			d.Labels[i][class-1] = 1
		} else {
			d.Labels[i][0] = int32(class - 1)
		}

		var text string
		switch opts.TextField {
		case TextFieldJoin:
			text = strings.Join(record[1:], " ")
		default:
			text = record[len(record)-1]
		}
		if err := enc.EncodeInto(d.Samples[i], textenc.Lower(text)); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		d.Rows++
	}
	return nil
}

// Len returns the number of rows, including any capacity padding.
func (d *TextDataset) Len() int {
	return len(d.Samples)
}

// LabelWidth returns the number of columns of each label row.
func (d *TextDataset) LabelWidth() int {
	if d.OneHot {
		return d.NumClasses
	}
	return 1
}

// Example returns the sample and label rows at index idx. The returned slices
// alias the dataset storage.
func (d *TextDataset) Example(idx int) (sample []int32, label []int32, err error) {
	if idx < 0 || idx >= len(d.Samples) {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.Samples))
	}
	return d.Samples[idx], d.Labels[idx], nil
}

// Batch gathers the rows at indices.
func (d *TextDataset) Batch(indices []int) ([][]int32, [][]int32, error) {
	samples := make([][]int32, len(indices))
	labels := make([][]int32, len(indices))
	for i, idx := range indices {
		s, l, err := d.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		samples[i] = s
		labels[i] = l
	}
	return samples, labels, nil
}

// Shuffle permutes samples and labels together. Zero picks a time-based
// seed.
func (d *TextDataset) Shuffle(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	d.rand.Seed(seed)
	d.rand.Shuffle(len(d.Samples), func(i, j int) {
		d.Samples[i], d.Samples[j] = d.Samples[j], d.Samples[i]
		d.Labels[i], d.Labels[j] = d.Labels[j], d.Labels[i]
	})
}

// Combined returns the column-stacked samples+labels matrix consumed by
// BatchIter. Rows are freshly allocated.
func (d *TextDataset) Combined() [][]int32 {
	out, _ := Combine(d.Samples, d.Labels)
	return out
}

// Batches returns an iterator over the dataset in mini-batches.
func (d *TextDataset) Batches(opts BatchOptions) (*BatchIter, error) {
	return NewBatchIter(d.Combined(), d.SeqLen, opts)
}

// Combine column-stacks samples and labels row by row.
func Combine(samples, labels [][]int32) ([][]int32, error) {
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("samples and labels row counts don't match: %d != %d", len(samples), len(labels))
	}
	out := make([][]int32, len(samples))
	for i := range samples {
		row := make([]int32, 0, len(samples[i])+len(labels[i]))
		row = append(row, samples[i]...)
		row = append(row, labels[i]...)
		out[i] = row
	}
	return out, nil
}
