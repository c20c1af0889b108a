package imageset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CIFAR-10 binary distribution.
const (
	CIFAR10Archive = "cifar-10-binary.tar.gz"
	CIFAR10Dir     = "cifar-10-batches-bin"
)

// CIFAR10Mirrors are tried in order when downloading.
var CIFAR10Mirrors = []string{
	"https://www.cs.toronto.edu/~kriz/",
}

const (
	cifarSide   = 32
	cifarRecord = 1 + 3*cifarSide*cifarSide
)

var cifar10Classes = []string{
	"airplane", "automobile", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

// CIFAR10Files returns the batch files of one split.
func CIFAR10Files(train bool) []string {
	if !train {
		return []string{"test_batch.bin"}
	}
	return []string{
		"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin",
		"data_batch_4.bin", "data_batch_5.bin",
	}
}

// CIFAR10 is an in-memory CIFAR-10 split. Each record is a label byte
// followed by the red, green and blue 32x32 planes.
type CIFAR10 struct {
	train   bool
	records []byte
	classes []string
}

var _ Source = (*CIFAR10)(nil)

// OpenCIFAR10 reads one split from root/cifar-10-batches-bin.
func OpenCIFAR10(root string, train bool) (*CIFAR10, error) {
	dir := filepath.Join(root, CIFAR10Dir)
	c := &CIFAR10{train: train, classes: cifar10Classes}
	for _, name := range CIFAR10Files(train) {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read CIFAR-10 batch: %w", err)
		}
		if len(data)%cifarRecord != 0 {
			return nil, fmt.Errorf("%s: size %d is not a multiple of the %d byte record", path, len(data), cifarRecord)
		}
		c.records = append(c.records, data...)
	}

	// batches.meta.txt carries the class names; fall back to the built-in
	// list when it is absent.
	if meta, err := os.ReadFile(filepath.Join(dir, "batches.meta.txt")); err == nil {
		var names []string
		for _, line := range strings.Split(string(meta), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				names = append(names, line)
			}
		}
		if len(names) == len(cifar10Classes) {
			c.classes = names
		}
	}
	return c, nil
}

// Name implements Source.
func (c *CIFAR10) Name() string {
	if c.train {
		return "cifar10/train"
	}
	return "cifar10/test"
}

// Len implements Source.
func (c *CIFAR10) Len() int {
	return len(c.records) / cifarRecord
}

// Classes implements Source.
func (c *CIFAR10) Classes() []string {
	return c.classes
}

// Example implements Source. Frames are 3x32x32.
func (c *CIFAR10) Example(i int) (*Frame, int, error) {
	if i < 0 || i >= c.Len() {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, c.Len())
	}
	rec := c.records[i*cifarRecord : (i+1)*cifarRecord]
	label := int(rec[0])
	if label >= len(c.classes) {
		return nil, 0, fmt.Errorf("record %d has label %d, want < %d", i, label, len(c.classes))
	}
	f := NewFrame(3, cifarSide, cifarSide)
	for j, p := range rec[1:] {
		f.Pix[j] = float32(p)
	}
	return f, label, nil
}

// Label returns the class of example i without building its frame.
func (c *CIFAR10) Label(i int) (int, error) {
	if i < 0 || i >= c.Len() {
		return 0, fmt.Errorf("index %d out of range [0, %d)", i, c.Len())
	}
	return int(c.records[i*cifarRecord]), nil
}
