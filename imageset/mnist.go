package imageset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// MNIST archive names, as published on every mirror.
const (
	MNISTTrainImages = "train-images-idx3-ubyte.gz"
	MNISTTrainLabels = "train-labels-idx1-ubyte.gz"
	MNISTTestImages  = "t10k-images-idx3-ubyte.gz"
	MNISTTestLabels  = "t10k-labels-idx1-ubyte.gz"
)

// MNISTMirrors are tried in order when downloading.
var MNISTMirrors = []string{
	"https://ossci-datasets.s3.amazonaws.com/mnist/",
	"http://yann.lecun.com/exdb/mnist/",
}

const (
	idxImagesMagic = 0x00000803
	idxLabelsMagic = 0x00000801
	maxIDXSide     = 1 << 12
)

// MNISTFiles returns the archive names of one split.
func MNISTFiles(train bool) (images, labels string) {
	if train {
		return MNISTTrainImages, MNISTTrainLabels
	}
	return MNISTTestImages, MNISTTestLabels
}

// MNIST is an in-memory MNIST split. Pixels are kept as bytes and expanded
// into frames on demand.
type MNIST struct {
	train      bool
	rows, cols int
	pixels     []byte
	labels     []byte
}

var _ Source = (*MNIST)(nil)

// OpenMNIST reads one split from root. Both gzip archives and their
// uncompressed counterparts (without the .gz suffix) are accepted.
func OpenMNIST(root string, train bool) (*MNIST, error) {
	imagesFile, labelsFile := MNISTFiles(train)

	m := &MNIST{train: train}
	var n int
	err := readIDX(root, imagesFile, func(r io.Reader) error {
		var hdr [4]uint32
		if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		if hdr[0] != idxImagesMagic {
			return fmt.Errorf("bad magic %#x, want %#x", hdr[0], idxImagesMagic)
		}
		n, m.rows, m.cols = int(hdr[1]), int(hdr[2]), int(hdr[3])
		if m.rows > maxIDXSide || m.cols > maxIDXSide || n > math.MaxInt32/max(m.rows*m.cols, 1) {
			return fmt.Errorf("bad IDX dimensions %dx%dx%d", n, m.rows, m.cols)
		}
		m.pixels = make([]byte, n*m.rows*m.cols)
		_, err := io.ReadFull(r, m.pixels)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = readIDX(root, labelsFile, func(r io.Reader) error {
		var hdr [2]uint32
		if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		if hdr[0] != idxLabelsMagic {
			return fmt.Errorf("bad magic %#x, want %#x", hdr[0], idxLabelsMagic)
		}
		if int(hdr[1]) != n {
			return fmt.Errorf("%d labels for %d images", hdr[1], n)
		}
		m.labels = make([]byte, n)
		_, err := io.ReadFull(r, m.labels)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// readIDX opens name (or name without .gz) under root and hands the
// decompressed stream to fn.
func readIDX(root, name string, fn func(io.Reader) error) error {
	path := filepath.Join(root, name)
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		path = filepath.Join(root, strings.TrimSuffix(name, ".gz"))
		file, err = os.Open(path)
	}
	if err != nil {
		return fmt.Errorf("failed to open MNIST file: %w", err)
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to open gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	if err := fn(r); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// Name implements Source.
func (m *MNIST) Name() string {
	if m.train {
		return "mnist/train"
	}
	return "mnist/test"
}

// Len implements Source.
func (m *MNIST) Len() int {
	return len(m.labels)
}

// Classes implements Source.
func (m *MNIST) Classes() []string {
	return []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
}

// Example implements Source. Frames are single channel.
func (m *MNIST) Example(i int) (*Frame, int, error) {
	if i < 0 || i >= len(m.labels) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, len(m.labels))
	}
	size := m.rows * m.cols
	f := NewFrame(1, m.rows, m.cols)
	for j, p := range m.pixels[i*size : (i+1)*size] {
		f.Pix[j] = float32(p)
	}
	return f, int(m.labels[i]), nil
}

// Label returns the class of example i without building its frame.
func (m *MNIST) Label(i int) (int, error) {
	if i < 0 || i >= len(m.labels) {
		return 0, fmt.Errorf("index %d out of range [0, %d)", i, len(m.labels))
	}
	return int(m.labels[i]), nil
}
