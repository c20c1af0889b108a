package imageset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// mnistPixel is the value written at pixel p of image i.
func mnistPixel(i, p int) byte {
	return byte((i*7 + p) % 256)
}

// writeMNIST writes a gzip IDX image and label file pair for one split.
func writeMNIST(t *testing.T, dir string, train bool, n, side int) {
	t.Helper()
	imagesName, labelsName := MNISTFiles(train)

	var images bytes.Buffer
	binary.Write(&images, binary.BigEndian, []uint32{idxImagesMagic, uint32(n), uint32(side), uint32(side)})
	for i := range n {
		for p := range side * side {
			images.WriteByte(mnistPixel(i, p))
		}
	}
	var labels bytes.Buffer
	binary.Write(&labels, binary.BigEndian, []uint32{idxLabelsMagic, uint32(n)})
	for i := range n {
		labels.WriteByte(byte(i % 10))
	}

	writeGzip(t, filepath.Join(dir, imagesName), images.Bytes())
	writeGzip(t, filepath.Join(dir, labelsName), labels.Bytes())
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeGzip(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, gzipBytes(t, data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// cifarRecords builds n records; record i has label i%10 and every byte of
// channel c set to i+c.
func cifarRecords(n, offset int) []byte {
	var buf bytes.Buffer
	for i := range n {
		buf.WriteByte(byte((offset + i) % 10))
		for c := range 3 {
			buf.Write(bytes.Repeat([]byte{byte(offset + i + c)}, cifarSide*cifarSide))
		}
	}
	return buf.Bytes()
}

// cifarFiles returns the batch files of a fake CIFAR-10 tree with perBatch
// records in every training batch and testN records in the test batch.
func cifarFiles(perBatch, testN int) map[string][]byte {
	files := map[string][]byte{}
	for k, name := range CIFAR10Files(true) {
		files[name] = cifarRecords(perBatch, k*perBatch)
	}
	files["test_batch.bin"] = cifarRecords(testN, 0)
	return files
}

func writeCIFAR(t *testing.T, root string, perBatch, testN int) {
	t.Helper()
	dir := filepath.Join(root, CIFAR10Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, data := range cifarFiles(perBatch, testN) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

type tarEntry struct {
	name string
	data []byte
}

func tarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.data)), Typeflag: tar.TypeReg}
		if e.data == nil {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(e.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return gzipBytes(t, buf.Bytes())
}

// writePNG writes a w x h image filled with c.
func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// indexSource is an in-memory Source whose example i is a frame filled with
// i and labelled i%10.
type indexSource struct {
	n, c, h, w int
	failAt     int
}

func (s *indexSource) Name() string      { return "index" }
func (s *indexSource) Len() int          { return s.n }
func (s *indexSource) Classes() []string { return []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"} }

func (s *indexSource) Example(i int) (*Frame, int, error) {
	if s.failAt > 0 && i == s.failAt {
		return nil, 0, errors.New("broken example")
	}
	f := NewFrame(s.c, s.h, s.w)
	for j := range f.Pix {
		f.Pix[j] = float32(i)
	}
	return f, i % 10, nil
}
