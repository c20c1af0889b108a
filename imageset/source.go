// Package imageset configures image dataset loaders for MNIST, CIFAR-10 and
// folder-of-images datasets.
//
// The package is built around three small capabilities: a Source opens a
// dataset by path and returns raw frames, Pipeline returns a named
// augmentation pipeline, and a Loader turns a source plus a pipeline into
// mini-batches using a fixed number of worker goroutines. MNISTLoaders,
// CIFAR10Loaders and FolderLoaders wire the three together with the
// settings used for training and evaluation.
package imageset

// Source is random access to an image dataset. Example must be safe to call
// from several goroutines.
type Source interface {
	Name() string
	Len() int
	Classes() []string
	Example(i int) (*Frame, int, error)
}

// Labeler is implemented by sources that can report a class without
// decoding the example.
type Labeler interface {
	Label(i int) (int, error)
}

var (
	_ Labeler = (*MNIST)(nil)
	_ Labeler = (*CIFAR10)(nil)
	_ Labeler = (*Folder)(nil)
)

// LabelOf returns the class of example i, decoding it only when src does
// not implement Labeler.
func LabelOf(src Source, i int) (int, error) {
	if l, ok := src.(Labeler); ok {
		return l.Label(i)
	}
	_, label, err := src.Example(i)
	return label, err
}
