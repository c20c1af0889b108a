package datasets

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
)

// TensorDataset exposes a BatchIter as a gomlx train.Dataset. Yield returns
// io.EOF after the iterator's last epoch; gomlx calls Reset before the next
// one, so BatchOptions.Epochs is normally left at 1 when the training loop
// manages epochs itself.
type TensorDataset struct {
	name string
	it   *BatchIter
}

var _ train.Dataset = (*TensorDataset)(nil)

// NewTensorDataset wraps it under the given name.
func NewTensorDataset(name string, it *BatchIter) *TensorDataset {
	return &TensorDataset{name: name, it: it}
}

// Name implements train.Dataset.
func (d *TensorDataset) Name() string {
	return d.name
}

// Reset implements train.Dataset.
func (d *TensorDataset) Reset() {
	d.it.Reset()
}

// Yield implements train.Dataset. The spec returned is the *Batch the tensors
// were built from.
func (d *TensorDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	b, ok := d.it.Next()
	if !ok {
		return nil, nil, nil, io.EOF
	}
	in, la, err := b.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: batch %d: %w", d.name, b.Index, err)
	}
	return b, []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}
