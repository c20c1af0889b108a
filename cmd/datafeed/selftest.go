package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/dataFeed/datasets"
	"github.com/Noofbiz/dataFeed/internal/log"
)

func newSelftestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Load the text bundle and pull the first training batch",
		Long: `Loads classes.txt, train.csv and test.csv from text.dataDir, encodes every
row and builds the training batch iterator. The first batch is converted to
tensors and printed, then the command stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest(a, cmd.OutOrStdout())
		},
	}
}

func runSelftest(a *app, out io.Writer) error {
	logger := log.WithComponent("selftest")
	text := a.cfg.Text

	enc, err := text.Encoder()
	if err != nil {
		return err
	}
	bundle, err := datasets.LoadTextBundle(text.DataDir, enc, text.BundleOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "train data %v, train labels %v\n", shape(bundle.Train.Samples), shape(bundle.Train.Labels))
	fmt.Fprintf(out, "test data %v, test labels %v\n", shape(bundle.Test.Samples), shape(bundle.Test.Labels))

	it, err := bundle.Train.Batches(text.BatchOptions())
	if err != nil {
		return err
	}
	logger.Info().Int("batches", it.NumBatches()).Int("epochs", it.Epochs()).Msg("batch iterator ready")

	ds := datasets.NewTensorDataset("train", it)
	spec, inputs, labels, err := ds.Yield()
	if errors.Is(err, io.EOF) {
		return errors.New("training split is empty")
	}
	if err != nil {
		return err
	}
	b := spec.(*datasets.Batch)
	fmt.Fprintf(out, "batch %d: data %v, labels %v\n", b.Index, inputs[0].Shape().Dimensions, labels[0].Shape().Dimensions)
	fmt.Fprintf(out, "first sample: %q\n", enc.Decode(b.Samples[0]))
	return nil
}

func shape(rows [][]int32) [2]int {
	if len(rows) == 0 {
		return [2]int{0, 0}
	}
	return [2]int{len(rows), len(rows[0])}
}
