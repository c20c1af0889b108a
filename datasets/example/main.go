package main

// Example command that loads an AG News style bundle, walks the first few
// training batches and converts them into gomlx tensors.
//
// Usage:
//   go run ./datasets/example [bundle dir]
//
// The bundle directory must hold classes.txt, train.csv and test.csv. The
// splits are sized to their files here rather than to the fixed AG News row
// counts, so any small bundle works.

import (
	"fmt"
	"log"
	"os"

	"github.com/Noofbiz/dataFeed/datasets"
	"github.com/Noofbiz/dataFeed/textenc"
)

func main() {
	dir := ".data/ag_news/"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	enc, err := textenc.NewEncoder(textenc.MustAlphabet(textenc.DefaultAlphabet), textenc.DefaultMaxLen)
	if err != nil {
		log.Fatalf("failed to build encoder: %v", err)
	}

	bundle, err := datasets.LoadTextBundle(dir, enc, datasets.BundleOptions{})
	if err != nil {
		log.Fatalf("failed to load bundle: %v", err)
	}
	fmt.Printf("Classes: %v\n", bundle.Classes)
	fmt.Printf("Train: %d rows, Test: %d rows\n", bundle.Train.Len(), bundle.Test.Len())

	it, err := bundle.Train.Batches(datasets.BatchOptions{BatchSize: 32, Shuffle: true})
	if err != nil {
		log.Fatalf("failed to create batch iterator: %v", err)
	}
	ds := datasets.NewTensorDataset("ag_news/train", it)

	for i := 0; i < 3; i++ {
		spec, inputs, labels, err := ds.Yield()
		if err != nil {
			break
		}
		b := spec.(*datasets.Batch)
		fmt.Printf("Batch %d: %d rows, input=%s label=%s\n", b.Index, b.Len(), inputs[0].Shape(), labels[0].Shape())
		if b.Len() > 0 {
			fmt.Printf("  First example text: %q\n", enc.Decode(b.Samples[0]))
		}
	}
}
