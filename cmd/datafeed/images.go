package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/dataFeed/config"
	"github.com/Noofbiz/dataFeed/imageset"
)

func newImagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "Configure the image loaders and pull one training batch",
		Long: `Builds the train, test and train-eval loaders for images.dataset (mnist,
cifar10 or folder), downloading MNIST or CIFAR-10 when missing, and prints the
shape of the first training batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImages(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// openImageLoaders runs the configurator selected by cfg. Download progress
// is rendered to progressOut.
func openImageLoaders(ctx context.Context, cfg config.ImagesConfig, progressOut io.Writer) (*imageset.Loaders, error) {
	d := imageset.NewDownloader()
	pw := imageset.NewProgressWriter(progressOut)
	d.Progress = pw
	go pw.Render()
	for !pw.IsRenderInProgress() {
		time.Sleep(time.Millisecond)
	}
	defer func() {
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	}()

	switch cfg.Dataset {
	case config.DatasetMNIST:
		return imageset.MNISTLoaders(ctx, imageset.MNISTOptions{
			Root:          cfg.MNISTRoot,
			BatchSize:     cfg.BatchSize,
			EvalBatchSize: cfg.EvalBatchSize,
			SkipDownload:  cfg.SkipDownload,
			Downloader:    d,
			Seed:          cfg.Seed,
		})
	case config.DatasetCIFAR10:
		return imageset.CIFAR10Loaders(ctx, imageset.CIFAR10Options{
			Root:          cfg.CIFARRoot,
			BatchSize:     cfg.BatchSize,
			EvalBatchSize: cfg.EvalBatchSize,
			SkipDownload:  cfg.SkipDownload,
			Downloader:    d,
			Seed:          cfg.Seed,
		})
	case config.DatasetFolder:
		return imageset.FolderLoaders(ctx, imageset.FolderOptions{
			Root:          cfg.FolderRoot,
			BatchSize:     cfg.BatchSize,
			EvalBatchSize: cfg.EvalBatchSize,
			ImageSize:     cfg.ImageSize,
			Seed:          cfg.Seed,
		})
	}
	return nil, fmt.Errorf("unknown image dataset %q", cfg.Dataset)
}

func runImages(ctx context.Context, a *app, out, progressOut io.Writer) error {
	ls, err := openImageLoaders(ctx, a.cfg.Images, progressOut)
	if err != nil {
		return err
	}

	for _, l := range []struct {
		name   string
		loader *imageset.Loader
	}{{"train", ls.Train}, {"test", ls.Test}, {"train-eval", ls.TrainEval}} {
		if l.loader == nil {
			fmt.Fprintf(out, "%-10s none\n", l.name)
			continue
		}
		opts := l.loader.Options()
		fmt.Fprintf(out, "%-10s %d examples, %d batches of %d, shuffle=%t workers=%d drop-last=%t\n  %s\n",
			l.name, l.loader.Source().Len(), l.loader.NumBatches(), opts.BatchSize,
			opts.Shuffle, opts.Workers, opts.DropLast, l.loader.Transform())
	}

	b, err := ls.Train.Next(ctx)
	if errors.Is(err, io.EOF) {
		return errors.New("training split has no complete batch")
	}
	if err != nil {
		return err
	}
	x, y, err := b.ToGomlxTensors()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "batch %d: images %v, labels %v\n", b.Index, x.Shape().Dimensions, y.Shape().Dimensions)
	return nil
}
