package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/dataFeed/datasets"
	"github.com/Noofbiz/dataFeed/internal/log"
	"github.com/Noofbiz/dataFeed/report"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print class counts and save class histograms",
		Long: `Loads the text bundle, prints per-class row counts of both splits and
writes a class histogram to report.histogram. With report.images set the
configured image dataset is summarised as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runReport(ctx context.Context, a *app, out, progressOut io.Writer) error {
	logger := log.WithComponent("report")
	text := a.cfg.Text

	enc, err := text.Encoder()
	if err != nil {
		return err
	}
	bundle, err := datasets.LoadTextBundle(text.DataDir, enc, text.BundleOptions())
	if err != nil {
		return err
	}
	train, err := report.SummarizeText("train", bundle.Train, bundle.Classes)
	if err != nil {
		return err
	}
	test, err := report.SummarizeText("test", bundle.Test, bundle.Classes)
	if err != nil {
		return err
	}
	if err := report.WriteTable(out, text.DataDir, train, test); err != nil {
		return err
	}
	if err := report.SaveHistogram(a.cfg.Report.Histogram, train); err != nil {
		return err
	}
	logger.Info().Str("path", a.cfg.Report.Histogram).Msg("saved text class histogram")

	if !a.cfg.Report.Images {
		return nil
	}
	ls, err := openImageLoaders(ctx, a.cfg.Images, progressOut)
	if err != nil {
		return err
	}
	imgTrain, err := report.SummarizeSource(ls.Train.Source())
	if err != nil {
		return err
	}
	imgTest, err := report.SummarizeSource(ls.Test.Source())
	if err != nil {
		return err
	}
	if err := report.WriteTable(out, a.cfg.Images.Dataset, imgTrain, imgTest); err != nil {
		return err
	}
	if err := report.SaveHistogram(a.cfg.Report.ImageHistogram, imgTrain); err != nil {
		return err
	}
	logger.Info().Str("path", a.cfg.Report.ImageHistogram).Msg("saved image class histogram")
	return nil
}
