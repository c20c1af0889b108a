// Package config loads the optional YAML file read by the datafeed command.
// Every field has a default, so an absent file yields a usable Config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/dataFeed/datasets"
	"github.com/Noofbiz/dataFeed/imageset"
	"github.com/Noofbiz/dataFeed/textenc"
)

// Image dataset kinds accepted in images.dataset.
const (
	DatasetMNIST   = "mnist"
	DatasetCIFAR10 = "cifar10"
	DatasetFolder  = "folder"
)

// Config is the root of the YAML document.
type Config struct {
	Text   TextConfig   `yaml:"text"`
	Images ImagesConfig `yaml:"images"`
	Report ReportConfig `yaml:"report"`
	Log    LogConfig    `yaml:"log"`
}

// TextConfig drives the text bundle pipeline.
type TextConfig struct {
	DataDir  string `yaml:"dataDir"`
	Alphabet string `yaml:"alphabet"`
	MaxLen   int    `yaml:"maxLen"`
	// TrainCapacity and TestCapacity declare the split sizes; 0 sizes a
	// split to its file.
	TrainCapacity int   `yaml:"trainCapacity"`
	TestCapacity  int   `yaml:"testCapacity"`
	OneHot        bool  `yaml:"oneHot"`
	JoinFields    bool  `yaml:"joinFields"`
	BatchSize     int   `yaml:"batchSize"`
	Epochs        int   `yaml:"epochs"`
	Shuffle       bool  `yaml:"shuffle"`
	Seed          int64 `yaml:"seed"`
}

// ImagesConfig drives the image loader configurators.
type ImagesConfig struct {
	Dataset       string `yaml:"dataset"`
	BatchSize     int    `yaml:"batchSize"`
	EvalBatchSize int    `yaml:"evalBatchSize"`
	MNISTRoot     string `yaml:"mnistRoot"`
	CIFARRoot     string `yaml:"cifarRoot"`
	FolderRoot    string `yaml:"folderRoot"`
	ImageSize     int    `yaml:"imageSize"`
	SkipDownload  bool   `yaml:"skipDownload"`
	Seed          int64  `yaml:"seed"`
}

// ReportConfig controls the dataset report.
type ReportConfig struct {
	Histogram string `yaml:"histogram"`
	// Images adds the configured image dataset to the report.
	Images         bool   `yaml:"images"`
	ImageHistogram string `yaml:"imageHistogram"`
}

// LogConfig controls logging. An empty level defers to DATAFEED_LOG_LEVEL.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Text: TextConfig{
			DataDir:       ".data/ag_news/",
			Alphabet:      textenc.DefaultAlphabet,
			MaxLen:        textenc.DefaultMaxLen,
			TrainCapacity: datasets.TrainRows,
			TestCapacity:  datasets.TestRows,
			BatchSize:     32,
			Epochs:        32,
			Shuffle:       true,
		},
		Images: ImagesConfig{
			Dataset:       DatasetMNIST,
			BatchSize:     imageset.DefaultBatchSize,
			EvalBatchSize: imageset.DefaultEvalBatchSize,
			MNISTRoot:     imageset.DefaultMNISTRoot,
			CIFARRoot:     imageset.DefaultCIFARRoot,
		},
		Report: ReportConfig{
			Histogram:      "class_histogram.png",
			ImageHistogram: "image_class_histogram.png",
		},
	}
}

// Load reads path over the defaults. An empty path returns Default().
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return Config{}, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Text.MaxLen <= 0 {
		errs = append(errs, fmt.Errorf("text.maxLen must be positive, got %d", c.Text.MaxLen))
	}
	if c.Text.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("text.batchSize must be positive, got %d", c.Text.BatchSize))
	}
	if c.Text.TrainCapacity < 0 || c.Text.TestCapacity < 0 {
		errs = append(errs, errors.New("text capacities must not be negative"))
	}
	if c.Text.Alphabet == "" {
		errs = append(errs, errors.New("text.alphabet must not be empty"))
	}
	switch c.Images.Dataset {
	case DatasetMNIST, DatasetCIFAR10:
	case DatasetFolder:
		if c.Images.FolderRoot == "" {
			errs = append(errs, errors.New("images.folderRoot is required for the folder dataset"))
		}
	default:
		errs = append(errs, fmt.Errorf("images.dataset %q is not one of mnist, cifar10, folder", c.Images.Dataset))
	}
	if c.Images.BatchSize < 0 || c.Images.EvalBatchSize < 0 || c.Images.ImageSize < 0 {
		errs = append(errs, errors.New("image sizes must not be negative"))
	}
	return errors.Join(errs...)
}

// Encoder builds the text encoder described by c.
func (c TextConfig) Encoder() (*textenc.Encoder, error) {
	a, err := textenc.NewAlphabet(c.Alphabet)
	if err != nil {
		return nil, err
	}
	return textenc.NewEncoder(a, c.MaxLen)
}

// BundleOptions maps c onto datasets.BundleOptions.
func (c TextConfig) BundleOptions() datasets.BundleOptions {
	opts := datasets.BundleOptions{
		TrainCapacity: c.TrainCapacity,
		TestCapacity:  c.TestCapacity,
		OneHot:        c.OneHot,
	}
	if c.JoinFields {
		opts.TextField = datasets.TextFieldJoin
	}
	return opts
}

// BatchOptions maps c onto datasets.BatchOptions.
func (c TextConfig) BatchOptions() datasets.BatchOptions {
	return datasets.BatchOptions{
		BatchSize: c.BatchSize,
		Epochs:    c.Epochs,
		Shuffle:   c.Shuffle,
		Seed:      c.Seed,
	}
}
