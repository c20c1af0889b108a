package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/dataFeed/datasets"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 1014, cfg.Text.MaxLen)
	require.Equal(t, 32, cfg.Text.BatchSize)
	require.Equal(t, 32, cfg.Text.Epochs)
	require.Equal(t, ".data/ag_news/", cfg.Text.DataDir)
	require.Equal(t, 128, cfg.Images.BatchSize)
	require.Equal(t, 1000, cfg.Images.EvalBatchSize)
	require.NoError(t, cfg.Validate())

	enc, err := cfg.Text.Encoder()
	require.NoError(t, err)
	require.Equal(t, 1014, enc.MaxLen())
	require.Equal(t, datasets.DefaultBundleOptions(), cfg.Text.BundleOptions())
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	path := writeConfig(t, "datafeed.yaml", `
text:
  dataDir: /srv/news
  trainCapacity: 0
  joinFields: true
  epochs: 1
images:
  dataset: folder
  folderRoot: /srv/galaxies
  imageSize: 64
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/news", cfg.Text.DataDir)
	require.Equal(t, 1014, cfg.Text.MaxLen)
	require.Equal(t, 1, cfg.Text.Epochs)
	require.Equal(t, "debug", cfg.Log.Level)

	opts := cfg.Text.BundleOptions()
	require.Equal(t, 0, opts.TrainCapacity)
	require.Equal(t, datasets.TestRows, opts.TestCapacity)
	require.Equal(t, datasets.TextFieldJoin, opts.TextField)

	require.Equal(t, 32, cfg.Text.BatchOptions().BatchSize)
	require.Equal(t, DatasetFolder, cfg.Images.Dataset)
	require.Equal(t, 64, cfg.Images.ImageSize)
	require.Equal(t, 1000, cfg.Images.EvalBatchSize)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yml", ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	for name, tc := range map[string]struct {
		file, body, want string
	}{
		"unknown key":     {"a.yaml", "text:\n  maxLength: 5\n", "strict config parse error"},
		"wrong extension": {"a.json", "{}", "unsupported config format"},
		"two documents":   {"a.yaml", "text:\n  epochs: 2\n---\nlog:\n  level: info\n", "multiple documents"},
		"bad dataset":     {"a.yaml", "images:\n  dataset: imagenet\n", "images.dataset"},
		"folder no root":  {"a.yaml", "images:\n  dataset: folder\n", "folderRoot"},
		"zero maxLen":     {"a.yaml", "text:\n  maxLen: 0\n", "text.maxLen"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.file, tc.body))
			require.ErrorContains(t, err, tc.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestEncoder_BadAlphabet(t *testing.T) {
	cfg := Default()
	cfg.Text.Alphabet = "aa"
	_, err := cfg.Text.Encoder()
	require.Error(t, err)
}
