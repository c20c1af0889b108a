package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeBundle(t *testing.T, dir string) {
	t.Helper()
	classes := "World\nSports\nBusiness\nSci/Tech\n"
	if err := os.WriteFile(filepath.Join(dir, ClassesFile), []byte(classes), 0o644); err != nil {
		t.Fatalf("failed to write classes: %v", err)
	}
	writeCSV(t, filepath.Join(dir, TrainFile), sevenRows)
	writeCSV(t, filepath.Join(dir, TestFile), sevenRows[:3])
}

func TestLoadTextBundle_DynamicCapacity(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir)

	b, err := LoadTextBundle(dir, testEncoder(t, 16), BundleOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"World", "Sports", "Business", "Sci/Tech"}, b.Classes)
	require.Equal(t, 7, b.Train.Len())
	require.Equal(t, 3, b.Test.Len())
	require.Equal(t, 4, b.Train.NumClasses)
	require.Len(t, b.Train.Samples[0], 16)
}

func TestLoadTextBundle_DeclaredCapacity(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir)

	b, err := LoadTextBundle(dir, testEncoder(t, 8), BundleOptions{TrainCapacity: 10, TestCapacity: 4, OneHot: true})
	require.NoError(t, err)
	require.Equal(t, 10, b.Train.Len())
	require.Equal(t, 7, b.Train.Rows)
	require.Equal(t, 4, b.Test.Len())
	require.Equal(t, []int32{0, 0, 0, 0}, b.Train.Labels[9])
	require.Equal(t, []int32{0, 0, 1, 0}, b.Train.Labels[0])
}

func TestDefaultBundleOptions(t *testing.T) {
	opts := DefaultBundleOptions()
	require.Equal(t, 120000, opts.TrainCapacity)
	require.Equal(t, 7600, opts.TestCapacity)
}

func TestLoadTextBundle_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadTextBundle(dir, testEncoder(t, 8), BundleOptions{})
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ClassesFile), []byte("a\nb\n"), 0o644))
	_, err = LoadTextBundle(dir, testEncoder(t, 8), BundleOptions{})
	require.Error(t, err, "train.csv is missing")
}
