package datasets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Noofbiz/dataFeed/textenc"
)

// writeCSV writes the given rows, one per line, to path.
func writeCSV(t *testing.T, path string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

func testEncoder(t *testing.T, maxLen int) *textenc.Encoder {
	t.Helper()
	enc, err := textenc.NewEncoder(textenc.MustAlphabet(textenc.DefaultAlphabet), maxLen)
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	return enc
}

var sevenRows = []string{
	`3,"Wall St. Bears","Short-sellers are back"`,
	`3,"Carlyle Looks","Private firm"`,
	`4,"Games","New console"`,
	`1,"Rebels","Fighting continues"`,
	`2,"Final","Team wins"`,
	`4,"Space","Probe lands"`,
	`1,"Vote","Results due"`,
}

func TestLoadTextCSV_GrowsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeCSV(t, path, sevenRows)

	ds, err := LoadTextCSV(path, testEncoder(t, 12), TextCSVOptions{NumClasses: 4})
	if err != nil {
		t.Fatalf("LoadTextCSV error: %v", err)
	}
	if ds.Len() != 7 || ds.Rows != 7 {
		t.Fatalf("expected 7 rows, got len=%d rows=%d", ds.Len(), ds.Rows)
	}

	sample, label, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	// "short-seller" lowercased and truncated to 12 codes.
	want := []int32{19, 8, 15, 18, 20, 37, 19, 5, 12, 12, 5, 18}
	if diff := cmp.Diff(want, sample); diff != "" {
		t.Fatalf("sample mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{2}, label); diff != "" {
		t.Fatalf("label mismatch (-want +got):\n%s", diff)
	}
	if ds.LabelWidth() != 1 {
		t.Fatalf("expected label width 1, got %d", ds.LabelWidth())
	}
}

func TestLoadTextCSV_CapacityPadding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeCSV(t, path, sevenRows)

	ds, err := LoadTextCSV(path, testEncoder(t, 8), TextCSVOptions{NumClasses: 4, Capacity: 10})
	if err != nil {
		t.Fatalf("LoadTextCSV error: %v", err)
	}
	if ds.Len() != 10 {
		t.Fatalf("expected len 10, got %d", ds.Len())
	}
	if ds.Rows != 7 {
		t.Fatalf("expected 7 rows read, got %d", ds.Rows)
	}
	for i := 7; i < 10; i++ {
		sample, label, _ := ds.Example(i)
		if diff := cmp.Diff(make([]int32, 8), sample); diff != "" {
			t.Errorf("row %d sample should be zero (-want +got):\n%s", i, diff)
		}
		if label[0] != 0 {
			t.Errorf("row %d label = %d, want 0", i, label[0])
		}
	}
}

func TestLoadTextCSV_CapacityExceeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeCSV(t, path, sevenRows)

	_, err := LoadTextCSV(path, testEncoder(t, 8), TextCSVOptions{NumClasses: 4, Capacity: 5})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestLoadTextCSV_OneHotAndJoin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	writeCSV(t, path, []string{`2,"Ab","Cd"`, `4,"x","y"`})

	ds, err := LoadTextCSV(path, testEncoder(t, 6), TextCSVOptions{
		NumClasses: 4,
		OneHot:     true,
		TextField:  TextFieldJoin,
	})
	require.NoError(t, err)
	require.Equal(t, 4, ds.LabelWidth())
	require.Equal(t, []int32{0, 1, 0, 0}, ds.Labels[0])
	require.Equal(t, []int32{0, 0, 0, 1}, ds.Labels[1])
	// "ab cd" joined with a space, lowercased.
	require.Equal(t, []int32{1, 2, 67, 3, 4, 0}, ds.Samples[0])
}

func TestLoadTextCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	enc := testEncoder(t, 4)

	cases := map[string]struct {
		rows []string
		opts TextCSVOptions
	}{
		"bad class":          {rows: []string{`x,"a"`}, opts: TextCSVOptions{NumClasses: 2}},
		"class out of range": {rows: []string{`3,"a"`}, opts: TextCSVOptions{NumClasses: 2, OneHot: true}},
		"class zero":         {rows: []string{`0,"a"`}, opts: TextCSVOptions{NumClasses: 2}},
		"missing text":       {rows: []string{`1`}, opts: TextCSVOptions{NumClasses: 2}},
		"one-hot no classes": {rows: []string{`1,"a"`}, opts: TextCSVOptions{OneHot: true}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".csv")
			writeCSV(t, path, tc.rows)
			if _, err := LoadTextCSV(path, enc, tc.opts); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	if _, err := LoadTextCSV(filepath.Join(dir, "missing.csv"), enc, TextCSVOptions{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadTextCSV_ClassIndexBeyondNumClasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeCSV(t, path, []string{`3,"a"`})

	ds, err := LoadTextCSV(path, testEncoder(t, 4), TextCSVOptions{NumClasses: 2})
	require.NoError(t, err)
	require.Equal(t, []int32{2}, ds.Labels[0])
}

func TestTextDataset_ShuffleZeroSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeCSV(t, path, sevenRows)
	enc := testEncoder(t, 4)

	a, err := LoadTextCSV(path, enc, TextCSVOptions{NumClasses: 4})
	require.NoError(t, err)
	b, err := LoadTextCSV(path, enc, TextCSVOptions{NumClasses: 4})
	require.NoError(t, err)

	// zero draws a fresh seed per call, so repeated shuffles diverge
	differ := false
	for range 5 {
		a.Shuffle(0)
		b.Shuffle(0)
		if fmt.Sprint(a.Samples) != fmt.Sprint(b.Samples) {
			differ = true
			break
		}
	}
	require.True(t, differ)
}

func TestTextDataset_ShuffleKeepsPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeCSV(t, path, sevenRows)

	ds, err := LoadTextCSV(path, testEncoder(t, 4), TextCSVOptions{NumClasses: 4})
	require.NoError(t, err)

	pairs := map[string]int32{}
	for i := range ds.Len() {
		pairs[fmt.Sprint(ds.Samples[i])] = ds.Labels[i][0]
	}
	ds.Shuffle(7)
	for i := range ds.Len() {
		key := fmt.Sprint(ds.Samples[i])
		require.Equal(t, pairs[key], ds.Labels[i][0], "row %d lost its label", i)
	}

	samples, labels, err := ds.Batch([]int{0, 6})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	require.Len(t, labels, 2)
	_, _, err = ds.Batch([]int{7})
	require.Error(t, err)
}

func TestCombine(t *testing.T) {
	got, err := Combine([][]int32{{1, 2}, {3, 4}}, [][]int32{{0}, {1}})
	require.NoError(t, err)
	require.Equal(t, [][]int32{{1, 2, 0}, {3, 4, 1}}, got)

	_, err = Combine([][]int32{{1}}, nil)
	require.Error(t, err)
}
