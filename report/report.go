// Package report summarises loaded datasets: per-class row counts rendered
// as a text table or as a bar chart image.
package report

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/dataFeed/datasets"
	"github.com/Noofbiz/dataFeed/imageset"
)

// Summary holds per-class counts for one split.
type Summary struct {
	Name    string
	Classes []string
	Counts  []int
	// Unlabelled counts one-hot rows with no class set, which only occur
	// as capacity padding.
	Unlabelled int
	// Padding is the number of rows added to reach a declared capacity.
	Padding int
}

// Total returns the number of rows counted.
func (s *Summary) Total() int {
	n := s.Unlabelled
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// SummarizeText counts ds by class. Class-index padding rows carry class 0
// and are counted there, as a consumer of the dataset would see them.
func SummarizeText(name string, ds *datasets.TextDataset, classes []string) (*Summary, error) {
	n := ds.NumClasses
	if n <= 0 {
		n = len(classes)
	}
	s := &Summary{
		Name:    name,
		Classes: classNames(classes, n),
		Counts:  make([]int, n),
		Padding: ds.Len() - ds.Rows,
	}
	for i, label := range ds.Labels {
		if !ds.OneHot {
			c := int(label[0])
			if c < 0 || c >= n {
				return nil, fmt.Errorf("row %d has class %d, want [0, %d)", i, c, n)
			}
			s.Counts[c]++
			continue
		}
		c := -1
		for j, v := range label {
			if v != 0 {
				c = j
				break
			}
		}
		if c < 0 {
			s.Unlabelled++
			continue
		}
		s.Counts[c]++
	}
	return s, nil
}

// SummarizeSource counts every example of src by class.
func SummarizeSource(src imageset.Source) (*Summary, error) {
	classes := src.Classes()
	s := &Summary{
		Name:    src.Name(),
		Classes: classes,
		Counts:  make([]int, len(classes)),
	}
	for i := range src.Len() {
		c, err := imageset.LabelOf(src, i)
		if err != nil {
			return nil, err
		}
		if c < 0 || c >= len(classes) {
			return nil, fmt.Errorf("%s example %d has class %d, want [0, %d)", src.Name(), i, c, len(classes))
		}
		s.Counts[c]++
	}
	return s, nil
}

func classNames(classes []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(classes) {
			out[i] = classes[i]
		} else {
			out[i] = fmt.Sprintf("class %d", i)
		}
	}
	return out
}

// WriteTable renders the summaries side by side, one row per class.
// Summaries must share a class list.
func WriteTable(w io.Writer, title string, summaries ...*Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no summaries")
	}
	classes := summaries[0].Classes
	for _, s := range summaries[1:] {
		if len(s.Classes) != len(classes) {
			return fmt.Errorf("%s has %d classes, %s has %d", s.Name, len(s.Classes), summaries[0].Name, len(classes))
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	header := table.Row{"#", "Class"}
	for _, s := range summaries {
		header = append(header, s.Name)
	}
	t.AppendHeader(header)
	for i, name := range classes {
		row := table.Row{i, name}
		for _, s := range summaries {
			row = append(row, s.Counts[i])
		}
		t.AppendRow(row)
	}
	t.AppendSeparator()

	footer := []struct {
		label string
		value func(*Summary) int
	}{
		{"unlabelled", func(s *Summary) int { return s.Unlabelled }},
		{"padding", func(s *Summary) int { return s.Padding }},
		{"total", (*Summary).Total},
	}
	for _, f := range footer {
		row := table.Row{"", f.label}
		for _, s := range summaries {
			row = append(row, f.value(s))
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// Histogram builds a bar chart of the per-class counts.
func Histogram(s *Summary) (*plot.Plot, error) {
	values := make(plotter.Values, len(s.Counts))
	for i, c := range s.Counts {
		values[i] = float64(c)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Class distribution: %s", s.Name)
	p.Y.Label.Text = "rows"

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, err
	}
	bars.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Add(plotter.NewGrid())
	p.NominalX(s.Classes...)
	return p, nil
}

// SaveHistogram writes the class histogram of s to path. The format follows
// the extension (png, svg, pdf...); the file is replaced atomically.
func SaveHistogram(path string, s *Summary) error {
	p, err := Histogram(s)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}
	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending histogram file: %w", err)
	}
	defer pending.Cleanup()
	if _, err := wt.WriteTo(pending); err != nil {
		return fmt.Errorf("write histogram: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace histogram: %w", err)
	}
	return nil
}
