package imageset

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Folder is a dataset laid out as root/<class>/<image>. Classes are the
// sorted subdirectory names; images are decoded lazily on every Example
// call.
type Folder struct {
	root    string
	size    int
	classes []string
	paths   []string
	labels  []int
}

var _ Source = (*Folder)(nil)

// OpenFolder indexes root. When size is positive every image is scaled to
// size x size while decoding, which batching requires for folders of mixed
// resolutions.
func OpenFolder(root string, size int) (*Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	f := &Folder{root: root, size: size}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			f.classes = append(f.classes, e.Name())
		}
	}
	sort.Strings(f.classes)
	if len(f.classes) == 0 {
		return nil, fmt.Errorf("no class directories found in %s", root)
	}

	for label, class := range f.classes {
		var files []string
		err := filepath.WalkDir(filepath.Join(root, class), func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to index class %q: %w", class, err)
		}
		sort.Strings(files)
		for _, p := range files {
			f.paths = append(f.paths, p)
			f.labels = append(f.labels, label)
		}
	}
	if len(f.paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", root)
	}
	return f, nil
}

// Name implements Source.
func (f *Folder) Name() string {
	return "folder:" + filepath.Base(f.root)
}

// Len implements Source.
func (f *Folder) Len() int {
	return len(f.paths)
}

// Classes implements Source.
func (f *Folder) Classes() []string {
	return f.classes
}

// Path returns the file backing example i.
func (f *Folder) Path(i int) string {
	return f.paths[i]
}

// Example implements Source. Frames are RGB.
func (f *Folder) Example(i int) (*Frame, int, error) {
	if i < 0 || i >= len(f.paths) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, len(f.paths))
	}
	file, err := os.Open(f.paths[i])
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", f.paths[i], err)
	}
	return FrameFromImage(img, f.size), f.labels[i], nil
}

// Label returns the class of example i without decoding it.
func (f *Folder) Label(i int) (int, error) {
	if i < 0 || i >= len(f.labels) {
		return 0, fmt.Errorf("index %d out of range [0, %d)", i, len(f.labels))
	}
	return f.labels[i], nil
}
