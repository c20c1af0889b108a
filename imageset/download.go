package imageset

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/renameio/v2"
	"github.com/jedib0t/go-pretty/v6/progress"

	"github.com/Noofbiz/dataFeed/internal/log"
)

// Downloader fetches dataset archives over HTTP. Files are written through
// a pending file and only appear under their final name once complete.
type Downloader struct {
	client *resty.Client

	// Progress, when set, receives one tracker per file. The caller owns
	// rendering it.
	Progress progress.Writer
}

// NewDownloader returns a downloader with a default resty client.
func NewDownloader() *Downloader {
	client := resty.New().
		SetTimeout(30 * time.Minute).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)
	return &Downloader{client: client}
}

// NewProgressWriter builds a progress writer styled for download trackers.
// Call Render in its own goroutine and Stop when finished.
func NewProgressWriter(out io.Writer) progress.Writer {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetMessageLength(40)
	pw.SetSortBy(progress.SortByPercentDsc)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerLength(15)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Options.PercentFormat = "%2.0f%%"
	return pw
}

// Fetch downloads name from the first mirror that serves it and stores it
// at dst. Mirrors are base URLs ending in a slash.
func (d *Downloader) Fetch(ctx context.Context, mirrors []string, name, dst string) error {
	logger := log.WithComponent("download")
	if len(mirrors) == 0 {
		return fmt.Errorf("no mirrors for %s", name)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	var errs []error
	for _, mirror := range mirrors {
		url := mirror + name
		n, err := d.fetchOne(ctx, url, dst)
		if err == nil {
			logger.Info().Str("url", url).Str("path", dst).Int64("bytes", n).Msg("downloaded")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Str("url", url).Msg("mirror failed")
		errs = append(errs, err)
	}
	return fmt.Errorf("failed to download %s: %w", name, errors.Join(errs...))
}

func (d *Downloader) fetchOne(ctx context.Context, url, dst string) (int64, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, err
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return 0, fmt.Errorf("GET %s: %s", url, resp.Status())
	}

	var tracker *progress.Tracker
	if d.Progress != nil {
		tracker = &progress.Tracker{
			Message: "Downloading " + filepath.Base(dst),
			Total:   resp.RawResponse.ContentLength,
			Units:   progress.UnitsBytes,
		}
		d.Progress.AppendTracker(tracker)
	}

	n, err := writeAtomically(dst, &trackedReader{r: body, tracker: tracker})
	if tracker != nil {
		if err != nil {
			tracker.MarkAsErrored()
		} else {
			tracker.MarkAsDone()
		}
	}
	return n, err
}

type trackedReader struct {
	r       io.Reader
	tracker *progress.Tracker
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if t.tracker != nil && n > 0 {
		t.tracker.Increment(int64(n))
	}
	return n, err
}

func writeAtomically(path string, r io.Reader) (int64, error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("create pending file: %w", err)
	}
	defer pending.Cleanup()

	n, err := io.Copy(pending, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return n, fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return n, nil
}

// EnsureMNIST downloads any missing MNIST archive into root.
func (d *Downloader) EnsureMNIST(ctx context.Context, root string) error {
	for _, name := range []string{MNISTTrainImages, MNISTTrainLabels, MNISTTestImages, MNISTTestLabels} {
		if exists(filepath.Join(root, name)) || exists(filepath.Join(root, strings.TrimSuffix(name, ".gz"))) {
			continue
		}
		if err := d.Fetch(ctx, MNISTMirrors, name, filepath.Join(root, name)); err != nil {
			return err
		}
	}
	return nil
}

// EnsureCIFAR10 downloads and unpacks the CIFAR-10 binary archive into
// root unless every batch file is already present.
func (d *Downloader) EnsureCIFAR10(ctx context.Context, root string) error {
	dir := filepath.Join(root, CIFAR10Dir)
	missing := false
	for _, name := range append(CIFAR10Files(true), CIFAR10Files(false)...) {
		if !exists(filepath.Join(dir, name)) {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	archive := filepath.Join(root, CIFAR10Archive)
	if !exists(archive) {
		if err := d.Fetch(ctx, CIFAR10Mirrors, CIFAR10Archive, archive); err != nil {
			return err
		}
	}
	if err := ExtractTarGz(archive, root); err != nil {
		return err
	}
	logger := log.WithComponent("download")
	logger.Info().Str("archive", archive).Str("dir", dir).Msg("extracted")
	return nil
}

// ExtractTarGz unpacks a gzip compressed tarball into dst. Entries that
// would land outside dst are rejected.
func ExtractTarGz(archive, dst string) error {
	file, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to open gzip %s: %w", archive, err)
	}
	defer gz.Close()

	root, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archive, err)
		}

		target := filepath.Join(root, filepath.FromSlash(hdr.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes %s", hdr.Name, dst)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if _, err := writeAtomically(target, tr); err != nil {
				return err
			}
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
