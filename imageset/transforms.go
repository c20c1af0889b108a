package imageset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

// Transform is one step of an augmentation pipeline. Implementations must
// not modify the input frame and must only draw randomness from rng, so
// that loader workers can run them concurrently.
type Transform interface {
	Apply(f *Frame, rng *rand.Rand) (*Frame, error)
	String() string
}

// Per-channel normalisation constants.
var (
	MNISTMean   = []float32{0.5}
	MNISTStd    = []float32{0.5}
	CIFAR10Mean = []float32{0.4914, 0.4822, 0.4465}
	CIFAR10Std  = []float32{0.2023, 0.1994, 0.2010}
)

// ErrUnknownPipeline is returned by Pipeline for unregistered names.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// Compose chains transforms left to right.
func Compose(ts ...Transform) Transform {
	return composed(ts)
}

type composed []Transform

func (c composed) Apply(f *Frame, rng *rand.Rand) (*Frame, error) {
	var err error
	for _, t := range c {
		f, err = t.Apply(f, rng)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
	}
	return f, nil
}

func (c composed) String() string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.String()
	}
	return "Compose(" + strings.Join(names, ", ") + ")"
}

// RandomCrop zero-pads every border by padding pixels and then cuts a
// size x size window at a random offset.
func RandomCrop(size, padding int) Transform {
	return randomCrop{size: size, padding: padding}
}

type randomCrop struct {
	size, padding int
}

func (t randomCrop) Apply(f *Frame, rng *rand.Rand) (*Frame, error) {
	ph, pw := f.Height+2*t.padding, f.Width+2*t.padding
	if t.size <= 0 || ph < t.size || pw < t.size {
		return nil, fmt.Errorf("crop %d does not fit padded frame %dx%d", t.size, ph, pw)
	}
	top := rng.Intn(ph - t.size + 1)
	left := rng.Intn(pw - t.size + 1)

	out := NewFrame(f.Channels, t.size, t.size)
	out.Scaled = f.Scaled
	for c := range f.Channels {
		for y := range t.size {
			sy := top + y - t.padding
			if sy < 0 || sy >= f.Height {
				continue
			}
			for x := range t.size {
				sx := left + x - t.padding
				if sx < 0 || sx >= f.Width {
					continue
				}
				out.Set(c, y, x, f.At(c, sy, sx))
			}
		}
	}
	return out, nil
}

func (t randomCrop) String() string {
	return fmt.Sprintf("RandomCrop(%d, padding=%d)", t.size, t.padding)
}

// RandomHorizontalFlip mirrors the frame left to right with probability p.
func RandomHorizontalFlip(p float64) Transform {
	return randomFlip{p: p}
}

type randomFlip struct {
	p float64
}

func (t randomFlip) Apply(f *Frame, rng *rand.Rand) (*Frame, error) {
	if rng.Float64() >= t.p {
		return f, nil
	}
	return flipHorizontal(f), nil
}

func flipHorizontal(f *Frame) *Frame {
	out := NewFrame(f.Channels, f.Height, f.Width)
	out.Scaled = f.Scaled
	for c := range f.Channels {
		for y := range f.Height {
			for x := range f.Width {
				out.Set(c, y, f.Width-1-x, f.At(c, y, x))
			}
		}
	}
	return out
}

func (t randomFlip) String() string {
	return fmt.Sprintf("RandomHorizontalFlip(p=%g)", t.p)
}

// Grayscale converts RGB frames to luma (ITU-R 601-2 weights) and repeats
// it over outChannels channels (1 or 3). Single channel inputs are only
// repeated.
func Grayscale(outChannels int) Transform {
	return grayscale{out: outChannels}
}

type grayscale struct {
	out int
}

func (t grayscale) Apply(f *Frame, _ *rand.Rand) (*Frame, error) {
	if t.out != 1 && t.out != 3 {
		return nil, fmt.Errorf("grayscale output must have 1 or 3 channels, got %d", t.out)
	}
	if f.Channels != 1 && f.Channels != 3 {
		return nil, fmt.Errorf("grayscale input must have 1 or 3 channels, got %d", f.Channels)
	}
	plane := f.Height * f.Width
	luma := make([]float32, plane)
	if f.Channels == 1 {
		copy(luma, f.Pix)
	} else {
		r, g, b := f.Pix[:plane], f.Pix[plane:2*plane], f.Pix[2*plane:]
		for i := range luma {
			luma[i] = roundLevel(r[i]*0.299+g[i]*0.587+b[i]*0.114, f.Scaled)
		}
	}
	out := NewFrame(t.out, f.Height, f.Width)
	out.Scaled = f.Scaled
	for c := range t.out {
		copy(out.Pix[c*plane:], luma)
	}
	return out, nil
}

// roundLevel snaps v to the nearest of the 256 levels of an 8-bit image.
func roundLevel(v float32, scaled bool) float32 {
	if scaled {
		return float32(math.Round(float64(v)*255) / 255)
	}
	return float32(math.Round(float64(v)))
}

func (t grayscale) String() string {
	return fmt.Sprintf("Grayscale(%d)", t.out)
}

// ToTensor rescales pixel values from [0, 255] to [0, 1].
func ToTensor() Transform {
	return toTensor{}
}

type toTensor struct{}

func (toTensor) Apply(f *Frame, _ *rand.Rand) (*Frame, error) {
	if f.Scaled {
		return f, nil
	}
	out := f.Clone()
	for i := range out.Pix {
		out.Pix[i] /= 255
	}
	out.Scaled = true
	return out, nil
}

func (toTensor) String() string { return "ToTensor()" }

// Normalize maps every channel c to (v - mean[c]) / std[c]. A single mean
// and std apply to every channel.
func Normalize(mean, std []float32) Transform {
	return normalize{mean: mean, std: std}
}

type normalize struct {
	mean, std []float32
}

func (t normalize) Apply(f *Frame, _ *rand.Rand) (*Frame, error) {
	if len(t.mean) != len(t.std) {
		return nil, fmt.Errorf("mean has %d values, std has %d", len(t.mean), len(t.std))
	}
	if len(t.mean) != 1 && len(t.mean) != f.Channels {
		return nil, fmt.Errorf("normalize has %d values for a %d channel frame", len(t.mean), f.Channels)
	}
	out := f.Clone()
	plane := f.Height * f.Width
	for c := range f.Channels {
		k := 0
		if len(t.mean) > 1 {
			k = c
		}
		if t.std[k] == 0 {
			return nil, fmt.Errorf("std for channel %d is zero", c)
		}
		ch := out.Pix[c*plane : (c+1)*plane]
		for i := range ch {
			ch[i] = (ch[i] - t.mean[k]) / t.std[k]
		}
	}
	return out, nil
}

func (t normalize) String() string {
	return fmt.Sprintf("Normalize(mean=%v, std=%v)", t.mean, t.std)
}

var (
	pipelinesMu sync.RWMutex
	pipelines   = map[string]func() Transform{
		"mnist/train": func() Transform {
			return Compose(RandomCrop(28, 4), ToTensor(), Normalize(MNISTMean, MNISTStd))
		},
		"mnist/eval": func() Transform {
			return Compose(ToTensor(), Normalize(MNISTMean, MNISTStd))
		},
		"cifar10/train": func() Transform {
			return Compose(RandomCrop(32, 4), RandomHorizontalFlip(0.5), ToTensor(), Normalize(CIFAR10Mean, CIFAR10Std))
		},
		"cifar10/eval": func() Transform {
			return Compose(ToTensor(), Normalize(CIFAR10Mean, CIFAR10Std))
		},
		"folder/train": func() Transform {
			return Compose(Grayscale(1), ToTensor(), Normalize(MNISTMean, MNISTStd))
		},
		"folder/eval": func() Transform {
			return Compose(Grayscale(1), ToTensor(), Normalize(MNISTMean, MNISTStd))
		},
	}
)

// Pipeline returns the named augmentation pipeline.
func Pipeline(name string) (Transform, error) {
	pipelinesMu.RLock()
	defer pipelinesMu.RUnlock()
	fn, ok := pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	return fn(), nil
}

// RegisterPipeline adds or replaces a named pipeline.
func RegisterPipeline(name string, fn func() Transform) {
	pipelinesMu.Lock()
	defer pipelinesMu.Unlock()
	pipelines[name] = fn
}

// Pipelines lists the registered pipeline names in sorted order.
func Pipelines() []string {
	pipelinesMu.RLock()
	defer pipelinesMu.RUnlock()
	names := make([]string, 0, len(pipelines))
	for name := range pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
