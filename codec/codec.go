// Package codec opens source images and re-encodes them into a target format.
//
// Decoding goes through the standard image registry, so every format whose
// decoder is linked into the binary can be opened. Encoding is limited to the
// formats registered on a Library.
package codec

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrClosed            = errors.New("image handle is closed")
)

// Adapter is the capability a conversion task needs from an image library.
type Adapter interface {
	Open(path string) (Handle, error)
	Save(h Handle, path, format string) error
}

// Handle is an opened source image. Close must be called on every exit path.
type Handle interface {
	Path() string
	Format() string
	Config() image.Config
	Image() (image.Image, error)
	Close() error
}

// Encoder writes img to w in a single output format.
type Encoder func(w io.Writer, img image.Image) error

type Library struct {
	opts Options

	mu       sync.RWMutex
	encoders map[string]Encoder
}

func NewLibrary(opts Options) *Library {
	l := &Library{
		opts:     opts,
		encoders: make(map[string]Encoder),
	}
	l.registerDefaults()
	return l
}

// Register adds or replaces the encoder used for format.
func (l *Library) Register(format string, enc Encoder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.encoders[NormalizeFormat(format)] = enc
}

func (l *Library) Supports(format string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.encoders[NormalizeFormat(format)]
	return ok
}

// Formats lists the registered output formats in sorted order.
func (l *Library) Formats() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.encoders))
	for name := range l.encoders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open validates the image header and keeps the file open until Close.
// The pixel data is decoded lazily by Handle.Image.
func (l *Library) Open(path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error reading image header: %w", err)
	}

	return &fileHandle{
		path:   path,
		file:   f,
		format: format,
		config: cfg,
	}, nil
}

// Save encodes h into format and writes it to path. The output is written to
// a temporary file in the destination directory and renamed into place, so a
// failed encode never leaves a truncated file behind.
func (l *Library) Save(h Handle, path, format string) (err error) {
	l.mu.RLock()
	enc, ok := l.encoders[NormalizeFormat(format)]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	img, err := h.Image()
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if err != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err = enc(tempFile, img); err != nil {
		return fmt.Errorf("error encoding to %s: %w", NormalizeFormat(format), err)
	}
	if err = tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("error renaming file: %w", err)
	}
	return nil
}

// NormalizeFormat lower-cases a format name, drops a leading dot and folds
// common aliases onto the canonical name.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch f {
	case "jpg", "jpe":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return f
}

type fileHandle struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	format string
	config image.Config
	img    image.Image
}

func (h *fileHandle) Path() string         { return h.path }
func (h *fileHandle) Format() string       { return h.format }
func (h *fileHandle) Config() image.Config { return h.config }

func (h *fileHandle) Image() (image.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil, ErrClosed
	}
	if h.img != nil {
		return h.img, nil
	}

	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error rewinding file: %w", err)
	}
	img, _, err := image.Decode(h.file)
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}
	h.img = img
	return img, nil
}

func (h *fileHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	h.img = nil
	return err
}
