package codec

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gen2brain/avif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Options struct {
	Quality      int
	QualityAlpha int
	Speed        int
}

func DefaultOptions() Options {
	return Options{
		Quality:      80,
		QualityAlpha: 80,
		Speed:        6,
	}
}

// AVIF maps the options onto the avif encoder settings.
func (o Options) AVIF() avif.Options {
	return avif.Options{
		Quality:           o.Quality,
		QualityAlpha:      o.QualityAlpha,
		Speed:             o.Speed,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	}
}

func (o Options) JPEG() *jpeg.Options {
	q := o.Quality
	if q < 1 {
		q = 1
	}
	return &jpeg.Options{Quality: q}
}

// webp has a decoder only; converting to webp reports ErrUnsupportedFormat.
func (l *Library) registerDefaults() {
	avifOpts := l.opts.AVIF()
	jpegOpts := l.opts.JPEG()

	l.Register("avif", func(w io.Writer, img image.Image) error {
		return avif.Encode(w, img, avifOpts)
	})
	l.Register("png", func(w io.Writer, img image.Image) error {
		enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode(w, img)
	})
	l.Register("jpeg", func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, jpegOpts)
	})
	l.Register("gif", func(w io.Writer, img image.Image) error {
		return gif.Encode(w, img, nil)
	})
	l.Register("bmp", bmp.Encode)
	l.Register("tiff", func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	})
}
