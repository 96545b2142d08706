package imaging

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"bindery/internal/archive"
	"bindery/internal/services"
)

// Options controls how pages are transformed before packaging.
type Options struct {
	// MaxWidth and MaxHeight bound the output dimensions. Zero means
	// unbounded on that axis; pages are never upscaled.
	MaxWidth  int
	MaxHeight int
	// Grayscale converts pages to 8-bit gray, the native depth of e-ink
	// panels.
	Grayscale bool
	// AutoContrast stretches the tonal range to full scale. Only applied
	// together with Grayscale.
	AutoContrast bool
	// Quality is the JPEG quality, 1 to 100. Zero uses 85.
	Quality int
}

// Source yields the pages of one comic. *archive.Book satisfies it.
type Source interface {
	Pages() int
	Next() (archive.Page, error)
}

// ProgressFunc receives a tick after each page is written.
type ProgressFunc func(done, total int)

// Process drains src, transforms every page, and writes the results into
// destDir as page_0001.jpg onward. It returns the written paths in reading
// order. The context is checked between pages so a canceled batch stops
// promptly.
func Process(ctx context.Context, src Source, opts Options, destDir string, progress ProgressFunc) ([]string, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = 85
	}

	total := src.Pages()
	paths := make([]string, 0, total)

	for done := 1; ; done++ {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(nil, "process", "transform pages", "canceled", err)
		}

		page, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		img := transform(page.Image, opts)

		outPath := filepath.Join(destDir, fmt.Sprintf("page_%04d.jpg", done))
		if err := writeJPEG(outPath, img, quality); err != nil {
			return nil, services.Wrap(nil, "process", "write page", page.Name, err)
		}
		paths = append(paths, outPath)

		if progress != nil {
			progress(done, total)
		}
	}

	return paths, nil
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
