package archive

import (
	"image"
	"path"
	"path/filepath"
	"strings"

	"bindery/internal/services"
)

// Page is a single comic page: the entry name it came from and the decoded
// image data.
type Page struct {
	Name  string
	Image image.Image
}

// backend yields pages for one container format.
type backend interface {
	pages() int
	next() (Page, error)
	close() error
}

// Book is an open comic archive. Pages reports the total page count up
// front; Next returns pages one at a time in reading order and io.EOF once
// the book is exhausted. Close releases the underlying reader.
type Book struct {
	path    string
	backend backend
}

// Open opens the archive at path, choosing the backend from the file
// extension. Unsupported extensions and unreadable or corrupt containers
// fail here; a container that opens but holds no images fails too, so the
// caller never starts a conversion with zero pages.
func Open(filePath string) (*Book, error) {
	var (
		b   backend
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".cbz", ".zip":
		b, err = openZip(filePath)
	case ".cbr", ".rar":
		b, err = openRar(filePath)
	case ".pdf":
		b, err = openPDF(filePath)
	default:
		return nil, services.Wrap(services.ErrValidation, "extract", "open archive", "unsupported file type "+ext, nil)
	}
	if err != nil {
		return nil, err
	}
	if b.pages() == 0 {
		b.close()
		return nil, services.Wrap(services.ErrValidation, "extract", "open archive", "no pages found in "+filepath.Base(filePath), nil)
	}
	return &Book{path: filePath, backend: b}, nil
}

// Pages returns the number of pages the book will yield.
func (b *Book) Pages() int {
	return b.backend.pages()
}

// Next returns the next page in reading order, or io.EOF when done.
func (b *Book) Next() (Page, error) {
	return b.backend.next()
}

// Close releases the book's resources. Safe to call after a failed Next.
func (b *Book) Close() error {
	return b.backend.close()
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// isImageEntry reports whether an archive entry looks like a comic page.
// Directory markers, hidden files, and macOS resource-fork junk are skipped.
func isImageEntry(name string) bool {
	if name == "" || strings.HasSuffix(name, "/") {
		return false
	}
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if strings.HasPrefix(clean, "__MACOSX") {
		return false
	}
	base := path.Base(clean)
	if strings.HasPrefix(base, ".") {
		return false
	}
	lower := strings.ToLower(base)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
