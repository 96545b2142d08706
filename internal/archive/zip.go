package archive

import (
	"archive/zip"
	"io"
	"path/filepath"
)

// zipBook reads CBZ and plain ZIP archives. The zip central directory gives
// random access, so entries are indexed and sorted up front and each page is
// decompressed only when Next reaches it.
type zipBook struct {
	reader  *zip.ReadCloser
	entries map[string]*zip.File
	order   []string
	pos     int
}

func openZip(path string) (*zipBook, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, wrapOpenErr("open archive", filepath.Base(path), err)
	}

	book := &zipBook{
		reader:  r,
		entries: make(map[string]*zip.File, len(r.File)),
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isImageEntry(f.Name) {
			continue
		}
		book.entries[f.Name] = f
		book.order = append(book.order, f.Name)
	}
	sortPageNames(book.order)

	return book, nil
}

func (b *zipBook) pages() int { return len(b.order) }

func (b *zipBook) next() (Page, error) {
	if b.pos >= len(b.order) {
		return Page{}, io.EOF
	}
	name := b.order[b.pos]
	b.pos++

	rc, err := b.entries[name].Open()
	if err != nil {
		return Page{}, wrapOpenErr("read page", name, err)
	}
	defer rc.Close()

	img, err := decodeImage(name, rc)
	if err != nil {
		return Page{}, err
	}
	return Page{Name: name, Image: img}, nil
}

func (b *zipBook) close() error { return b.reader.Close() }
