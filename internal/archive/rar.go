package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

// rarBook reads CBR and plain RAR archives. RAR is a forward-only stream,
// so entries are spilled to a scratch directory in one pass, then served in
// sorted order. Close removes the scratch directory.
type rarBook struct {
	scratch string
	spilled map[string]string
	order   []string
	pos     int
}

func openRar(path string) (*rarBook, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, wrapOpenErr("open archive", filepath.Base(path), err)
	}
	defer r.Close()

	scratch, err := os.MkdirTemp("", "bindery-rar-*")
	if err != nil {
		return nil, wrapOpenErr("open archive", "create scratch directory", err)
	}

	book := &rarBook{scratch: scratch, spilled: make(map[string]string)}
	for i := 0; ; i++ {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			book.close()
			return nil, wrapOpenErr("read archive", filepath.Base(path), err)
		}
		if hdr.IsDir || !isImageEntry(hdr.Name) {
			continue
		}

		spill := filepath.Join(scratch, fmt.Sprintf("%06d%s", i, filepath.Ext(hdr.Name)))
		if err := writeSpill(spill, r); err != nil {
			book.close()
			return nil, wrapOpenErr("read page", hdr.Name, err)
		}
		book.spilled[hdr.Name] = spill
		book.order = append(book.order, hdr.Name)
	}
	sortPageNames(book.order)

	return book, nil
}

func writeSpill(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (b *rarBook) pages() int { return len(b.order) }

func (b *rarBook) next() (Page, error) {
	if b.pos >= len(b.order) {
		return Page{}, io.EOF
	}
	name := b.order[b.pos]
	b.pos++

	f, err := os.Open(b.spilled[name])
	if err != nil {
		return Page{}, wrapOpenErr("read page", name, err)
	}
	defer f.Close()

	img, err := decodeImage(name, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Name: name, Image: img}, nil
}

func (b *rarBook) close() error { return os.RemoveAll(b.scratch) }
