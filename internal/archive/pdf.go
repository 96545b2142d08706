package archive

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// pdfBook renders PDF pages to images through go-fitz. Pages are rendered
// on demand; page names are synthesized since PDFs have no entries.
type pdfBook struct {
	doc   *fitz.Document
	count int
	pos   int
}

func openPDF(path string) (*pdfBook, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, wrapOpenErr("open archive", filepath.Base(path), err)
	}
	return &pdfBook{doc: doc, count: doc.NumPage()}, nil
}

func (b *pdfBook) pages() int { return b.count }

func (b *pdfBook) next() (Page, error) {
	if b.pos >= b.count {
		return Page{}, io.EOF
	}
	n := b.pos
	b.pos++

	name := fmt.Sprintf("page-%04d", n+1)
	img, err := b.doc.Image(n)
	if err != nil {
		return Page{}, wrapOpenErr("render page", name, err)
	}
	return Page{Name: name, Image: img}, nil
}

func (b *pdfBook) close() error {
	return b.doc.Close()
}
