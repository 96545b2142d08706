// Package ebook assembles processed pages into a fixed-layout EPUB 3, the
// container comic readers and kindlegen both accept. Every page becomes one
// pre-paginated XHTML document sized to its image; page one doubles as the
// cover.
package ebook

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"text/template"
	"time"

	_ "image/jpeg"

	"github.com/google/uuid"

	"bindery/internal/comic"
	"bindery/internal/services"
)

type page struct {
	Width     int
	Height    int
	Cover     bool
	ImageID   string
	ImageHref string
	PageID    string
	PageHref  string
}

type packageData struct {
	Identifier string
	Title      string
	Modified   string
	Pages      []page
}

type pageData struct {
	Title     string
	Alt       string
	Width     int
	Height    int
	ImageHref string
}

type navData struct {
	Title string
}

// Build writes the comic's processed pages into an EPUB in its work
// directory and returns the staged path. As with the CBZ builder, moving
// the artifact to the output directory is the caller's success-path step.
func Build(c *comic.Comic) (string, error) {
	pages, err := collectPages(c.ProcessedFiles)
	if err != nil {
		return "", err
	}

	out := c.StagedPath(comic.FormatEPUB.Ext())
	f, err := os.Create(out)
	if err != nil {
		return "", wrap("create container", out, err)
	}
	zw := zip.NewWriter(f)

	if err := writeBook(zw, c, pages); err != nil {
		zw.Close()
		f.Close()
		return "", err
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return "", wrap("finalize container", out, err)
	}
	if err := f.Close(); err != nil {
		return "", wrap("finalize container", out, err)
	}
	return out, nil
}

func writeBook(zw *zip.Writer, c *comic.Comic, pages []page) error {
	// The mimetype entry must be first and uncompressed or readers reject
	// the container.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return wrap("write mimetype", "", err)
	}
	if _, err := io.WriteString(w, "application/epub+zip"); err != nil {
		return wrap("write mimetype", "", err)
	}

	if err := writeEntry(zw, "META-INF/container.xml", []byte(containerDoc)); err != nil {
		return err
	}

	title := xmlEscape(c.Title)
	opf, err := render(packageTmpl, packageData{
		Identifier: "urn:uuid:" + uuid.NewString(),
		Title:      title,
		Modified:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Pages:      pages,
	})
	if err != nil {
		return wrap("render package document", "content.opf", err)
	}
	if err := writeEntry(zw, "OEBPS/content.opf", opf); err != nil {
		return err
	}

	nav, err := render(navTmpl, navData{Title: title})
	if err != nil {
		return wrap("render navigation", "nav.xhtml", err)
	}
	if err := writeEntry(zw, "OEBPS/nav.xhtml", nav); err != nil {
		return err
	}

	for i, p := range pages {
		doc, err := render(pageTmpl, pageData{
			Title:     title,
			Alt:       fmt.Sprintf("Page %d", i+1),
			Width:     p.Width,
			Height:    p.Height,
			ImageHref: p.ImageHref,
		})
		if err != nil {
			return wrap("render page", p.PageHref, err)
		}
		if err := writeEntry(zw, "OEBPS/"+p.PageHref, doc); err != nil {
			return err
		}
		if err := copyImage(zw, "OEBPS/"+p.ImageHref, c.ProcessedFiles[i]); err != nil {
			return err
		}
	}
	return nil
}

func collectPages(files []string) ([]page, error) {
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrValidation, "package", "assemble book", "no processed pages", nil)
	}
	pages := make([]page, 0, len(files))
	for i, path := range files {
		w, h, err := imageSize(path)
		if err != nil {
			return nil, wrap("read page size", path, err)
		}
		n := i + 1
		pages = append(pages, page{
			Width:     w,
			Height:    h,
			Cover:     i == 0,
			ImageID:   fmt.Sprintf("img-%04d", n),
			ImageHref: fmt.Sprintf("images/%s", filepath.Base(path)),
			PageID:    fmt.Sprintf("page-%04d", n),
			PageHref:  fmt.Sprintf("page_%04d.xhtml", n),
		})
	}
	return pages, nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func writeEntry(zw *zip.Writer, name string, payload []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return wrap("write entry", name, err)
	}
	if _, err := w.Write(payload); err != nil {
		return wrap("write entry", name, err)
	}
	return nil
}

func copyImage(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return wrap("copy page image", path, err)
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return wrap("copy page image", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return wrap("copy page image", name, err)
	}
	return nil
}

func render(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

func wrap(op, detail string, err error) error {
	return services.Wrap(nil, "package", op, detail, err)
}
