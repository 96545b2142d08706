// Package cbz packages processed pages into a CBZ archive. Entries use
// Store mode since the pages are already JPEG compressed; a ComicInfo.xml
// entry carries the title metadata readers look for.
package cbz

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"time"

	"bindery/internal/comic"
	"bindery/internal/services"
)

type comicInfo struct {
	XMLName   xml.Name `xml:"ComicInfo"`
	Series    string   `xml:"Series"`
	Title     string   `xml:"Title,omitempty"`
	PageCount int      `xml:"PageCount"`
}

// Build writes the comic's processed pages into a CBZ in its work
// directory and returns the staged path. The artifact is moved to the
// output directory by the caller only after the whole item succeeds.
func Build(c *comic.Comic) (string, error) {
	out := c.StagedPath(comic.FormatCBZ.Ext())

	f, err := os.Create(out)
	if err != nil {
		return "", wrap("create archive", out, err)
	}
	zw := zip.NewWriter(f)

	if err := writeComicInfo(zw, c); err != nil {
		zw.Close()
		f.Close()
		return "", err
	}
	for _, page := range c.ProcessedFiles {
		if err := writePage(zw, page); err != nil {
			zw.Close()
			f.Close()
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return "", wrap("finalize archive", out, err)
	}
	if err := f.Close(); err != nil {
		return "", wrap("finalize archive", out, err)
	}
	return out, nil
}

func writeComicInfo(zw *zip.Writer, c *comic.Comic) error {
	info := comicInfo{
		Series:    c.Title,
		Title:     c.Title,
		PageCount: len(c.ProcessedFiles),
	}
	payload, err := xml.MarshalIndent(info, "", "  ")
	if err != nil {
		return wrap("encode metadata", "ComicInfo.xml", err)
	}

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     "ComicInfo.xml",
		Method:   zip.Store,
		Modified: time.Now(),
	})
	if err != nil {
		return wrap("write metadata", "ComicInfo.xml", err)
	}
	if _, err := w.Write(append([]byte(xml.Header), payload...)); err != nil {
		return wrap("write metadata", "ComicInfo.xml", err)
	}
	return nil
}

func writePage(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return wrap("read page", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return wrap("read page", path, err)
	}
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filepath.Base(path),
		Method:   zip.Store,
		Modified: info.ModTime(),
	})
	if err != nil {
		return wrap("write page", path, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return wrap("write page", path, err)
	}
	return nil
}

func wrap(op, detail string, err error) error {
	return services.Wrap(nil, "package", op, detail, err)
}
