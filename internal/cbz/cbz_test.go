package cbz

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bindery/internal/comic"
)

func newTestComic(t *testing.T, title string, pages int) *comic.Comic {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, "input.cbz")
	if err := os.WriteFile(input, []byte("placeholder archive"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	c, err := comic.New(1, input, filepath.Join(dir, "out"), title,
		comic.Config{Format: comic.FormatCBZ}, filepath.Join(dir, "work"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 1; i <= pages; i++ {
		page := filepath.Join(c.ProcessedDir(), pageName(i))
		if err := os.WriteFile(page, []byte("jpeg bytes"), 0o644); err != nil {
			t.Fatalf("write page: %v", err)
		}
		c.ProcessedFiles = append(c.ProcessedFiles, page)
	}
	return c
}

func pageName(i int) string {
	return "page_000" + string(rune('0'+i)) + ".jpg"
}

func TestBuildCreatesArchiveWithMetadata(t *testing.T) {
	c := newTestComic(t, "Saga Vol 01", 3)

	out, err := Build(c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if filepath.Ext(out) != ".cbz" {
		t.Errorf("unexpected extension on %s", out)
	}

	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open built archive: %v", err)
	}
	defer r.Close()

	if len(r.File) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(r.File))
	}
	if r.File[0].Name != "ComicInfo.xml" {
		t.Errorf("first entry %s, want ComicInfo.xml", r.File[0].Name)
	}
	for _, f := range r.File {
		if f.Method != zip.Store {
			t.Errorf("entry %s uses method %d, want Store", f.Name, f.Method)
		}
	}

	rc, err := r.File[0].Open()
	if err != nil {
		t.Fatalf("open metadata: %v", err)
	}
	payload, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if !strings.Contains(string(payload), "<Series>Saga Vol 01</Series>") {
		t.Errorf("metadata missing series: %s", payload)
	}
	if !strings.Contains(string(payload), "<PageCount>3</PageCount>") {
		t.Errorf("metadata missing page count: %s", payload)
	}
}

func TestBuildPreservesPageOrder(t *testing.T) {
	c := newTestComic(t, "Ordered", 4)

	out, err := Build(c)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open built archive: %v", err)
	}
	defer r.Close()

	for i := 1; i < len(r.File); i++ {
		want := pageName(i)
		if r.File[i].Name != want {
			t.Errorf("entry %d = %s, want %s", i, r.File[i].Name, want)
		}
	}
}

func TestBuildFailsOnMissingPage(t *testing.T) {
	c := newTestComic(t, "Broken", 1)
	c.ProcessedFiles = append(c.ProcessedFiles, filepath.Join(c.ProcessedDir(), "missing.jpg"))

	if _, err := Build(c); err == nil {
		t.Fatal("expected error for missing page file")
	}
}
