package comic_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bindery/internal/comic"
	"bindery/internal/services"
)

func newTestComic(t *testing.T, events chan comic.Event) *comic.Comic {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "issue-01.cbz")
	if err := os.WriteFile(input, []byte("not really a zip"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	c, err := comic.New(0, input, filepath.Join(dir, "out"), "Issue 01",
		comic.Config{Format: comic.FormatCBZ}, filepath.Join(dir, "work"), events)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestNewValidatesInput(t *testing.T) {
	dir := t.TempDir()

	_, err := comic.New(0, filepath.Join(dir, "missing.cbz"), dir, "Missing",
		comic.Config{Format: comic.FormatCBZ}, filepath.Join(dir, "work"), nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found for missing input, got %v", err)
	}

	_, err = comic.New(1, dir, dir, "Dir",
		comic.Config{Format: comic.FormatCBZ}, filepath.Join(dir, "work"), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for directory input, got %v", err)
	}

	empty := filepath.Join(dir, "empty.cbz")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	_, err = comic.New(2, empty, dir, "Empty",
		comic.Config{Format: comic.FormatCBZ}, filepath.Join(dir, "work"), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}
}

func TestNewCreatesStagingArea(t *testing.T) {
	c := newTestComic(t, nil)
	info, err := os.Stat(c.ProcessedDir())
	if err != nil {
		t.Fatalf("expected processed dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("processed dir is not a directory")
	}
	if c.Status().Kind != comic.StatusPending {
		t.Fatalf("fresh entity status = %v", c.Status())
	}
}

func TestTransitionsEmitEventsInOrder(t *testing.T) {
	events := make(chan comic.Event, 8)
	c := newTestComic(t, events)

	c.SetWorking(comic.StageExtract, 0)
	c.SetWorking(comic.StageProcess, 30)
	c.Succeed()
	close(events)

	var got []comic.Status
	for ev := range events {
		if ev.Type != comic.EventUpdate {
			t.Fatalf("unexpected event type %q", ev.Type)
		}
		if ev.ID != c.ID {
			t.Fatalf("event id = %d, want %d", ev.ID, c.ID)
		}
		got = append(got, ev.Status)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(got))
	}
	if got[0].Stage != comic.StageExtract || got[1].Stage != comic.StageProcess {
		t.Fatalf("stage order wrong: %+v", got)
	}
	if got[2].Kind != comic.StatusSuccess {
		t.Fatalf("final status = %v", got[2])
	}
}

func TestTerminalStatusAbsorbs(t *testing.T) {
	events := make(chan comic.Event, 8)
	c := newTestComic(t, events)

	c.Fail(errors.New("boom"))
	c.SetWorking(comic.StagePackage, 75)
	c.Succeed()
	c.Fail(errors.New("again"))
	close(events)

	count := 0
	var last comic.Event
	for ev := range events {
		count++
		last = ev
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 update after terminal, got %d", count)
	}
	if last.Status.Kind != comic.StatusFailed {
		t.Fatalf("terminal status = %v", last.Status)
	}
	if c.Status().Kind != comic.StatusFailed {
		t.Fatalf("entity left terminal state: %v", c.Status())
	}
}

func TestFailRecordsCurrentStage(t *testing.T) {
	events := make(chan comic.Event, 8)
	c := newTestComic(t, events)

	c.SetWorking(comic.StageExtract, 0)
	c.Fail(errors.New("corrupt archive"))

	if got := c.Status(); got.Stage != comic.StageExtract {
		t.Fatalf("failure stage = %q, want extract", got.Stage)
	}
}

func TestStepRunsAndRecordsDuration(t *testing.T) {
	events := make(chan comic.Event, 8)
	c := newTestComic(t, events)

	ran := false
	if err := c.Step(comic.StagePackage, 75, func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !ran {
		t.Fatal("step body did not run")
	}
	if _, ok := c.StageDuration(comic.StagePackage); !ok {
		t.Fatal("expected recorded stage duration")
	}
	if c.Status().Kind != comic.StatusWorking {
		t.Fatalf("status after successful step = %v", c.Status())
	}
}

func TestStepFailsEntityOnError(t *testing.T) {
	events := make(chan comic.Event, 8)
	c := newTestComic(t, events)

	boom := errors.New("no pages")
	if err := c.Step(comic.StageExtract, 0, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Step error = %v, want %v", err, boom)
	}
	if got := c.Status(); got.Kind != comic.StatusFailed || !errors.Is(got.Err, boom) {
		t.Fatalf("status after failed step = %+v", got)
	}
	if _, ok := c.StageDuration(comic.StageExtract); ok {
		t.Fatal("failed stage must not record a duration")
	}
	if len(c.ProcessedFiles) != 0 {
		t.Fatal("failed entity must not accumulate processed files")
	}
}

func TestPathHelpers(t *testing.T) {
	c := newTestComic(t, nil)

	if got := c.OutputPath(); got != filepath.Join(c.OutputDir, "Issue 01.cbz") {
		t.Fatalf("output path = %q", got)
	}
	if got := c.StagedPath(".epub"); got != filepath.Join(c.WorkDir, "Issue 01.epub") {
		t.Fatalf("staged path = %q", got)
	}

	c.Title = "Akira: Book One"
	if got := filepath.Base(c.OutputPath()); got != "Akira- Book One.cbz" {
		t.Fatalf("sanitized output name = %q", got)
	}

	c.Title = "???"
	if got := filepath.Base(c.OutputPath()); got != "comic-0.cbz" {
		t.Fatalf("fallback output name = %q", got)
	}
}

func TestCleanupWorkRemovesStaging(t *testing.T) {
	c := newTestComic(t, nil)
	c.CleanupWork()
	if _, err := os.Stat(c.WorkDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected work dir removed, got %v", err)
	}
}
