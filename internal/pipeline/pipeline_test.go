package pipeline_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bindery/internal/comic"
	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/pipeline"
	"bindery/internal/services"
	"bindery/internal/testsupport"
)

func newPipeline(t *testing.T, cfg *config.Config, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func collect(t *testing.T, ch <-chan comic.Event) []comic.Event {
	t.Helper()
	var events []comic.Event
	timeout := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for batch events")
		}
	}
}

func updatesFor(events []comic.Event, id int) []comic.Status {
	var statuses []comic.Status
	for _, ev := range events {
		if ev.Type == comic.EventUpdate && ev.ID == id {
			statuses = append(statuses, ev.Status)
		}
	}
	return statuses
}

func finalStatus(t *testing.T, events []comic.Event, id int) comic.Status {
	t.Helper()
	statuses := updatesFor(events, id)
	if len(statuses) == 0 {
		t.Fatalf("no updates for id %d", id)
	}
	return statuses[len(statuses)-1]
}

func countType(events []comic.Event, kind comic.EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

// verifyStream checks the batch event contract: one register per input, a
// single done event after every update, and no update once an entity is
// terminal.
func verifyStream(t *testing.T, events []comic.Event, inputs int) {
	t.Helper()

	if got := countType(events, comic.EventRegister); got != inputs {
		t.Fatalf("expected %d register events, got %d", inputs, got)
	}
	if got := countType(events, comic.EventDone); got != 1 {
		t.Fatalf("expected exactly one done event, got %d", got)
	}
	if events[len(events)-1].Type != comic.EventDone {
		t.Fatalf("expected done to be the final event, got %+v", events[len(events)-1])
	}
	terminal := map[int]bool{}
	for _, ev := range events {
		if ev.Type != comic.EventUpdate {
			continue
		}
		if terminal[ev.ID] {
			t.Fatalf("update for id %d after terminal status: %+v", ev.ID, ev.Status)
		}
		if ev.Status.IsTerminal() {
			terminal[ev.ID] = true
		}
	}
}

func readZipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip %s: %v", path, err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestRunConvertsBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	inputs := []string{
		filepath.Join(base, "in", "alpha.cbz"),
		filepath.Join(base, "in", "beta issue 2.cbz"),
	}
	testsupport.WriteComicArchive(t, inputs[0], 2)
	testsupport.WriteComicArchive(t, inputs[1], 3)

	p := newPipeline(t, cfg)
	events := collect(t, p.Run(context.Background(), inputs, cfg.Output.Dir))
	verifyStream(t, events, len(inputs))

	for id := range inputs {
		if status := finalStatus(t, events, id); status.Kind != comic.StatusSuccess {
			t.Fatalf("id %d: expected success, got %v", id, status)
		}
	}

	alpha := filepath.Join(cfg.Output.Dir, "Alpha.cbz")
	names := readZipNames(t, alpha)
	if len(names) != 3 {
		t.Fatalf("expected metadata plus 2 pages in %s, got %v", alpha, names)
	}
	if names[0] != "ComicInfo.xml" {
		t.Fatalf("expected ComicInfo.xml first, got %v", names)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "Beta Issue 2.cbz")); err != nil {
		t.Fatalf("expected second artifact: %v", err)
	}

	entries, err := os.ReadDir(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staging dir swept after batch, found %d entries", len(entries))
	}
}

func TestRunContinuesPastFailedInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	inputs := []string{
		filepath.Join(base, "in", "good.cbz"),
		filepath.Join(base, "in", "broken.cbz"),
		filepath.Join(base, "in", "also good.cbz"),
	}
	testsupport.WriteComicArchive(t, inputs[0], 2)
	testsupport.WriteFile(t, inputs[1], 64)
	testsupport.WriteComicArchive(t, inputs[2], 2)

	p := newPipeline(t, cfg)
	events := collect(t, p.Run(context.Background(), inputs, cfg.Output.Dir))
	verifyStream(t, events, len(inputs))

	failed := finalStatus(t, events, 1)
	if failed.Kind != comic.StatusFailed {
		t.Fatalf("expected broken input to fail, got %v", failed)
	}
	if failed.Stage != comic.StageExtract {
		t.Fatalf("expected failure during extract, got %q", failed.Stage)
	}
	if failed.Err == nil {
		t.Fatal("expected failure status to carry the error")
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "Broken.cbz")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no artifact for failed input, stat: %v", err)
	}

	for _, id := range []int{0, 2} {
		if status := finalStatus(t, events, id); status.Kind != comic.StatusSuccess {
			t.Fatalf("id %d: expected success despite sibling failure, got %v", id, status)
		}
	}
}

func TestRunEmptyBatchEmitsDone(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	p := newPipeline(t, cfg)
	events := collect(t, p.Run(context.Background(), nil, cfg.Output.Dir))

	if len(events) != 1 || events[0].Type != comic.EventDone {
		t.Fatalf("expected a lone done event, got %+v", events)
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	inputs := []string{
		filepath.Join(base, "in", "ghost.cbz"),
		filepath.Join(base, "in", "real.cbz"),
	}
	testsupport.WriteComicArchive(t, inputs[1], 2)

	p := newPipeline(t, cfg)
	events := collect(t, p.Run(context.Background(), inputs, cfg.Output.Dir))
	verifyStream(t, events, len(inputs))

	statuses := updatesFor(events, 0)
	if len(statuses) != 1 {
		t.Fatalf("expected a single terminal update for the missing input, got %v", statuses)
	}
	if statuses[0].Kind != comic.StatusFailed || !errors.Is(statuses[0].Err, services.ErrNotFound) {
		t.Fatalf("expected not-found failure, got %v", statuses[0])
	}

	if status := finalStatus(t, events, 1); status.Kind != comic.StatusSuccess {
		t.Fatalf("expected remaining input to convert, got %v", status)
	}
}

func TestRunReportsWorkspaceFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	blocker := filepath.Join(base, "blocker")
	testsupport.WriteFile(t, blocker, 1)
	cfg.Paths.StagingDir = filepath.Join(blocker, "staging")

	inputs := []string{
		filepath.Join(base, "in", "alpha.cbz"),
		filepath.Join(base, "in", "beta.cbz"),
	}
	testsupport.WriteComicArchive(t, inputs[0], 2)
	testsupport.WriteComicArchive(t, inputs[1], 2)

	p := newPipeline(t, cfg)
	events := collect(t, p.Run(context.Background(), inputs, cfg.Output.Dir))
	verifyStream(t, events, len(inputs))

	for id := range inputs {
		statuses := updatesFor(events, id)
		if len(statuses) != 1 {
			t.Fatalf("id %d: expected a single terminal update, got %v", id, statuses)
		}
		if statuses[0].Kind != comic.StatusFailed || !errors.Is(statuses[0].Err, services.ErrConfiguration) {
			t.Fatalf("id %d: expected configuration failure, got %v", id, statuses[0])
		}
	}

	entries, err := os.ReadDir(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no artifacts, found %d", len(entries))
	}
}

func TestRunStagesProgressInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)

	input := filepath.Join(base, "in", "solo.cbz")
	testsupport.WriteComicArchive(t, input, 4)

	p := newPipeline(t, cfg)
	events := collect(t, p.Run(context.Background(), []string{input}, cfg.Output.Dir))
	verifyStream(t, events, 1)

	statuses := updatesFor(events, 0)
	var stages []comic.Stage
	lastPercent := -1.0
	for _, status := range statuses {
		if status.Kind != comic.StatusWorking {
			continue
		}
		if len(stages) == 0 || stages[len(stages)-1] != status.Stage {
			stages = append(stages, status.Stage)
		}
		if status.Percent < lastPercent {
			t.Fatalf("progress went backwards: %v", statuses)
		}
		lastPercent = status.Percent
	}

	want := []comic.Stage{comic.StageExtract, comic.StageProcess, comic.StagePackage}
	if len(stages) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, stages)
	}
	for i, stage := range want {
		if stages[i] != stage {
			t.Fatalf("expected stages %v, got %v", want, stages)
		}
	}
	if lastPercent != 75 {
		t.Fatalf("expected final working percent 75, got %v", lastPercent)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Output.Format = "docx"

	if _, err := pipeline.New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestNewValidatesConverterSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFormat("mobi"))
	cfg.Kindlegen.Compression = 9

	if _, err := pipeline.New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for out-of-range compression")
	}
}
