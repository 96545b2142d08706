package comic

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bindery/internal/services"
	"bindery/internal/textutil"
)

// Comic is the per-input-file unit of work. It is created by the dispatcher,
// mutated by exactly one goroutine at a time, and reports every status
// transition through the batch event stream.
type Comic struct {
	ID        int
	Input     string
	OutputDir string
	Title     string
	Config    Config
	WorkDir   string

	// ProcessedFiles is the ordered list of page images produced by the
	// processing stage. Written once, after the stage succeeds.
	ProcessedFiles []string

	status  Status
	timings map[Stage]time.Duration
	events  chan<- Event
}

// New validates the input file, creates the per-item staging area, and
// returns a pending entity. A returned error means the file never obtains an
// entity; the caller reports it failed and moves on.
func New(id int, input, outputDir, title string, cfg Config, workDir string, events chan<- Event) (*Comic, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "", "open input", input, err)
	}
	if !info.Mode().IsRegular() {
		return nil, services.Wrap(services.ErrValidation, "", "open input", fmt.Sprintf("%s is not a regular file", input), nil)
	}
	if info.Size() == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "open input", fmt.Sprintf("%s is empty", input), nil)
	}
	c := &Comic{
		ID:        id,
		Input:     input,
		OutputDir: outputDir,
		Title:     title,
		Config:    cfg,
		WorkDir:   workDir,
		status:    Pending(),
		timings:   make(map[Stage]time.Duration),
		events:    events,
	}
	if err := os.MkdirAll(c.ProcessedDir(), 0o755); err != nil {
		return nil, services.Wrap(nil, "", "create staging", c.ProcessedDir(), err)
	}
	return c, nil
}

// Status returns the current lifecycle value.
func (c *Comic) Status() Status {
	return c.status
}

// SetWorking transitions to an in-progress status and emits an update.
// Ignored once the entity is terminal.
func (c *Comic) SetWorking(stage Stage, percent float64) {
	if c.status.IsTerminal() {
		return
	}
	c.status = Working(stage, percent)
	c.emit()
}

// Succeed marks the entity terminally successful and emits an update.
// Ignored once the entity is terminal.
func (c *Comic) Succeed() {
	if c.status.IsTerminal() {
		return
	}
	c.status = Succeeded()
	c.emit()
}

// Fail marks the entity terminally failed, recording the stage it was in,
// and emits an update. Ignored once the entity is terminal.
func (c *Comic) Fail(err error) {
	if c.status.IsTerminal() {
		return
	}
	c.status = Failure(c.status.Stage, err)
	c.emit()
}

// Step drives one pipeline stage: transition to working at the given
// percent, run fn, and either record the stage duration or fail the entity
// with fn's error. The error is returned so callers can short-circuit the
// remaining stages.
func (c *Comic) Step(stage Stage, percent float64, fn func() error) error {
	c.SetWorking(stage, percent)
	start := time.Now()
	if err := fn(); err != nil {
		c.Fail(err)
		return err
	}
	c.timings[stage] = time.Since(start)
	return nil
}

// RecordStageDuration stores the elapsed time for a stage that completes
// outside Step, such as the detached binary conversion.
func (c *Comic) RecordStageDuration(stage Stage, d time.Duration) {
	c.timings[stage] = d
}

// StageDuration returns the recorded duration for a completed stage.
func (c *Comic) StageDuration(stage Stage) (time.Duration, bool) {
	d, ok := c.timings[stage]
	return d, ok
}

// TotalDuration sums the recorded stage durations.
func (c *Comic) TotalDuration() time.Duration {
	var total time.Duration
	for _, d := range c.timings {
		total += d
	}
	return total
}

// SafeTitle returns the title sanitized for filesystem use.
func (c *Comic) SafeTitle() string {
	if safe := textutil.SanitizeFileName(c.Title); safe != "" {
		return safe
	}
	return fmt.Sprintf("comic-%d", c.ID)
}

// ProcessedDir is the staging directory receiving processed page images.
func (c *Comic) ProcessedDir() string {
	return filepath.Join(c.WorkDir, "pages")
}

// StagedPath returns the staging location for an intermediate artifact with
// the given extension (dot included).
func (c *Comic) StagedPath(ext string) string {
	return filepath.Join(c.WorkDir, c.SafeTitle()+ext)
}

// OutputPath is the final artifact destination under the batch output
// directory. Nothing is written here except on the success path.
func (c *Comic) OutputPath() string {
	return filepath.Join(c.OutputDir, c.SafeTitle()+c.Config.Format.Ext())
}

// CleanupWork removes the per-item staging directory.
func (c *Comic) CleanupWork() {
	if c.WorkDir != "" {
		_ = os.RemoveAll(c.WorkDir)
	}
}

func (c *Comic) emit() {
	if c.events != nil {
		c.events <- UpdateEvent(c.ID, c.status)
	}
}
