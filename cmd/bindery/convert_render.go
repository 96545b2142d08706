package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/progress"

	"bindery/internal/comic"
	"bindery/internal/services"
	"bindery/internal/textutil"
)

// itemReport accumulates the terminal state of one batch entry.
type itemReport struct {
	title   string
	status  comic.Status
	started time.Time
	elapsed time.Duration
}

type batchReport struct {
	order []int
	items map[int]*itemReport
}

func newBatchReport() *batchReport {
	return &batchReport{items: map[int]*itemReport{}}
}

func (r *batchReport) register(id int, title string) {
	if _, ok := r.items[id]; ok {
		return
	}
	r.order = append(r.order, id)
	r.items[id] = &itemReport{title: title, status: comic.Pending(), started: time.Now()}
}

func (r *batchReport) update(id int, status comic.Status) {
	item, ok := r.items[id]
	if !ok {
		return
	}
	item.status = status
	if status.IsTerminal() {
		item.elapsed = time.Since(item.started)
	}
}

// consumeEvents drains the pipeline's event stream until it closes. On a live
// terminal each comic gets a progress tracker; otherwise the structured log
// carries the narration and only the summary is printed.
func consumeEvents(out io.Writer, events <-chan comic.Event, interactive bool) *batchReport {
	report := newBatchReport()

	var pw progress.Writer
	var trackers map[int]*progress.Tracker
	if interactive {
		pw = newProgressWriter(out)
		trackers = map[int]*progress.Tracker{}
		go pw.Render()
	}

	for event := range events {
		switch event.Type {
		case comic.EventRegister:
			report.register(event.ID, event.FileName)
			if interactive {
				tracker := &progress.Tracker{Message: event.FileName, Total: 100}
				trackers[event.ID] = tracker
				pw.AppendTracker(tracker)
			}
		case comic.EventUpdate:
			report.update(event.ID, event.Status)
			if interactive {
				if tracker, ok := trackers[event.ID]; ok {
					applyStatus(tracker, report.items[event.ID].title, event.Status)
				}
			}
		case comic.EventDone:
		}
	}

	if interactive {
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return report
}

func newProgressWriter(out io.Writer) progress.Writer {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(25)
	pw.SetMessageLength(32)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleBlocks)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.ETAOverall = false
	pw.Style().Visibility.Speed = false
	pw.Style().Visibility.SpeedOverall = false
	pw.Style().Visibility.Value = false
	return pw
}

func applyStatus(tracker *progress.Tracker, title string, status comic.Status) {
	switch status.Kind {
	case comic.StatusWorking:
		tracker.UpdateMessage(fmt.Sprintf("%s (%s)", title, status.Stage))
		tracker.SetValue(int64(status.Percent))
	case comic.StatusSuccess:
		tracker.UpdateMessage(title)
		tracker.SetValue(100)
		tracker.MarkAsDone()
	case comic.StatusFailed:
		tracker.UpdateMessage(title)
		tracker.MarkAsErrored()
	}
}

// renderSummary prints the per-comic result table plus failure details and
// returns the number of failed conversions.
func renderSummary(out io.Writer, report *batchReport, outputDir string, format comic.OutputFormat, elapsed time.Duration) int {
	rows := make([][]string, 0, len(report.order))
	converted := 0
	for _, id := range report.order {
		item := report.items[id]
		row := []string{item.title, "", "", ""}
		switch item.status.Kind {
		case comic.StatusSuccess:
			converted++
			row[1] = "converted"
			row[2] = artifactSize(outputDir, item.title, format)
			row[3] = formatDuration(item.elapsed)
		case comic.StatusFailed:
			row[1] = "failed"
			row[3] = formatDuration(item.elapsed)
		default:
			row[1] = string(item.status.Kind)
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Comic", "Result", "Size", "Time"}, rows, 2, 3))

	failures := 0
	for _, id := range report.order {
		item := report.items[id]
		if item.status.Kind != comic.StatusFailed {
			continue
		}
		failures++
		fmt.Fprintf(out, "%s: %v\n", item.title, item.status.Err)
		if hint := services.Hint(item.status.Err); hint != "" {
			fmt.Fprintf(out, "  hint: %s\n", hint)
		}
	}

	fmt.Fprintf(out, "Converted %d of %d comics in %s\n", converted, len(report.order), formatDuration(elapsed))
	return failures
}

func artifactSize(outputDir, title string, format comic.OutputFormat) string {
	name := textutil.SanitizeFileName(title)
	if name == "" {
		return ""
	}
	info, err := os.Stat(filepath.Join(outputDir, name+format.Ext()))
	if err != nil {
		return ""
	}
	return humanize.IBytes(uint64(info.Size()))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Truncate(time.Millisecond).String()
	case d < time.Minute:
		return d.Truncate(time.Second / 10).String()
	default:
		return d.Truncate(time.Second).String()
	}
}
