package pipeline

import (
	"context"
	"time"

	"bindery/internal/comic"
	"bindery/internal/fileutil"
	"bindery/internal/logging"
	"bindery/internal/services"
	"bindery/internal/services/kindlegen"
)

// inflight tracks one detached conversion between launch and settlement.
type inflight struct {
	comic   *comic.Comic
	proc    kindlegen.Process
	started time.Time
}

// superviseConversions owns the MOBI tail of the pipeline. One cooperative
// loop drains newly staged comics from the queue, launches their
// conversions, polls the in-flight set without blocking, and settles
// whatever finished. It returns once the queue is closed and the in-flight
// set is empty, emitting the batch done event on its way out.
func (p *Pipeline) superviseConversions(ctx context.Context, queue <-chan *comic.Comic, events chan<- comic.Event) {
	var pending []inflight
	open := true

	for {
		if open {
		drain:
			for {
				select {
				case c, ok := <-queue:
					if !ok {
						open = false
						break drain
					}
					if rec, launched := p.launchConversion(ctx, c); launched {
						pending = append(pending, rec)
					}
				default:
					break drain
				}
			}
		}

		if !open && len(pending) == 0 {
			break
		}

		kept := pending[:0]
		for _, rec := range pending {
			done, err := rec.proc.TryWait()
			if err != nil {
				logging.WithComic(p.logger, rec.comic.ID, rec.comic.Title).Error(
					"error polling kindlegen", logging.Error(err))
				done = true
			}
			if !done {
				kept = append(kept, rec)
				continue
			}
			p.settleConversion(rec)
		}
		pending = kept

		time.Sleep(p.pollInterval)
	}

	events <- comic.DoneEvent()
}

// launchConversion starts kindlegen for a staged EPUB. A spawn failure
// fails the entity immediately; it never joins the in-flight set.
func (p *Pipeline) launchConversion(ctx context.Context, c *comic.Comic) (inflight, bool) {
	log := logging.WithComic(p.logger, c.ID, c.Title)

	c.SetWorking(comic.StageConvert, 75)
	proc, err := p.converter.Start(ctx, c.StagedPath(comic.FormatEPUB.Ext()))
	if err != nil {
		c.Fail(err)
		log.Error("failed to start conversion",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		c.CleanupWork()
		return inflight{}, false
	}

	log.Info("conversion started", logging.String("output", proc.OutputPath()))
	return inflight{comic: c, proc: proc, started: time.Now()}, true
}

// settleConversion collects a finished process and decides the entity's
// fate. Wait returning an error, including a collection error after a lost
// process, marks the entity failed.
func (p *Pipeline) settleConversion(rec inflight) {
	c := rec.comic
	log := logging.WithComic(p.logger, c.ID, c.Title)

	if err := rec.proc.Wait(); err != nil {
		c.Fail(err)
		log.Error("conversion failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		c.CleanupWork()
		return
	}

	if err := fileutil.MoveFile(rec.proc.OutputPath(), c.OutputPath()); err != nil {
		wrapped := services.Wrap(nil, "convert", "move artifact", c.OutputPath(), err)
		c.Fail(wrapped)
		log.Error("conversion failed", logging.Error(wrapped))
		c.CleanupWork()
		return
	}

	c.RecordStageDuration(comic.StageConvert, time.Since(rec.started))
	c.Succeed()
	log.Info("comic converted",
		logging.String("output", c.OutputPath()),
		logging.Duration("elapsed", c.TotalDuration()),
	)
	c.CleanupWork()
}
