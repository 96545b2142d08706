package pipeline

import (
	"context"
	"log/slog"

	"bindery/internal/comic"
	"bindery/internal/fileutil"
	"bindery/internal/imaging"
	"bindery/internal/logging"
	"bindery/internal/services"
)

// runComic drives one entity through its stages. A stage failure marks the
// entity and short-circuits the rest; sibling entities are unaffected. For
// MOBI, the entity is handed to the supervisor after its EPUB is staged and
// this worker moves on.
func (p *Pipeline) runComic(ctx context.Context, c *comic.Comic, queue chan<- *comic.Comic) {
	log := logging.WithComic(p.logger, c.ID, c.Title)

	var book Book
	if err := c.Step(comic.StageExtract, 0, func() error {
		var err error
		book, err = p.open(c.Input)
		return err
	}); err != nil {
		p.reportFailure(log, c, err)
		return
	}
	defer book.Close()

	log.Info("extracted archive", logging.Int("pages", book.Pages()))

	span := c.Config.Format.ProcessSpan()
	sampler := logging.NewProgressSampler(0)
	if err := c.Step(comic.StageProcess, 0, func() error {
		paths, err := p.process(ctx, book, imagingOptions(c.Config), c.ProcessedDir(), func(done, total int) {
			percent := float64(done) / float64(total) * span
			c.SetWorking(comic.StageProcess, percent)
			if sampler.ShouldLog(percent, string(comic.StageProcess)) {
				log.Info("processing pages",
					logging.String(logging.FieldStage, string(comic.StageProcess)),
					logging.Int("done", done),
					logging.Int("total", total),
				)
			}
		})
		if err != nil {
			return err
		}
		c.ProcessedFiles = paths
		return nil
	}); err != nil {
		p.reportFailure(log, c, err)
		return
	}

	switch c.Config.Format {
	case comic.FormatMOBI:
		if err := c.Step(comic.StagePackage, 50, func() error {
			_, err := p.buildEPUB(c)
			return err
		}); err != nil {
			p.reportFailure(log, c, err)
			return
		}
		// Capacity covers every registered entity, so the hand-off never
		// blocks the worker.
		queue <- c

	case comic.FormatEPUB:
		if err := c.Step(comic.StagePackage, 75, func() error {
			staged, err := p.buildEPUB(c)
			if err != nil {
				return err
			}
			return publish(staged, c)
		}); err != nil {
			p.reportFailure(log, c, err)
			return
		}
		p.finishItem(log, c)

	default:
		if err := c.Step(comic.StagePackage, 75, func() error {
			staged, err := p.buildCBZ(c)
			if err != nil {
				return err
			}
			return publish(staged, c)
		}); err != nil {
			p.reportFailure(log, c, err)
			return
		}
		p.finishItem(log, c)
	}
}

// publish moves a staged artifact to its final destination. Nothing touches
// the output directory on any failure path.
func publish(staged string, c *comic.Comic) error {
	if err := fileutil.MoveFile(staged, c.OutputPath()); err != nil {
		return services.Wrap(nil, "package", "move artifact", c.OutputPath(), err)
	}
	return nil
}

func (p *Pipeline) finishItem(log *slog.Logger, c *comic.Comic) {
	c.Succeed()
	log.Info("comic converted",
		logging.String("output", c.OutputPath()),
		logging.Duration("elapsed", c.TotalDuration()),
	)
	c.CleanupWork()
}

func (p *Pipeline) reportFailure(log *slog.Logger, c *comic.Comic, err error) {
	log.Error("comic failed",
		logging.String(logging.FieldStage, string(c.Status().Stage)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
	)
	c.CleanupWork()
}

func imagingOptions(cfg comic.Config) imaging.Options {
	return imaging.Options{
		MaxWidth:     cfg.MaxWidth,
		MaxHeight:    cfg.MaxHeight,
		Grayscale:    cfg.Grayscale,
		AutoContrast: cfg.AutoContrast,
		Quality:      cfg.Quality,
	}
}
