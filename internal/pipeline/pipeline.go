package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"bindery/internal/archive"
	"bindery/internal/cbz"
	"bindery/internal/comic"
	"bindery/internal/config"
	"bindery/internal/ebook"
	"bindery/internal/imaging"
	"bindery/internal/logging"
	"bindery/internal/services"
	"bindery/internal/services/kindlegen"
	"bindery/internal/staging"
	"bindery/internal/textutil"
)

// Book is the page source the extraction collaborator returns.
// *archive.Book satisfies it.
type Book interface {
	Pages() int
	Next() (archive.Page, error)
	Close() error
}

// OpenFunc opens an input file as a Book.
type OpenFunc func(path string) (Book, error)

// ProcessFunc transforms a book's pages into files under destDir.
type ProcessFunc func(ctx context.Context, src imaging.Source, opts imaging.Options, destDir string, progress imaging.ProgressFunc) ([]string, error)

// BuildFunc packages a comic's processed pages into a staged artifact.
type BuildFunc func(c *comic.Comic) (string, error)

// Converter launches detached MOBI conversions.
type Converter interface {
	Start(ctx context.Context, epubPath string) (kindlegen.Process, error)
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithOpener injects the extraction collaborator (primarily for tests).
func WithOpener(open OpenFunc) Option {
	return func(p *Pipeline) {
		if open != nil {
			p.open = open
		}
	}
}

// WithProcessor injects the transformation collaborator (primarily for tests).
func WithProcessor(process ProcessFunc) Option {
	return func(p *Pipeline) {
		if process != nil {
			p.process = process
		}
	}
}

// WithBuilders injects the packaging collaborators (primarily for tests).
func WithBuilders(buildCBZ, buildEPUB BuildFunc) Option {
	return func(p *Pipeline) {
		if buildCBZ != nil {
			p.buildCBZ = buildCBZ
		}
		if buildEPUB != nil {
			p.buildEPUB = buildEPUB
		}
	}
}

// WithConverter injects the conversion client (primarily for tests).
func WithConverter(conv Converter) Option {
	return func(p *Pipeline) {
		if conv != nil {
			p.converter = conv
		}
	}
}

// WithPollInterval overrides the supervisor poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// Pipeline converts one batch of input files. Construct with New, run once
// with Run.
type Pipeline struct {
	config       comic.Config
	workers      int
	pollInterval time.Duration
	stagingRoot  string
	logger       *slog.Logger

	open      OpenFunc
	process   ProcessFunc
	buildCBZ  BuildFunc
	buildEPUB BuildFunc
	converter Converter
}

// New builds a pipeline from the loaded configuration. The kindlegen client
// is only constructed when the output format needs it, so CBZ and EPUB runs
// work without the binary installed.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	format, ok := comic.ParseFormat(cfg.Output.Format)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}

	workers := cfg.Processing.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pipeline{
		config: comic.Config{
			Format:       format,
			MaxWidth:     cfg.Processing.MaxWidth,
			MaxHeight:    cfg.Processing.MaxHeight,
			Grayscale:    cfg.Processing.Grayscale,
			AutoContrast: cfg.Processing.AutoContrast,
			Quality:      cfg.Processing.Quality,
			Compression:  cfg.Kindlegen.Compression,
		},
		workers:      workers,
		pollInterval: cfg.PollInterval(),
		stagingRoot:  cfg.Paths.StagingDir,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		open: func(path string) (Book, error) {
			return archive.Open(path)
		},
		process:   imaging.Process,
		buildCBZ:  cbz.Build,
		buildEPUB: ebook.Build,
	}

	if format.NeedsConverter() {
		client, err := kindlegen.New(cfg.KindlegenBinary(), cfg.Kindlegen.Compression)
		if err != nil {
			return nil, err
		}
		p.converter = client
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run converts files into outputDir, reporting progress on the returned
// channel. The channel carries one register event per input, update events
// for every status transition, and exactly one done event before closing.
func (p *Pipeline) Run(ctx context.Context, files []string, outputDir string) <-chan comic.Event {
	events := make(chan comic.Event, 16+len(files)*8)
	go p.run(ctx, files, outputDir, events)
	return events
}

func (p *Pipeline) run(ctx context.Context, files []string, outputDir string, events chan comic.Event) {
	defer close(events)

	batch, err := staging.NewBatch(p.stagingRoot)
	if err != nil {
		p.logger.Error("failed to create batch workspace",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the staging_dir setting and permissions"),
		)
		wrapped := services.Wrap(services.ErrConfiguration, "", "create batch workspace", p.stagingRoot, err)
		for i, file := range files {
			events <- comic.RegisterEvent(i, textutil.DisplayTitle(file))
			events <- comic.UpdateEvent(i, comic.Failure("", wrapped))
		}
		events <- comic.DoneEvent()
		return
	}
	defer batch.Remove()

	p.logger.Info("starting batch",
		logging.String(logging.FieldBatchID, batch.ID),
		logging.Int("files", len(files)),
		logging.String("format", string(p.config.Format)),
		logging.Int("workers", p.workers),
	)

	// The supervisor must outlive the worker pool, so it starts before the
	// first entity is registered and owns the done event for MOBI runs.
	var (
		queue          chan *comic.Comic
		supervisorDone chan struct{}
	)
	if p.config.Format.NeedsConverter() {
		queue = make(chan *comic.Comic, len(files))
		supervisorDone = make(chan struct{})
		go func() {
			defer close(supervisorDone)
			p.superviseConversions(ctx, queue, events)
		}()
	}

	comics := make([]*comic.Comic, 0, len(files))
	for i, file := range files {
		title := textutil.DisplayTitle(file)
		events <- comic.RegisterEvent(i, title)

		c, err := comic.New(i, file, outputDir, title, p.config, batch.ItemDir(i, title), events)
		if err != nil {
			p.logger.Warn("input rejected",
				logging.Int(logging.FieldComicID, i),
				logging.String("input", file),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
			)
			events <- comic.UpdateEvent(i, comic.Failure("", err))
			continue
		}
		comics = append(comics, c)
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, c := range comics {
		g.Go(func() error {
			p.runComic(ctx, c, queue)
			return nil
		})
	}
	_ = g.Wait()

	if queue != nil {
		close(queue)
		<-supervisorDone
	} else {
		events <- comic.DoneEvent()
	}

	p.logger.Info("batch finished", logging.String(logging.FieldBatchID, batch.ID))
}
