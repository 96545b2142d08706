package kindlegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"bindery/internal/services"
)

// Process is a running conversion. TryWait reports completion without
// blocking; Wait blocks for the definitive result. The MOBI lands next to
// the input EPUB at OutputPath once Wait returns nil.
type Process interface {
	TryWait() (bool, error)
	Wait() error
	OutputPath() string
}

// Starter abstracts process spawning for testability.
type Starter interface {
	Start(ctx context.Context, epubPath string) (Process, error)
}

// Option configures the client.
type Option func(*Client)

// WithStarter injects a custom starter (primarily for tests).
func WithStarter(starter Starter) Option {
	return func(c *Client) {
		if starter != nil {
			c.starter = starter
		}
	}
}

// Client wraps kindlegen CLI interactions.
type Client struct {
	binary      string
	compression int
	starter     Starter
}

// New constructs a kindlegen client. Compression is kindlegen's -c level,
// 0 (none) to 2 (huffdic).
func New(binary string, compression int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("kindlegen binary required")
	}
	if compression < 0 || compression > 2 {
		return nil, fmt.Errorf("kindlegen compression must be 0, 1, or 2 (got %d)", compression)
	}
	client := &Client{binary: binary, compression: compression}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Start launches a conversion of epubPath and returns its handle. Spawn
// failures (missing binary, unreadable input) surface here; conversion
// failures surface from the handle's Wait.
func (c *Client) Start(ctx context.Context, epubPath string) (Process, error) {
	if c.starter != nil {
		return c.starter.Start(ctx, epubPath)
	}
	return c.spawn(ctx, epubPath)
}

func (c *Client) spawn(ctx context.Context, epubPath string) (Process, error) {
	base := filepath.Base(epubPath)
	outName := strings.TrimSuffix(base, filepath.Ext(base)) + ".mobi"

	// kindlegen's -o takes a bare file name; output always lands in the
	// input's directory.
	cmd := exec.CommandContext(ctx, c.binary, epubPath, fmt.Sprintf("-c%d", c.compression), "-o", outName)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "convert", "start kindlegen", base, err)
	}

	p := &process{
		outputPath: filepath.Join(filepath.Dir(epubPath), outName),
		done:       make(chan struct{}),
	}
	go func() {
		p.err = settle(cmd.Wait(), p.outputPath, &output)
		close(p.done)
	}()
	return p, nil
}

// settle folds the exit status, the tool's output, and the presence of the
// MOBI into one result. kindlegen exits 1 when the build succeeded with
// warnings, so only higher codes fail.
func settle(waitErr error, outputPath string, output *bytes.Buffer) error {
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) || exitErr.ExitCode() != 1 {
			return services.Wrap(services.ErrExternalTool, "convert", "kindlegen", tail(output.String()), waitErr)
		}
	}
	if _, err := os.Stat(outputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "convert", "kindlegen", "produced no output file", err)
	}
	return nil
}

// tail keeps the last few lines of tool output for error context.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "no tool output"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}

type process struct {
	outputPath string
	done       chan struct{}
	err        error
}

func (p *process) TryWait() (bool, error) {
	select {
	case <-p.done:
		return true, nil
	default:
		return false, nil
	}
}

func (p *process) Wait() error {
	<-p.done
	return p.err
}

func (p *process) OutputPath() string { return p.outputPath }
