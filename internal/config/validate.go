package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateKindlegen(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "cbz", "epub", "mobi":
		return nil
	default:
		return fmt.Errorf("output.format must be one of cbz, epub, mobi (got %q)", c.Output.Format)
	}
}

func (c *Config) validateProcessing() error {
	if c.Processing.Workers < 0 {
		return errors.New("processing.workers must be >= 0 (0 selects the CPU count)")
	}
	if c.Processing.Profile != "" {
		if _, ok := DeviceProfiles[c.Processing.Profile]; !ok {
			return fmt.Errorf("processing.profile %q unknown (known: %s)",
				c.Processing.Profile, strings.Join(ProfileNames(), ", "))
		}
	}
	if c.Processing.MaxWidth < 0 {
		return errors.New("processing.max_width must be >= 0")
	}
	if c.Processing.MaxHeight < 0 {
		return errors.New("processing.max_height must be >= 0")
	}
	if c.Processing.Quality < 1 || c.Processing.Quality > 100 {
		return errors.New("processing.quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateKindlegen() error {
	if strings.TrimSpace(c.Kindlegen.Binary) == "" {
		return errors.New("kindlegen.binary must be set")
	}
	if c.Kindlegen.Compression < 0 || c.Kindlegen.Compression > 2 {
		return errors.New("kindlegen.compression must be 0, 1, or 2")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollIntervalMS < 10 {
		return errors.New("workflow.poll_interval_ms must be at least 10")
	}
	if c.Workflow.StaleStagingHours <= 0 {
		return errors.New("workflow.stale_staging_hours must be positive")
	}
	return nil
}
