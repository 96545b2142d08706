package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeProcessing()
	c.normalizeKindlegen()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() error {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	if strings.TrimSpace(c.Output.Dir) != "" {
		var err error
		if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
			return fmt.Errorf("output.dir: %w", err)
		}
	} else {
		c.Output.Dir = ""
	}
	return nil
}

func (c *Config) normalizeProcessing() {
	c.Processing.Profile = strings.ToLower(strings.TrimSpace(c.Processing.Profile))
	if profile, ok := DeviceProfiles[c.Processing.Profile]; ok {
		if c.Processing.MaxWidth == 0 {
			c.Processing.MaxWidth = profile.Width
		}
		if c.Processing.MaxHeight == 0 {
			c.Processing.MaxHeight = profile.Height
		}
	}
	if c.Processing.Quality == 0 {
		c.Processing.Quality = defaultQuality
	}
}

func (c *Config) normalizeKindlegen() {
	c.Kindlegen.Binary = strings.TrimSpace(c.Kindlegen.Binary)
	if c.Kindlegen.Binary == "" || c.Kindlegen.Binary == defaultKindlegenBinary {
		if value, ok := os.LookupEnv("KINDLEGEN"); ok && strings.TrimSpace(value) != "" {
			c.Kindlegen.Binary = strings.TrimSpace(value)
		}
	}
	if c.Kindlegen.Binary == "" {
		c.Kindlegen.Binary = defaultKindlegenBinary
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.PollIntervalMS == 0 {
		c.Workflow.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Workflow.StaleStagingHours == 0 {
		c.Workflow.StaleStagingHours = defaultStaleStagingHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
