package preflight

import (
	"bindery/internal/comic"
	"bindery/internal/config"
	"bindery/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinStagingBytes is the free-space floor for the staging filesystem.
// Extracted pages for a large PDF can run to hundreds of megabytes per item.
const MinStagingBytes = 512 << 20

// RunAll executes all applicable preflight checks for a batch writing to
// outputDir. The kindlegen binary is only required for mobi output.
func RunAll(cfg *config.Config, outputDir string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", outputDir),
		CheckFreeSpace("Staging space", cfg.Paths.StagingDir, MinStagingBytes),
	}

	format, _ := comic.ParseFormat(cfg.Output.Format)
	if format.NeedsConverter() {
		results = append(results, checkBinary("Kindlegen", cfg.KindlegenBinary()))
	}

	return results
}

// AllPassed reports whether every check in results passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// SystemDeps evaluates the external binaries for the given config, for the
// check command's report.
func SystemDeps(cfg *config.Config) []deps.Status {
	format, _ := comic.ParseFormat(cfg.Output.Format)
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "Kindlegen",
			Command:     cfg.KindlegenBinary(),
			Description: "Required for mobi output",
			Optional:    !format.NeedsConverter(),
		},
	})
}

func checkBinary(name, command string) Result {
	statuses := deps.CheckBinaries([]deps.Requirement{{Name: name, Command: command}})
	status := statuses[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: command}
}
