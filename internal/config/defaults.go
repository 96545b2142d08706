package config

import "sort"

const (
	defaultStagingDir        = "~/.local/share/bindery/staging"
	defaultLogDir            = "~/.local/share/bindery/logs"
	defaultOutputFormat      = "cbz"
	defaultQuality           = 85
	defaultKindlegenBinary   = "kindlegen"
	defaultCompression       = 1
	defaultPollIntervalMS    = 100
	defaultStaleStagingHours = 24
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// DeviceProfile describes a reader screen the processing options can target.
type DeviceProfile struct {
	Width  int
	Height int
}

// DeviceProfiles maps preset names accepted by processing.profile to screen
// dimensions. Names follow the device marketing names, lowercased.
var DeviceProfiles = map[string]DeviceProfile{
	"kindle":            {Width: 600, Height: 800},
	"kindle-paperwhite": {Width: 1236, Height: 1648},
	"kindle-oasis":      {Width: 1264, Height: 1680},
	"kobo-clara":        {Width: 1072, Height: 1448},
	"kobo-libra":        {Width: 1264, Height: 1680},
	"tablet":            {Width: 1600, Height: 2560},
}

// ProfileNames returns the sorted list of known device profile names.
func ProfileNames() []string {
	names := make([]string, 0, len(DeviceProfiles))
	for name := range DeviceProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		Processing: Processing{
			Quality: defaultQuality,
		},
		Kindlegen: Kindlegen{
			Binary:      defaultKindlegenBinary,
			Compression: defaultCompression,
		},
		Workflow: Workflow{
			PollIntervalMS:    defaultPollIntervalMS,
			StaleStagingHours: defaultStaleStagingHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
