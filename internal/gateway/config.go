package gateway

import "time"

// Config holds everything the gateway needs to reach its external
// collaborators. It is passed at construction; there is no package state.
type Config struct {
	// ScriptPath is the scan script, invoked as `<script> -n <network> -i <iface>`.
	ScriptPath string

	// PrivilegeCommand is prepended to the scan invocation (e.g. "sudo").
	// Empty runs the script directly.
	PrivilegeCommand string

	// ReportPath is where the script writes its report.
	ReportPath string

	// LogPath is the script's side-channel log, tailed on failures.
	LogPath string

	// ScanTimeout bounds one scan's wall-clock time.
	ScanTimeout time.Duration

	// LogTailLines is how many trailing log lines a failed outcome carries.
	LogTailLines int

	// LinkCommand and LinkArgs list network links, one header line per link.
	LinkCommand string
	LinkArgs    []string

	// ExcludedPrefixes filters virtual and container interfaces by name.
	ExcludedPrefixes []string
}

// DefaultConfig returns the stock layout: ./network_tool.sh under sudo,
// report.txt and network_tool.log in the working directory.
func DefaultConfig() Config {
	return Config{
		ScriptPath:       "./network_tool.sh",
		PrivilegeCommand: "sudo",
		ReportPath:       "report.txt",
		LogPath:          "network_tool.log",
		ScanTimeout:      120 * time.Second,
		LogTailLines:     10,
		LinkCommand:      "ip",
		LinkArgs:         []string{"link", "show"},
		ExcludedPrefixes: []string{"docker", "veth", "br-"},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ScriptPath == "" {
		c.ScriptPath = d.ScriptPath
	}
	if c.ReportPath == "" {
		c.ReportPath = d.ReportPath
	}
	if c.LogPath == "" {
		c.LogPath = d.LogPath
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = d.ScanTimeout
	}
	if c.LogTailLines <= 0 {
		c.LogTailLines = d.LogTailLines
	}
	if c.LinkCommand == "" {
		c.LinkCommand = d.LinkCommand
		c.LinkArgs = d.LinkArgs
	}
	if c.ExcludedPrefixes == nil {
		c.ExcludedPrefixes = d.ExcludedPrefixes
	}
	return c
}
