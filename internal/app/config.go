package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/natadecua/SNOOP/internal/gateway"
	"github.com/natadecua/SNOOP/internal/procexec"
)

// Config holds every runtime setting of the snoop server. Values come from
// DefaultConfig, then an optional .env file, then the process environment.
type Config struct {
	ListenAddr     string `env:"SNOOP_LISTEN_ADDR"`
	MaxConnections int    `env:"SNOOP_MAX_CONNECTIONS"`

	ScriptPath       string        `env:"SNOOP_SCRIPT_PATH"`
	UsePrivilege     bool          `env:"SNOOP_USE_PRIVILEGE"`
	PrivilegeCommand string        `env:"SNOOP_PRIVILEGE_COMMAND"`
	ReportPath       string        `env:"SNOOP_REPORT_PATH"`
	LogPath          string        `env:"SNOOP_LOG_PATH"`
	ScanTimeout      time.Duration `env:"SNOOP_SCAN_TIMEOUT"`
	KillGrace        time.Duration `env:"SNOOP_KILL_GRACE"`
	LogTailLines     int           `env:"SNOOP_LOG_TAIL_LINES"`

	// LinkCommand and LinkArgs list network interfaces. LinkArgs is split
	// on whitespace.
	LinkCommand string `env:"SNOOP_LINK_COMMAND"`
	LinkArgs    string `env:"SNOOP_LINK_ARGS"`

	// ExcludedPrefixes is a comma separated list of interface name prefixes
	// hidden from the interface list.
	ExcludedPrefixes string `env:"SNOOP_EXCLUDED_PREFIXES"`

	HistoryDB string `env:"SNOOP_HISTORY_DB"`

	// MaxReportSnapshot caps the bytes of report.txt kept per scan.
	MaxReportSnapshot int64 `env:"SNOOP_MAX_REPORT_SNAPSHOT"`

	LogLevel string `env:"LOG_LEVEL"`
}

// DefaultConfig returns a Config populated with the stock deployment values.
func DefaultConfig() *Config {
	gw := gateway.DefaultConfig()
	return &Config{
		ListenAddr:        ":5000",
		MaxConnections:    64,
		ScriptPath:        gw.ScriptPath,
		UsePrivilege:      true,
		PrivilegeCommand:  gw.PrivilegeCommand,
		ReportPath:        gw.ReportPath,
		LogPath:           gw.LogPath,
		ScanTimeout:       gw.ScanTimeout,
		KillGrace:         procexec.DefaultKillGrace,
		LogTailLines:      gw.LogTailLines,
		LinkCommand:       gw.LinkCommand,
		LinkArgs:          strings.Join(gw.LinkArgs, " "),
		ExcludedPrefixes:  strings.Join(gw.ExcludedPrefixes, ","),
		HistoryDB:         "snoop.db",
		MaxReportSnapshot: 4 << 20,
		LogLevel:          "info",
	}
}

// LoadConfig builds the effective configuration. envFile may be empty; a
// missing file is not an error.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	cfg := DefaultConfig()
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("SNOOP_LISTEN_ADDR is empty"))
	}
	if strings.TrimSpace(c.ScriptPath) == "" {
		errs = append(errs, errors.New("SNOOP_SCRIPT_PATH is empty"))
	}
	if c.ScanTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SNOOP_SCAN_TIMEOUT must be positive, got %s", c.ScanTimeout))
	}
	if c.KillGrace < 0 {
		errs = append(errs, fmt.Errorf("SNOOP_KILL_GRACE must not be negative, got %s", c.KillGrace))
	}
	if c.LogTailLines < 0 {
		errs = append(errs, fmt.Errorf("SNOOP_LOG_TAIL_LINES must not be negative, got %d", c.LogTailLines))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("SNOOP_MAX_CONNECTIONS must not be negative, got %d", c.MaxConnections))
	}
	if strings.TrimSpace(c.LinkCommand) == "" {
		errs = append(errs, errors.New("SNOOP_LINK_COMMAND is empty"))
	}
	if c.UsePrivilege && strings.TrimSpace(c.PrivilegeCommand) == "" {
		errs = append(errs, errors.New("SNOOP_PRIVILEGE_COMMAND is empty while SNOOP_USE_PRIVILEGE is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// GatewayConfig translates the flat settings into gateway.Config.
func (c *Config) GatewayConfig() gateway.Config {
	priv := ""
	if c.UsePrivilege {
		priv = strings.TrimSpace(c.PrivilegeCommand)
	}
	prefixes := make([]string, 0)
	for _, p := range strings.Split(c.ExcludedPrefixes, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return gateway.Config{
		ScriptPath:       c.ScriptPath,
		PrivilegeCommand: priv,
		ReportPath:       c.ReportPath,
		LogPath:          c.LogPath,
		ScanTimeout:      c.ScanTimeout,
		LogTailLines:     c.LogTailLines,
		LinkCommand:      c.LinkCommand,
		LinkArgs:         strings.Fields(c.LinkArgs),
		ExcludedPrefixes: prefixes,
	}
}
