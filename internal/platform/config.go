package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"termexec/internal/runtime"
	"termexec/internal/shell"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
)

// ConfigFileEnv names the environment variable holding the TOML config path.
const ConfigFileEnv = "TERMEXEC_CONFIG"

// FlagsConfig holds all boolean or string flags for the app.
type FlagsConfig struct {
	// Headless disables the HTTP server when true.
	Headless bool `toml:"headless"`
}

// ShellConfig holds the settings every terminal session starts from.
type ShellConfig struct {
	Interpreter   string        `toml:"interpreter"`
	Dir           string        `toml:"dir"`
	Rows          uint16        `toml:"rows"`
	Cols          uint16        `toml:"cols"`
	PollInterval  time.Duration `toml:"poll_interval"`
	ReadChunk     int           `toml:"read_chunk"`
	TerminateWait time.Duration `toml:"terminate_wait"`
	QueueSize     int           `toml:"queue_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// AppConfig contains the configuration for the app.
type AppConfig struct {
	Flags      *FlagsConfig          `toml:"flags"`
	NatsCfg    *EmbeddedServerConfig `toml:"nats"`
	HTTPSrvCfg *HTTPServerConfig     `toml:"http"`
	ShellCfg   *ShellConfig          `toml:"shell"`
	LogCfg     *LogConfig            `toml:"log"`
}

// LoadAppConfig builds the configuration from defaults, an optional .env
// file, an optional TOML file named by TERMEXEC_CONFIG and finally TERMEXEC_*
// environment variables, each layer overriding the previous one.
func LoadAppConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &AppConfig{
		Flags:      defaultFlagsCfg(),
		NatsCfg:    defaultNatsCfg(),
		HTTPSrvCfg: defaultHTTPServerCfg(),
		ShellCfg:   defaultShellCfg(),
		LogCfg:     &LogConfig{Level: "info"},
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultFlagsCfg returns the default FlagsConfig.
func defaultFlagsCfg() *FlagsConfig {
	return &FlagsConfig{Headless: false}
}

// defaultHTTPServerCfg returns sane defaults for the HTTP server.
func defaultHTTPServerCfg() *HTTPServerConfig {
	return &HTTPServerConfig{
		Port:         8080,
		ReadTimeout:  -1,
		WriteTimeout: -1,
		IdleTimeout:  -1,
		CookieSecret: "very-secret-key-change-me",
	}
}

// defaultNatsCfg returns the default EmbeddedServerConfig.
func defaultNatsCfg() *EmbeddedServerConfig {
	return &EmbeddedServerConfig{
		InProcess:     false,
		EnableLogging: true,
		JetStream:     true,
		StoreDir:      "./store/js",
	}
}

func defaultShellCfg() *ShellConfig {
	return &ShellConfig{
		Interpreter:   shell.DefaultInterpreter,
		Rows:          shell.DefaultRows,
		Cols:          shell.DefaultCols,
		PollInterval:  shell.DefaultPollInterval,
		ReadChunk:     shell.DefaultReadChunk,
		TerminateWait: shell.DefaultTerminateWait,
		QueueSize:     64,
	}
}

// envBinding maps one TERMEXEC_* variable onto a config field.
type envBinding struct {
	key string
	set func(string) error
}

func (c *AppConfig) applyEnv() error {
	bindings := []envBinding{
		{"TERMEXEC_HEADLESS", boolVar(&c.Flags.Headless)},
		{"TERMEXEC_HTTP_PORT", intVar(&c.HTTPSrvCfg.Port)},
		{"TERMEXEC_TLS", boolVar(&c.HTTPSrvCfg.EnableTLS)},
		{"TERMEXEC_TLS_CERT", stringVar(&c.HTTPSrvCfg.CertFile)},
		{"TERMEXEC_TLS_KEY", stringVar(&c.HTTPSrvCfg.KeyFile)},
		{"TERMEXEC_COOKIE_SECRET", stringVar(&c.HTTPSrvCfg.CookieSecret)},
		{"TERMEXEC_NATS_IN_PROCESS", boolVar(&c.NatsCfg.InProcess)},
		{"TERMEXEC_NATS_LOGGING", boolVar(&c.NatsCfg.EnableLogging)},
		{"TERMEXEC_NATS_STORE_DIR", stringVar(&c.NatsCfg.StoreDir)},
		{"TERMEXEC_NATS_LEAF_URL", stringVar(&c.NatsCfg.LeafNodeURL)},
		{"TERMEXEC_NATS_LEAF_CREDS", stringVar(&c.NatsCfg.LeafNodeCreds)},
		{"TERMEXEC_SHELL", stringVar(&c.ShellCfg.Interpreter)},
		{"TERMEXEC_DIR", stringVar(&c.ShellCfg.Dir)},
		{"TERMEXEC_PTY_ROWS", uint16Var(&c.ShellCfg.Rows)},
		{"TERMEXEC_PTY_COLS", uint16Var(&c.ShellCfg.Cols)},
		{"TERMEXEC_PTY_POLL", durationVar(&c.ShellCfg.PollInterval)},
		{"TERMEXEC_PTY_CHUNK", intVar(&c.ShellCfg.ReadChunk)},
		{"TERMEXEC_PTY_TERMINATE_WAIT", durationVar(&c.ShellCfg.TerminateWait)},
		{"TERMEXEC_QUEUE_SIZE", intVar(&c.ShellCfg.QueueSize)},
		{"TERMEXEC_LOG_LEVEL", stringVar(&c.LogCfg.Level)},
	}
	for _, b := range bindings {
		v, ok := os.LookupEnv(b.key)
		if !ok || v == "" {
			continue
		}
		if err := b.set(v); err != nil {
			return fmt.Errorf("%s: %w", b.key, err)
		}
	}
	return nil
}

func stringVar(p *string) func(string) error {
	return func(v string) error { *p = v; return nil }
}

func boolVar(p *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p = b
		return nil
	}
}

func intVar(p *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p = n
		return nil
	}
}

func uint16Var(p *uint16) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return err
		}
		*p = uint16(n)
		return nil
	}
}

func durationVar(p *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*p = d
		return nil
	}
}

// ShellOptions converts the shell settings into session options.
func (c *ShellConfig) ShellOptions() shell.Options {
	return shell.Options{
		Interpreter: c.Interpreter,
		Dir:         c.Dir,
		Pty: shell.PtyOptions{
			Rows:          c.Rows,
			Cols:          c.Cols,
			PollInterval:  c.PollInterval,
			ReadChunk:     c.ReadChunk,
			TerminateWait: c.TerminateWait,
		},
	}
}

// EngineConfig derives the terminal engine configuration.
func (c *AppConfig) EngineConfig() runtime.EngineConfig {
	storage := jetstream.FileStorage
	if c.NatsCfg.StoreDir == "" {
		storage = jetstream.MemoryStorage
	}
	return runtime.EngineConfig{
		Shell:     c.ShellCfg.ShellOptions(),
		QueueSize: c.ShellCfg.QueueSize,
		Storage:   storage,
	}
}

// SlogLevel parses the configured log level, falling back to info.
func (c *LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
