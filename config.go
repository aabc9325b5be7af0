package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultQubits    = 14
	defaultDecimals  = 3
	defaultMaxQubits = 24
	defaultConfig    = "qftbench.yaml"
	envPrefix        = "QFTBENCH"
)

// Config holds the run settings. Values come from, in rising precedence:
// built-in defaults, the yaml config file, QFTBENCH_* environment variables
// and command-line flags.
type Config struct {
	Qubits    int           `yaml:"qubits"`
	Decimals  int           `yaml:"decimals"`
	Swaps     bool          `yaml:"swaps"`
	Workers   int           `yaml:"workers"`
	MaxQubits int           `yaml:"max_qubits"`
	Timeout   time.Duration `yaml:"timeout"`

	ShowState bool `yaml:"show_state"`
	Plot      bool `yaml:"plot"`
	Draw      bool `yaml:"draw"`
	TUI       bool `yaml:"tui"`

	QASMIn    string `yaml:"qasm_in"`
	QASMOut   string `yaml:"qasm_out"`
	ReportOut string `yaml:"report_out"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the built-in settings: 14 qubits, no swaps and
// amplitudes rounded to 3 decimals.
func DefaultConfig() Config {
	return Config{
		Qubits:    defaultQubits,
		Decimals:  defaultDecimals,
		MaxQubits: defaultMaxQubits,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Validate rejects settings no run could satisfy.
func (c Config) Validate() error {
	if c.Qubits < 0 {
		return fmt.Errorf("qubits %d: %w", c.Qubits, ErrInvalidArgument)
	}
	if c.MaxQubits > simulatorQubitCap {
		return fmt.Errorf("max-qubits %d exceeds the simulator limit of %d: %w", c.MaxQubits, simulatorQubitCap, ErrTooManyQubits)
	}
	if c.MaxQubits > 0 && c.Qubits > c.MaxQubits {
		return fmt.Errorf("qubits %d exceeds max-qubits %d: %w", c.Qubits, c.MaxQubits, ErrTooManyQubits)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %s: %w", c.Timeout, ErrInvalidArgument)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log format %q (want text, json or logfmt): %w", c.LogFormat, ErrInvalidArgument)
	}
	return nil
}

// ExitError is an error carrying a process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// LoadConfigFile reads a yaml config file over base. A missing file is not
// an error unless required is set.
func LoadConfigFile(path string, base Config, required bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return base, nil
		}
		return base, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig resolves the run configuration from args and the environment.
// It returns shouldExit for --help.
func ParseConfig(args []string, output io.Writer) (Config, bool, error) {
	def := DefaultConfig()

	fs := pflag.NewFlagSet("qftbench", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
qftbench - build and simulate an N-qubit Quantum Fourier Transform.

Usage:
  qftbench [options]

Options:
`)
		fs.PrintDefaults()
	}

	fs.String("config", "", "Path to a yaml config file (default ./"+defaultConfig+" if present).")
	fs.IntP("qubits", "n", def.Qubits, "Number of qubits.")
	fs.Int("decimals", def.Decimals, "Decimals to round amplitudes to; negative disables rounding.")
	fs.Bool("swaps", def.Swaps, "Append the bit-reversal swaps for natural output order.")
	fs.Int("workers", def.Workers, "Goroutines per gate kernel; 0 uses GOMAXPROCS.")
	fs.Int("max-qubits", def.MaxQubits, "Largest register the simulator accepts.")
	fs.Duration("timeout", def.Timeout, "Simulation timeout; 0 waits forever.")
	fs.Bool("show-state", def.ShowState, "Print the final state vector.")
	fs.Bool("plot", def.Plot, "Plot basis-state probabilities and phases.")
	fs.Bool("draw", def.Draw, "Draw the circuit.")
	fs.Bool("tui", def.TUI, "Open the interactive viewer.")
	fs.String("qasm-in", def.QASMIn, "Simulate the circuit in this OpenQASM 2.0 file instead of building a QFT.")
	fs.String("qasm", def.QASMOut, "Write the circuit as OpenQASM 2.0 to this file.")
	fs.String("report", def.ReportOut, "Write a yaml run report to this file.")
	fs.String("log-level", def.LogLevel, "Log level: debug, info, warn, error.")
	fs.String("log-format", def.LogFormat, "Log format: text, json or logfmt.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return Config{}, true, nil
		}
		return Config{}, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return Config{}, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, false, err
	}

	path := v.GetString("config")
	required := path != ""
	if path == "" {
		path = defaultConfig
	}
	file, err := LoadConfigFile(path, def, required)
	if err != nil {
		return Config{}, false, err
	}

	v.SetDefault("qubits", file.Qubits)
	v.SetDefault("decimals", file.Decimals)
	v.SetDefault("swaps", file.Swaps)
	v.SetDefault("workers", file.Workers)
	v.SetDefault("max-qubits", file.MaxQubits)
	v.SetDefault("timeout", file.Timeout)
	v.SetDefault("show-state", file.ShowState)
	v.SetDefault("plot", file.Plot)
	v.SetDefault("draw", file.Draw)
	v.SetDefault("tui", file.TUI)
	v.SetDefault("qasm-in", file.QASMIn)
	v.SetDefault("qasm", file.QASMOut)
	v.SetDefault("report", file.ReportOut)
	v.SetDefault("log-level", file.LogLevel)
	v.SetDefault("log-format", file.LogFormat)

	cfg := Config{
		Qubits:    v.GetInt("qubits"),
		Decimals:  v.GetInt("decimals"),
		Swaps:     v.GetBool("swaps"),
		Workers:   v.GetInt("workers"),
		MaxQubits: v.GetInt("max-qubits"),
		Timeout:   v.GetDuration("timeout"),
		ShowState: v.GetBool("show-state"),
		Plot:      v.GetBool("plot"),
		Draw:      v.GetBool("draw"),
		TUI:       v.GetBool("tui"),
		QASMIn:    v.GetString("qasm-in"),
		QASMOut:   v.GetString("qasm"),
		ReportOut: v.GetString("report"),
		LogLevel:  strings.ToLower(v.GetString("log-level")),
		LogFormat: strings.ToLower(v.GetString("log-format")),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
