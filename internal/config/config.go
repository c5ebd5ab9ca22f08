package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/hwsnap/internal/classify"
)

// Config carries runtime options for hwsnap.
type Config struct {
	Interval   time.Duration `yaml:"interval"`
	Indent     int           `yaml:"indent"`
	AsyncGPU   bool          `yaml:"async_gpu"`
	Categories Categories    `yaml:"categories"`
	Listen     string        `yaml:"listen"`
	Log        Log           `yaml:"log"`

	// Command line only.
	File  string `yaml:"-"`
	JSON  bool   `yaml:"-"`
	Serve bool   `yaml:"-"`
	Dump  bool   `yaml:"-"`
}

// Categories switches device categories on or off. A disabled category is
// still enumerated where that is cheap but never classified.
type Categories struct {
	CPU     bool `yaml:"cpu"`
	GPU     bool `yaml:"gpu"`
	Memory  bool `yaml:"memory"`
	Storage bool `yaml:"storage"`
	Network bool `yaml:"network"`
	Battery bool `yaml:"battery"`
	Other   bool `yaml:"other"`
}

type Log struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	Encoding string `yaml:"encoding"`
}

func Default() Config {
	return Config{
		Interval: time.Second,
		Indent:   4,
		AsyncGPU: false,
		Categories: Categories{
			CPU:     true,
			GPU:     true,
			Memory:  true,
			Storage: true,
			Network: true,
			Battery: true,
			Other:   true,
		},
		Listen: "127.0.0.1:9184",
		Log: Log{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Enabled reports whether readings of family f should be classified.
func (c Categories) Enabled(f classify.Family) bool {
	switch f {
	case classify.FamilyCPU:
		return c.CPU
	case classify.FamilyGPU:
		return c.GPU
	case classify.FamilyMemory:
		return c.Memory
	case classify.FamilyStorage:
		return c.Storage
	case classify.FamilyNetwork:
		return c.Network
	}
	return false
}

// Load reads a YAML file over the defaults. Unknown keys are an error; an
// empty file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// FromFlags parses flags and environment overrides. Values are layered as
// defaults, then the --config file, then flags, then environment.
func FromFlags(args []string) (Config, error) {
	cfg := Default()
	if err := newFlagSet(&cfg).Parse(args); err != nil {
		return cfg, err
	}
	if cfg.File != "" {
		fileCfg, err := Load(cfg.File)
		if err != nil {
			return cfg, err
		}
		// Flags given explicitly win over the file.
		if err := newFlagSet(&fileCfg).Parse(args); err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	if v := os.Getenv("HWSNAP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	if v := os.Getenv("HWSNAP_GPU"); v == "0" {
		cfg.Categories.GPU = false
	}
	if v := os.Getenv("HWSNAP_BATTERY"); v == "0" {
		cfg.Categories.Battery = false
	}
	return cfg, nil
}

func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("hwsnap", pflag.ContinueOnError)
	fs.StringVarP(&cfg.File, "config", "c", cfg.File, "YAML config file")
	fs.DurationVarP(&cfg.Interval, "interval", "i", cfg.Interval, "background refresh interval")
	fs.IntVar(&cfg.Indent, "indent", cfg.Indent, "snapshot indent width, negative for compact output")
	fs.BoolVar(&cfg.AsyncGPU, "async-gpu", cfg.AsyncGPU, "refresh GPUs outside the poll")
	fs.BoolVar(&cfg.Categories.GPU, "gpu", cfg.Categories.GPU, "enable GPU sampling")
	fs.BoolVar(&cfg.Categories.Battery, "battery", cfg.Categories.Battery, "enable battery sampling")
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address for --serve")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "poll twice one interval apart, print every snapshot and exit")
	fs.BoolVar(&cfg.Serve, "serve", cfg.Serve, "run the background loop and serve snapshots over HTTP")
	fs.BoolVar(&cfg.Dump, "dump", cfg.Dump, "print every available sensor and exit")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug|info|warn|error")
	fs.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "log destination, stderr when empty")
	fs.StringVar(&cfg.Log.Encoding, "log-encoding", cfg.Log.Encoding, "console|json")
	return fs
}
