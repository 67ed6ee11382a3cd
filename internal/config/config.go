// Package config resolves sample settings from defaults, an optional TOML
// file and command line flags, in that order of precedence.
package config

import (
	"bytes"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"

	"github.com/vkngwrapper/tutorials/internal/logx"
)

// ErrInvalid marks settings that parsed but cannot be used.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Validation enables VK_LAYER_KHRONOS_validation and the debug messenger.
	Validation bool   `toml:"validation"`
	AssetsDir  string `toml:"assets"`
	// PipelineCache is the file pipeline cache data is loaded from and saved
	// to. Empty disables it.
	PipelineCache string `toml:"pipeline_cache"`

	Verbose     bool `toml:"verbose"`
	VeryVerbose bool `toml:"very_verbose"`
	Quiet       bool `toml:"quiet"`

	ConfigFile string `toml:"-"`
}

func Default() Config {
	return Config{
		Width:      800,
		Height:     600,
		Validation: true,
		AssetsDir:  "assets",
	}
}

// LogLevel is the level selected by the verbosity settings.
func (c Config) LogLevel() slog.Level {
	return logx.LevelFromFlags(c.VeryVerbose, c.Verbose, c.Quiet)
}

func (c Config) Validate() error {
	var err error
	if c.Width <= 0 || c.Height <= 0 {
		err = errors.CombineErrors(err, errors.Newf("window size %dx%d must be positive", c.Width, c.Height))
	}
	if c.AssetsDir == "" {
		err = errors.CombineErrors(err, errors.New("assets directory is empty"))
	}
	if err != nil {
		return errors.Mark(err, ErrInvalid)
	}
	return nil
}

func bindFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.IntVar(&cfg.Width, "width", cfg.Width, "initial window width")
	flags.IntVar(&cfg.Height, "height", cfg.Height, "initial window height")
	flags.BoolVar(&cfg.Validation, "validation", cfg.Validation, "enable the Khronos validation layer")
	flags.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "directory holding shaders, textures and models")
	flags.StringVar(&cfg.PipelineCache, "pipeline-cache", cfg.PipelineCache, "pipeline cache file (disabled if empty)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log informational messages")
	flags.BoolVar(&cfg.VeryVerbose, "vv", cfg.VeryVerbose, "log debug messages")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "only log errors")
	flags.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML file with default settings")
}

// Load parses args (without the program name). Values from the file named by
// --config override the defaults; flags given explicitly override both.
func Load(name string, args []string) (Config, error) {
	cfg := Default()

	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SortFlags = false
	bindFlags(flags, &cfg)

	if err := flags.Parse(args); err != nil {
		return cfg, errors.Mark(errors.Wrap(err, "parse flags"), ErrInvalid)
	}

	if cfg.ConfigFile != "" {
		fromFile := Default()
		fromFile.ConfigFile = cfg.ConfigFile
		if err := readFile(cfg.ConfigFile, &fromFile); err != nil {
			return cfg, err
		}

		// Re-apply explicitly set flags on top of the file.
		explicit := fromFile
		replay := pflag.NewFlagSet(name, pflag.ContinueOnError)
		bindFlags(replay, &explicit)
		flags.Visit(func(f *pflag.Flag) {
			_ = replay.Set(f.Name, f.Value.String())
		})
		cfg = explicit
	}

	return cfg, cfg.Validate()
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return errors.Mark(errors.Wrapf(err, "parse config %s", path), ErrInvalid)
	}
	return nil
}
