package notealign

import (
	"fmt"
	"os"
	"runtime"

	"github.com/himanishpuri/NoteAlign/pkg/notealign/align"
	"github.com/himanishpuri/NoteAlign/pkg/notealign/dataset"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DBPath  string
	Layout  dataset.Layout
	Params  align.Params
	Workers int
	Logger  Logger
	Storage Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithDatasetLayout sets the corpus layout. Empty directory names fall back
// to their defaults.
func WithDatasetLayout(layout dataset.Layout) Option {
	return func(c *Config) {
		c.Layout = layout.WithDefaults()
	}
}

// WithDatasetRoot moves the corpus root, keeping the directory names.
func WithDatasetRoot(root string) Option {
	return func(c *Config) {
		c.Layout.Root = root
	}
}

func WithLyricMismatchWeight(w float64) Option {
	return func(c *Config) {
		c.Params.LyricMismatchWeight = w
	}
}

func WithTimeDistance(enabled bool) Option {
	return func(c *Config) {
		c.Params.UseTimeDistance = enabled
	}
}

// WithNonVoiced replaces the set of lyrics that always receive note 0.
func WithNonVoiced(tokens ...string) Option {
	return func(c *Config) {
		c.Params.NonVoiced = append([]string(nil), tokens...)
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:  "notealign.sqlite3",
		Layout:  dataset.DefaultLayout("."),
		Params:  align.DefaultParams(),
		Workers: runtime.NumCPU(),
		Logger:  nil,
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.Params.LyricMismatchWeight < 0 {
		return fmt.Errorf("lyric mismatch weight must not be negative, got %v", c.Params.LyricMismatchWeight)
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}

// FileConfig is the on-disk TOML configuration. Unset keys keep their
// defaults.
//
//	db_path = "notealign.sqlite3"
//	workers = 4
//
//	[dataset]
//	root = "/data/corpus"
//	aligned_dir = "mono_label_aligned"
//
//	[align]
//	lyric_mismatch_weight = 10.0
//	use_time_distance = true
//	non_voiced = ["pau", "br"]
type FileConfig struct {
	DBPath  string          `toml:"db_path"`
	Workers int             `toml:"workers"`
	Dataset *dataset.Layout `toml:"dataset"`
	Align   struct {
		LyricMismatchWeight *float64 `toml:"lyric_mismatch_weight"`
		UseTimeDistance     *bool    `toml:"use_time_distance"`
		NonVoiced           []string `toml:"non_voiced"`
	} `toml:"align"`
}

// Options turns the keys that were present into functional options.
func (f FileConfig) Options() []Option {
	var opts []Option
	if f.DBPath != "" {
		opts = append(opts, WithDBPath(f.DBPath))
	}
	if f.Workers > 0 {
		opts = append(opts, WithWorkers(f.Workers))
	}
	if f.Dataset != nil {
		opts = append(opts, WithDatasetLayout(*f.Dataset))
	}
	if f.Align.LyricMismatchWeight != nil {
		opts = append(opts, WithLyricMismatchWeight(*f.Align.LyricMismatchWeight))
	}
	if f.Align.UseTimeDistance != nil {
		opts = append(opts, WithTimeDistance(*f.Align.UseTimeDistance))
	}
	if f.Align.NonVoiced != nil {
		opts = append(opts, WithNonVoiced(f.Align.NonVoiced...))
	}
	return opts
}

// LoadConfigFile reads a TOML configuration file and returns it as options.
// Options passed to NewService after these override them.
func LoadConfigFile(path string) ([]Option, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var fc FileConfig
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return fc.Options(), nil
}
