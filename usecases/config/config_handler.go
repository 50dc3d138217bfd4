//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	enterrors "github.com/chymaera96/neural-music-fp/entities/errors"
	"github.com/chymaera96/neural-music-fp/entities/shapemeta"
	"github.com/chymaera96/neural-music-fp/usecases/discovery"
)

const (
	DefaultPattern    = "**/*.npy"
	DefaultDBName     = "dummy_db.mm"
	DefaultMetaFormat = string(shapemeta.FormatNPY)
	DefaultWorkers    = 1
	DefaultChunkSize  = 4 * 1024 * 1024
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// DefaultExclude keeps sidecars of earlier runs out of a directory scan.
var DefaultExclude = []string{"*_shape.npy"}

// Flags are input options
type Flags struct {
	ConfigFile string `long:"config-file" description:"path to a yaml or json config file"`

	Root     string `long:"root" description:"root directory containing .npy files (scanned recursively)"`
	FileList string `long:"file-list" description:"file with the ordered list of .npy paths (json array or one path per line)"`
	Nested   bool   `long:"nested" description:"root holds exactly one level of subfolders, each scanned for files"`

	Pattern string   `long:"pattern" description:"glob selecting input files below root (default: **/*.npy)"`
	Exclude []string `long:"exclude" description:"glob of file names to skip, may be repeated (default: *_shape.npy)"`

	OutDir     string `long:"out-dir" description:"directory for the merged array and its metadata (default: root, or the directory of --file-list)"`
	DBName     string `long:"db-name" description:"output memmap file name (default: dummy_db.mm)"`
	MetaName   string `long:"meta-name" description:"metadata file name (default: derived from --db-name)"`
	MetaFormat string `long:"meta-format" description:"metadata format" choice:"npy" choice:"json"`

	Workers     *int `long:"workers" description:"files probed and copied in parallel, 0 means one per CPU (default: 1)"`
	ChunkSize   *int `long:"chunk-size" description:"bytes copied per read (default: 4MiB)"`
	KeepPartial bool `long:"keep-partial" description:"leave a partially written output behind on failure"`
	NoOverwrite bool `long:"no-overwrite" description:"fail instead of replacing an existing output file"`

	MetricsFile string `long:"metrics-file" description:"write run metrics in prometheus text format to this file"`
	LogLevel    string `long:"log-level" description:"log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogFormat   string `long:"log-format" description:"log format" choice:"text" choice:"json"`
}

type Logging struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Config outline of the config file
type Config struct {
	Root     string `json:"root" yaml:"root"`
	FileList string `json:"file_list" yaml:"file_list"`
	Nested   bool   `json:"nested" yaml:"nested"`

	Pattern string   `json:"pattern" yaml:"pattern"`
	Exclude []string `json:"exclude" yaml:"exclude"`

	OutDir     string `json:"out_dir" yaml:"out_dir"`
	DBName     string `json:"db_name" yaml:"db_name"`
	MetaName   string `json:"meta_name" yaml:"meta_name"`
	MetaFormat string `json:"meta_format" yaml:"meta_format"`

	// Workers bounds the parallel header probe and copy. 1 copies the files
	// one after another, values below 1 use one worker per CPU.
	Workers     int  `json:"workers" yaml:"workers"`
	ChunkSize   int  `json:"chunk_size" yaml:"chunk_size"`
	KeepPartial bool `json:"keep_partial" yaml:"keep_partial"`
	Overwrite   bool `json:"overwrite" yaml:"overwrite"`

	MetricsFile string  `json:"metrics_file" yaml:"metrics_file"`
	Logging     Logging `json:"logging" yaml:"logging"`
}

// Defaults returns the configuration a run uses when nothing is set.
func Defaults() Config {
	return Config{
		Pattern:    DefaultPattern,
		Exclude:    append([]string(nil), DefaultExclude...),
		DBName:     DefaultDBName,
		MetaFormat: DefaultMetaFormat,
		Workers:    DefaultWorkers,
		ChunkSize:  DefaultChunkSize,
		Overwrite:  true,
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func (c *Config) SourceKind() discovery.Kind {
	switch {
	case c.FileList != "":
		return discovery.ExplicitList
	case c.Nested:
		return discovery.Nested
	default:
		return discovery.Directory
	}
}

// Source describes where the inputs of the run come from. The run's own
// output and metadata files are never picked up as inputs.
func (c *Config) Source() discovery.Source {
	return discovery.Source{
		Kind:     c.SourceKind(),
		Root:     c.Root,
		ListFile: c.FileList,
		Pattern:  c.Pattern,
		Exclude:  c.Exclude,
		Skip:     []string{c.OutputPath(), c.MetaPath()},
	}
}

// OutputDir is where the merged array and its metadata are written.
func (c *Config) OutputDir() string {
	switch {
	case c.OutDir != "":
		return c.OutDir
	case c.FileList != "":
		return filepath.Dir(c.FileList)
	default:
		return c.Root
	}
}

func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir(), c.DBName)
}

func (c *Config) MetaPath() string {
	name := c.MetaName
	if name == "" {
		name = shapemeta.DefaultName(c.DBName, shapemeta.Format(c.MetaFormat))
	}
	return filepath.Join(c.OutputDir(), name)
}

// Validate checks the configuration without touching the filesystem.
func (c *Config) Validate() error {
	switch {
	case c.Root == "" && c.FileList == "":
		return enterrors.NewInvalidConfig("one of root or file list is required")
	case c.Root != "" && c.FileList != "":
		return enterrors.NewInvalidConfig("root and file list are mutually exclusive")
	case c.Nested && c.Root == "":
		return enterrors.NewInvalidConfig("nested layout requires a root directory")
	}

	if c.FileList == "" {
		if c.Pattern == "" {
			return enterrors.NewInvalidConfig("pattern must not be empty")
		}
		if _, err := doublestar.Match(c.Pattern, "probe.npy"); err != nil {
			return enterrors.NewInvalidConfig("pattern %q: %v", c.Pattern, err)
		}
	}
	for _, ex := range c.Exclude {
		if _, err := doublestar.Match(ex, "probe.npy"); err != nil {
			return enterrors.NewInvalidConfig("exclude pattern %q: %v", ex, err)
		}
	}

	if c.DBName == "" || strings.HasSuffix(c.DBName, string(filepath.Separator)) {
		return enterrors.NewInvalidConfig("db name must name a file, got %q", c.DBName)
	}
	if _, err := shapemeta.ParseFormat(c.MetaFormat); err != nil {
		return enterrors.NewInvalidConfig("%v", err)
	}
	if c.MetaPath() == c.OutputPath() {
		return enterrors.NewInvalidConfig("metadata file %q would overwrite the output", c.MetaPath())
	}
	if c.ChunkSize < 1 {
		return enterrors.NewInvalidConfig("chunk size must be positive, got %d", c.ChunkSize)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return enterrors.NewInvalidConfig("log level: %v", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return enterrors.NewInvalidConfig("log format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// LoadConfig layers the config file, the environment and the flags on top
// of the defaults, in that order, and validates the result.
func LoadConfig(flags *Flags, logger logrus.FieldLogger) (Config, error) {
	c := Defaults()

	if flags.ConfigFile != "" {
		file, err := os.ReadFile(flags.ConfigFile)
		if err != nil {
			return c, configErr(errors.Wrap(err, "read config file"))
		}
		logger.WithField("action", "config_load").
			WithField("config_file_path", flags.ConfigFile).
			Debug("loading config file")
		if err := parseConfigFile(file, flags.ConfigFile, &c); err != nil {
			return c, configErr(err)
		}
	}

	if err := FromEnv(&c); err != nil {
		return c, configErr(err)
	}

	c.fromFlags(flags)

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func parseConfigFile(file []byte, name string, c *Config) error {
	m := regexp.MustCompile(`.*\.(\w+)$`).FindStringSubmatch(name)
	if len(m) < 2 {
		return fmt.Errorf("config file does not have a file ending, got '%s'", name)
	}

	switch m[1] {
	case "json":
		if err := json.Unmarshal(file, c); err != nil {
			return fmt.Errorf("error unmarshalling the json config file: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(file, c); err != nil {
			return fmt.Errorf("error unmarshalling the yaml config file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension '%s', use .yaml or .json", m[1])
	}

	return nil
}

func (c *Config) fromFlags(flags *Flags) {
	if flags.Root != "" {
		c.Root = flags.Root
	}
	if flags.FileList != "" {
		c.FileList = flags.FileList
	}
	if flags.Nested {
		c.Nested = true
	}
	if flags.Pattern != "" {
		c.Pattern = flags.Pattern
	}
	if len(flags.Exclude) > 0 {
		c.Exclude = flags.Exclude
	}
	if flags.OutDir != "" {
		c.OutDir = flags.OutDir
	}
	if flags.DBName != "" {
		c.DBName = flags.DBName
	}
	if flags.MetaName != "" {
		c.MetaName = flags.MetaName
	}
	if flags.MetaFormat != "" {
		c.MetaFormat = flags.MetaFormat
	}
	if flags.Workers != nil {
		c.Workers = *flags.Workers
	}
	if flags.ChunkSize != nil {
		c.ChunkSize = *flags.ChunkSize
	}
	if flags.KeepPartial {
		c.KeepPartial = true
	}
	if flags.NoOverwrite {
		c.Overwrite = false
	}
	if flags.MetricsFile != "" {
		c.MetricsFile = flags.MetricsFile
	}
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		c.Logging.Format = flags.LogFormat
	}
}

func configErr(err error) error {
	return fmt.Errorf("%w: %w", enterrors.ErrInvalidConfig, err)
}
