package config

import (
	"bytes"
	"io"
	"os"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"lazyframe/pkg/tomy_file"
)

type Config struct {
	ListenAddress    string `yaml:"listen_address"`
	DataDir          string `yaml:"data_dir"`
	CompressionLevel string `yaml:"compression_level"`
	PreviewRowLimit  uint64 `yaml:"preview_row_limit"`
	LogLevel         string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ListenAddress:    ":8080",
		DataDir:          "./data",
		CompressionLevel: "default",
		PreviewRowLimit:  100,
		LogLevel:         "info",
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New("listen_address must be set")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if _, err := c.EncoderLevel(); err != nil {
		return err
	}
	if _, err := level.Parse(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	return nil
}

func (c Config) EncoderLevel() (tomy_file.EncoderLevel, error) {
	return tomy_file.ParseEncoderLevel(c.CompressionLevel)
}

// LevelFilter maps LogLevel to a go-kit filter option.
func (c Config) LevelFilter() level.Option {
	switch c.LogLevel {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
