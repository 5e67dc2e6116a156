package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

const (
	SeparatorLF   = "lf"
	SeparatorCRLF = "crlf"
)

type Config struct {
	Charset       string `yaml:"charset" default:"UTF-8"`
	LineSeparator string `yaml:"line_separator" default:"lf"`
	Workers       int    `yaml:"workers" default:"4"`
	OutputDir     string `yaml:"output_dir"`
	Suffix        string `yaml:"suffix" default:".qp"`
	LogPath       string `yaml:"log_path"`
	Debug         bool   `yaml:"debug" default:"false"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var config Config
	if err := defaults.Set(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// FromFile reads the YAML configuration at path. An empty path yields the
// defaults.
func FromFile(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Parse the config file
	var config Config
	err = yaml.Unmarshal(configData, &config)
	if err != nil {
		return nil, err
	}

	err = defaults.Set(&config)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}
	if c.LineSeparator != SeparatorLF && c.LineSeparator != SeparatorCRLF {
		return fmt.Errorf("line_separator must be %q or %q, got %q", SeparatorLF, SeparatorCRLF, c.LineSeparator)
	}
	if c.Suffix == "" {
		return fmt.Errorf("suffix must not be empty")
	}
	return nil
}

// LineSeparatorBytes returns what decoded hard line breaks become.
func (c *Config) LineSeparatorBytes() []byte {
	if c.LineSeparator == SeparatorCRLF {
		return []byte("\r\n")
	}
	return []byte("\n")
}
