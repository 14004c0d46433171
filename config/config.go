package config

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DirEnv overrides the directory the config file is looked up in.
const DirEnv = "XH_CONFIG_DIR"

// Filenames are tried in order. YAML is a superset of JSON, so both are
// decoded the same way.
var Filenames = []string{
	"config.json",
	"config.yaml",
	"config.yml",
}

type Config struct {
	// DefaultOptions are prepended to the command line arguments.
	DefaultOptions []string `yaml:"default_options"`
}

// Dir returns the directory holding the config file.
func Dir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating config directory")
	}
	return filepath.Join(dir, "xh"), nil
}

// Load reads the config file from the default directory. A missing file is
// not an error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return &Config{}, nil
	}
	return FindAndLoad(dir)
}

func FindAndLoad(dir string) (*Config, error) {
	for _, filename := range Filenames {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return &Config{}, nil
}

func LoadFile(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file '%s'", path)
	}

	config := &Config{}
	if len(bytes.TrimSpace(data)) == 0 {
		return config, nil
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "parsing config file '%s'", path)
	}
	return config, nil
}

// Apply inserts the default options between the program name and the user's
// arguments, so options given explicitly are parsed last.
func (c *Config) Apply(args []string) []string {
	if len(c.DefaultOptions) == 0 || len(args) == 0 {
		return args
	}
	merged := make([]string, 0, len(args)+len(c.DefaultOptions))
	merged = append(merged, args[0])
	merged = append(merged, c.DefaultOptions...)
	return append(merged, args[1:]...)
}
