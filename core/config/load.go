package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Default returns the embedded configuration.
// Panics on failure because the embedded file is validated by tests.
func Default() *Config {
	var out Config
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Path returns the config file location: $OO_CONFIG when set, otherwise
// <user config dir>/oo/config.yaml.
func Path() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ConfigDirName, ConfigurationName)
}

// Load reads the user configuration on top of the embedded defaults.
// A missing file is not an error; a malformed or invalid one is.
func Load(fs afero.Fs, path string) (*Config, error) {
	out := Default()
	if path == "" {
		return out, nil
	}

	contents, err := afero.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.UnmarshalStrict(contents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
