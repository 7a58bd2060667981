// Package config supplies the launcher's defaults.
//
// Everything here can be left alone: the embedded configuration ships the
// stock control tokens (pipe "I", separator "J", tempdir placeholder "T").
// A user-level config file may override them and add default environment
// assignments; command-line options always win over the file.
package config

import (
	_ "embed"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	// ConfigPathEnv overrides the config file location when set.
	ConfigPathEnv = "OO_CONFIG"
	// ConfigDirName is the directory under the user config dir.
	ConfigDirName = "oo"
	// ConfigurationName is the name of the config file.
	ConfigurationName = "config.yaml"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Config struct {
	// Pipe is the default token standing in for "|"; empty disables piping.
	Pipe string `json:"pipe"`
	// Separator is the default token standing in for ";"; empty disables
	// chain splitting.
	Separator string `json:"separator"`
	// TempdirPlaceholder is the default token substituted with the
	// per-invocation temporary directory; empty disables substitution.
	TempdirPlaceholder string `json:"tempdir_placeholder"`
	// Color controls diagnostic coloring.
	Color string `json:"color" validate:"omitempty,oneof=always auto never"`
	// Env holds VAR=VALUE assignments applied before any -e option.
	Env []string `json:"env"`
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	if err := validate.Struct(c); err != nil {
		return err
	}

	for _, e := range c.Env {
		if !strings.Contains(e, "=") {
			return fmt.Errorf("config env entry should be VAR=VALUE: %q", e)
		}
	}
	return nil
}
