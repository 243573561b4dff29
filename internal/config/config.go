// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// Configuration holds all configuration for matchnet.
type Configuration struct {
	Defaults Defaults      `yaml:"defaults,omitempty"`
	Problems []Problem     `yaml:"problems,omitempty"`
	Logging  LoggingConfig `yaml:"logging,omitempty"`
	Output   OutputConfig  `yaml:"output,omitempty"`
	Server   ServerConfig  `yaml:"server,omitempty"`
	Store    StoreConfig   `yaml:"store,omitempty"`
}

// Defaults holds the parameters a problem inherits when it does not set its
// own.
type Defaults struct {
	Z0        float64 `yaml:"z0,omitempty"`        // ohms, 0 selects 50
	Frequency float64 `yaml:"frequency,omitempty"` // hertz
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ServerConfig holds the HTTP API options.
type ServerConfig struct {
	Address       string `yaml:"address,omitempty"`       // listen address, e.g. :8080
	MaxUploadSize string `yaml:"maxUploadSize,omitempty"` // e.g. 256KB, 1MB
}

// StoreConfig holds the design-log database options.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path; empty disables the log
}

// Problem describes one matching problem to solve. Impedances and reflection
// coefficients are complex-number strings such as "30+40j"; exactly one of
// the two pairs must be populated.
type Problem struct {
	Name         string  `yaml:"name"`
	Active       bool    `yaml:"active"`
	Topology     string  `yaml:"topology"`
	ZInitial     string  `yaml:"zInitial,omitempty"`
	ZTarget      string  `yaml:"zTarget,omitempty"`
	GammaInitial string  `yaml:"gammaInitial,omitempty"`
	GammaTarget  string  `yaml:"gammaTarget,omitempty"`
	Z0           float64 `yaml:"z0,omitempty"`
	Frequency    float64 `yaml:"frequency,omitempty"`
	Q            float64 `yaml:"q,omitempty"`
	Spacing      float64 `yaml:"spacing,omitempty"`
}

// ProblemRequest pairs a problem's name with its resolved solver request.
type ProblemRequest struct {
	Name    string
	Request matching.Request
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from an
// in-memory source, such as an HTTP upload.
func LoadConfigurationFromReader(reader io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(reader); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// ToRequest converts a problem into a solver request, filling unset
// parameters from the defaults. The request is not yet validated; callers
// run matching.Request.Validate or hand it straight to a solver.
func (p Problem) ToRequest(defaults Defaults) (matching.Request, error) {
	topology, err := matching.ParseTopology(p.Topology)
	if err != nil {
		return matching.Request{}, err
	}

	req := matching.Request{
		Topology:  topology,
		Z0:        p.Z0,
		Frequency: p.Frequency,
		Q:         p.Q,
		Spacing:   p.Spacing,
	}
	if req.Z0 == 0 {
		req.Z0 = defaults.Z0
	}
	if req.Frequency == 0 {
		req.Frequency = defaults.Frequency
	}

	fields := []struct {
		raw  string
		name string
		dst  **complex128
	}{
		{p.ZInitial, "zInitial", &req.ZInitial},
		{p.ZTarget, "zTarget", &req.ZTarget},
		{p.GammaInitial, "gammaInitial", &req.GammaInitial},
		{p.GammaTarget, "gammaTarget", &req.GammaTarget},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		z, err := units.ParseComplex(f.raw)
		if err != nil {
			return matching.Request{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = &z
	}
	return req, nil
}

// ActiveRequests converts every active problem into a validated solver
// request, in configuration order.
func (c *Configuration) ActiveRequests() ([]ProblemRequest, error) {
	var requests []ProblemRequest
	for _, p := range c.Problems {
		if !p.Active {
			continue
		}
		req, err := p.ToRequest(c.Defaults)
		if err != nil {
			return nil, fmt.Errorf("problem %q: %w", p.Name, err)
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("problem %q: %w", p.Name, err)
		}
		requests = append(requests, ProblemRequest{Name: p.Name, Request: req})
	}
	return requests, nil
}

// OutputFormat returns the configured output format, defaulting to pretty.
func (c *Configuration) OutputFormat() string {
	if c.Output.Format == "" {
		return constants.OutputFormatPretty
	}
	return c.Output.Format
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings rather than failing hard: a config with a broken problem
// can still run its remaining problems.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Problems) == 0 {
		warnings = append(warnings, "no problems defined")
		return warnings
	}

	active := 0
	seen := make(map[string]bool)
	for i, p := range c.Problems {
		label := p.Name
		if label == "" {
			label = fmt.Sprintf("problem %d", i+1)
			warnings = append(warnings, fmt.Sprintf("%s has no name", label))
		}
		if seen[label] {
			warnings = append(warnings, fmt.Sprintf("duplicate problem name %q", label))
		}
		seen[label] = true

		if !p.Active {
			continue
		}
		active++

		req, err := p.ToRequest(c.Defaults)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s", label, err))
			continue
		}
		if err := req.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s", label, err))
		}
	}
	if active == 0 {
		warnings = append(warnings, "no active problems")
	}

	if c.Output.Format != "" &&
		c.Output.Format != constants.OutputFormatPretty &&
		c.Output.Format != constants.OutputFormatCSV {
		warnings = append(warnings, fmt.Sprintf("unknown output format %q", c.Output.Format))
	}

	return warnings
}
