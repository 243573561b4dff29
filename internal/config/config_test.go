package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationFields(t *testing.T) {
	path := writeConfig(t, `
defaults:
  z0: 75
  frequency: 1.0e9
logging:
  level: debug
  format: json
output:
  format: csv
server:
  address: ":9090"
  maxUploadSize: 1MB
store:
  path: designs.db
problems:
  - name: feed
    active: true
    topology: L
    zInitial: "30+40j"
    zTarget: "50"
  - name: tuner
    active: false
    topology: double-stub
    gammaInitial: "0.5j"
    gammaTarget: "0"
    spacing: 0.375
`)
	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Defaults.Z0 != 75 || config.Defaults.Frequency != 1.0e9 {
		t.Errorf("defaults = %+v", config.Defaults)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "json" {
		t.Errorf("logging = %+v", config.Logging)
	}
	if config.Output.Format != "csv" {
		t.Errorf("output format = %q", config.Output.Format)
	}
	if config.Server.Address != ":9090" || config.Server.MaxUploadSize != "1MB" {
		t.Errorf("server = %+v", config.Server)
	}
	if config.Store.Path != "designs.db" {
		t.Errorf("store path = %q", config.Store.Path)
	}
	if len(config.Problems) != 2 {
		t.Fatalf("problem count = %d, expected 2", len(config.Problems))
	}
	if config.Problems[0].Name != "feed" || !config.Problems[0].Active {
		t.Errorf("first problem = %+v", config.Problems[0])
	}
	if config.Problems[1].Topology != "double-stub" || config.Problems[1].Spacing != 0.375 {
		t.Errorf("second problem = %+v", config.Problems[1])
	}
}

func TestLoadConfigurationExample(t *testing.T) {
	config, err := LoadConfiguration("../../config.yaml.example")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if warnings := config.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("example config produced warnings: %v", warnings)
	}
	requests, err := config.ActiveRequests()
	if err != nil {
		t.Fatalf("ActiveRequests() error = %v", err)
	}
	if len(requests) != 2 {
		t.Errorf("active problems = %d, expected 2", len(requests))
	}
}

func TestProblemToRequest(t *testing.T) {
	defaults := Defaults{Z0: 50, Frequency: 2.45e9}
	tests := []struct {
		name    string
		problem Problem
		wantErr bool
		check   func(t *testing.T, req matching.Request)
	}{
		{
			name: "Impedance pair with defaults",
			problem: Problem{
				Topology: "L", ZInitial: "30+40j", ZTarget: "50",
			},
			check: func(t *testing.T, req matching.Request) {
				if req.Topology != matching.TopologyL {
					t.Errorf("topology = %v", req.Topology)
				}
				if req.ZInitial == nil || *req.ZInitial != complex(30, 40) {
					t.Errorf("zInitial = %v", req.ZInitial)
				}
				if req.Z0 != 50 || req.Frequency != 2.45e9 {
					t.Errorf("defaults not applied: Z0 = %g, f = %g", req.Z0, req.Frequency)
				}
				if req.GammaInitial != nil || req.GammaTarget != nil {
					t.Errorf("reflection pair unexpectedly populated")
				}
			},
		},
		{
			name: "Reflection pair with overrides",
			problem: Problem{
				Topology: "single-stub", GammaInitial: "0.5j", GammaTarget: "0",
				Z0: 75, Frequency: 1e9,
			},
			check: func(t *testing.T, req matching.Request) {
				if req.GammaInitial == nil || *req.GammaInitial != complex(0, 0.5) {
					t.Errorf("gammaInitial = %v", req.GammaInitial)
				}
				if req.Z0 != 75 || req.Frequency != 1e9 {
					t.Errorf("overrides lost: Z0 = %g, f = %g", req.Z0, req.Frequency)
				}
			},
		},
		{
			name:    "Unknown topology",
			problem: Problem{Topology: "quarter-wave", ZInitial: "30", ZTarget: "50"},
			wantErr: true,
		},
		{
			name:    "Unparsable impedance",
			problem: Problem{Topology: "L", ZInitial: "thirty", ZTarget: "50"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.problem.ToRequest(defaults)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ToRequest() accepted an invalid problem")
				}
				return
			}
			if err != nil {
				t.Fatalf("ToRequest() error = %v", err)
			}
			tt.check(t, req)
		})
	}
}

func TestActiveRequests(t *testing.T) {
	config := &Configuration{
		Defaults: Defaults{Frequency: 1e9},
		Problems: []Problem{
			{Name: "on", Active: true, Topology: "L", ZInitial: "30+40j", ZTarget: "50"},
			{Name: "off", Active: false, Topology: "T", ZInitial: "10", ZTarget: "100"},
			{Name: "also on", Active: true, Topology: "pi", ZInitial: "10", ZTarget: "100"},
		},
	}
	requests, err := config.ActiveRequests()
	if err != nil {
		t.Fatalf("ActiveRequests() error = %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("request count = %d, expected 2", len(requests))
	}
	if requests[0].Name != "on" || requests[1].Name != "also on" {
		t.Errorf("request order = %q, %q", requests[0].Name, requests[1].Name)
	}

	config.Problems[0].ZTarget = "" // half a pair
	if _, err := config.ActiveRequests(); err == nil {
		t.Errorf("ActiveRequests() accepted a half-populated pair")
	} else if !strings.Contains(err.Error(), "on") {
		t.Errorf("error %q does not name the failing problem", err)
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		config   Configuration
		contains string
	}{
		{
			name:     "No problems",
			config:   Configuration{},
			contains: "no problems",
		},
		{
			name: "All inactive",
			config: Configuration{Problems: []Problem{
				{Name: "a", Topology: "L", ZInitial: "30", ZTarget: "50"},
			}},
			contains: "no active problems",
		},
		{
			name: "Duplicate names",
			config: Configuration{
				Defaults: Defaults{Frequency: 1e9},
				Problems: []Problem{
					{Name: "a", Active: true, Topology: "L", ZInitial: "30", ZTarget: "50"},
					{Name: "a", Active: true, Topology: "T", ZInitial: "10", ZTarget: "100"},
				},
			},
			contains: "duplicate",
		},
		{
			name: "Missing frequency",
			config: Configuration{Problems: []Problem{
				{Name: "a", Active: true, Topology: "L", ZInitial: "30", ZTarget: "50"},
			}},
			contains: "frequency",
		},
		{
			name: "Unknown output format",
			config: Configuration{
				Defaults: Defaults{Frequency: 1e9},
				Output:   OutputConfig{Format: "xml"},
				Problems: []Problem{
					{Name: "a", Active: true, Topology: "L", ZInitial: "30", ZTarget: "50"},
				},
			},
			contains: "output format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.config.ValidateConfiguration()
			for _, w := range warnings {
				if strings.Contains(w, tt.contains) {
					return
				}
			}
			t.Errorf("warnings %v do not mention %q", warnings, tt.contains)
		})
	}
}

func TestOutputFormat(t *testing.T) {
	var config Configuration
	if got := config.OutputFormat(); got != "pretty" {
		t.Errorf("default output format = %q, expected pretty", got)
	}
	config.Output.Format = "csv"
	if got := config.OutputFormat(); got != "csv" {
		t.Errorf("output format = %q, expected csv", got)
	}
}

func TestLoadConfigurationFromReader(t *testing.T) {
	content := `defaults:
  z0: 75
  frequency: 1e9
problems:
  - name: feed
    active: true
    topology: L
    zInitial: "30+40j"
    zTarget: "50"
`
	configuration, err := LoadConfigurationFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if configuration.Defaults.Z0 != 75 {
		t.Errorf("Defaults.Z0 = %g, expected 75", configuration.Defaults.Z0)
	}

	requests, err := configuration.ActiveRequests()
	if err != nil {
		t.Fatalf("ActiveRequests() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("ActiveRequests() returned %d requests, expected 1", len(requests))
	}
	if requests[0].Request.Z0 != 75 {
		t.Errorf("request Z0 = %g, expected the 75 ohm default", requests[0].Request.Z0)
	}

	if _, err := LoadConfigurationFromReader(strings.NewReader("problems: [")); err == nil {
		t.Errorf("LoadConfigurationFromReader() with malformed YAML expected an error")
	}
}

func TestExampleConfiguration(t *testing.T) {
	path := filepath.Join("..", "..", constants.ExampleConfigFile)
	configuration, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration(%s) error = %v", path, err)
	}

	if warnings := configuration.ValidateConfiguration(); len(warnings) != 0 {
		t.Fatalf("example configuration produced warnings: %v", warnings)
	}

	if configuration.Defaults.Z0 != 50 {
		t.Errorf("Defaults.Z0 = %g, expected 50", configuration.Defaults.Z0)
	}
	if configuration.Defaults.Frequency != 2.45e9 {
		t.Errorf("Defaults.Frequency = %g, expected 2.45e9", configuration.Defaults.Frequency)
	}
	if configuration.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, expected :8080", configuration.Server.Address)
	}

	requests, err := configuration.ActiveRequests()
	if err != nil {
		t.Fatalf("ActiveRequests() error = %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 active problems in example config, got %d", len(requests))
	}
	if requests[0].Name != "antenna feed" || requests[0].Request.Topology != matching.TopologyL {
		t.Errorf("unexpected first problem: %+v", requests[0])
	}
	for _, pr := range requests {
		if _, err := matching.Solve(nil, pr.Request); err != nil {
			t.Errorf("example problem %q does not solve: %v", pr.Name, err)
		}
	}
}
