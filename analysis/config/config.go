// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/awslabs/ar-go-lockpath/internal/funcutil"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig. If no file has been set, the default
// config is returned.
func LoadGlobal() (*Config, error) {
	if configFile == "" {
		return NewDefault(), nil
	}
	return Load(configFile)
}

// Config contains the analysis options and the extra callee names used by the classifier.
// If some field is not defined in the config file, it keeps its default value.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// Classifier lists callee names that extend the built-in classification tables
	Classifier ClassifierSpec `yaml:"classifier"`
}

// ClassifierSpec contains the exact callee names added to each classification table.
type ClassifierSpec struct {
	// Acquire is a list of lock acquisition functions
	Acquire []string `yaml:"acquire"`

	// Release is a list of lock release functions
	Release []string `yaml:"release"`

	// TryAcquire is a list of functions that may acquire a lock
	TryAcquire []string `yaml:"try-acquire"`

	// InputSources is a list of functions returning external input
	InputSources []string `yaml:"input-sources"`

	// DepthAcquire and DepthRelease extend the exact names used by the critical-depth tracker
	DepthAcquire []string `yaml:"depth-acquire"`
	DepthRelease []string `yaml:"depth-release"`
}

type Options struct {
	// PkgFilter restricts the analysis of Go programs to the functions whose package path matches the filter.
	// The filter is a regex if it compiles, otherwise a prefix.
	PkgFilter string `yaml:"pkg-filter"`

	// MaxPaths bounds the number of paths enumerated per function.
	// If provided MaxPaths is <= 0, then the default is used.
	MaxPaths int `yaml:"max-paths"`

	// MaxLoopIterations is the number of times a path may re-enter a block beyond its first visit.
	// Negative values are replaced by the default.
	MaxLoopIterations int `yaml:"max-loop-iterations"`

	// MaxSolverIterations bounds the number of worklist steps of the lock-state solver
	MaxSolverIterations int `yaml:"max-solver-iterations"`

	// TryAcquireAdds specifies whether a successful try-lock is assumed, adding the lock to the held set
	TryAcquireAdds bool `yaml:"try-acquire-adds"`

	// IndirectClears specifies whether an indirect call empties the held set. When false the held set is unchanged.
	IndirectClears bool `yaml:"indirect-clears"`

	// FoldCase makes the classifier match name fragments without regard to case
	FoldCase bool `yaml:"fold-case"`

	// ResonanceThreshold is the instruction count above which a call graph cycle is reported by the
	// feedback-resonance pass
	ResonanceThreshold int `yaml:"resonance-threshold"`

	// NumRoutines is the number of functions analyzed in parallel
	NumRoutines int `yaml:"num-routines"`

	// ReportPathsLimit is the number of per-path lines printed per function. Zero or less prints all paths.
	ReportPathsLimit int `yaml:"report-paths-limit"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Classifier: ClassifierSpec{},
		Options: Options{
			PkgFilter:           "",
			MaxPaths:            DefaultMaxPaths,
			MaxLoopIterations:   DefaultMaxLoopIterations,
			MaxSolverIterations: DefaultMaxSolverIterations,
			TryAcquireAdds:      false,
			IndirectClears:      true,
			FoldCase:            true,
			ResonanceThreshold:  DefaultResonanceThreshold,
			NumRoutines:         1,
			ReportPathsLimit:    DefaultReportPathsLimit,
			LogLevel:            int(InfoLevel),
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// Parse reads a configuration from yaml content. Fields missing from the content keep their default value.
func Parse(content []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.MaxPaths <= 0 {
		cfg.MaxPaths = DefaultMaxPaths
	}
	if cfg.MaxLoopIterations < 0 {
		cfg.MaxLoopIterations = DefaultMaxLoopIterations
	}
	if cfg.MaxSolverIterations <= 0 {
		cfg.MaxSolverIterations = DefaultMaxSolverIterations
	}
	if cfg.ResonanceThreshold < 0 {
		cfg.ResonanceThreshold = DefaultResonanceThreshold
	}
	if cfg.NumRoutines <= 0 {
		cfg.NumRoutines = 1
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	spec := &cfg.Classifier
	for _, names := range []*[]string{&spec.Acquire, &spec.Release, &spec.TryAcquire, &spec.InputSources,
		&spec.DepthAcquire, &spec.DepthRelease} {
		*names = funcutil.Map(*names, strings.TrimSpace)
		if funcutil.Contains(*names, "") {
			return nil, fmt.Errorf("classifier lists cannot contain empty names")
		}
	}
	return cfg, nil
}

// SourceFile returns the file the config was loaded from, if any
func (c Config) SourceFile() string {
	return c.sourceFile
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function
// safely considers the case where a filter has been specified by the user, but it could not be compiled to a regex.
// The safe case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
