// Package config describes a cipherbuild pipeline: the two upstream
// trees, the engine compile flags, the binding's staging slots, and
// where collected artifacts land.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Upstream identifies a git-hosted source tree.
type Upstream struct {
	Repo string `yaml:"repo"`
	Ref  string `yaml:"ref"`
}

// Dir returns the local directory name a synced tree uses, derived
// from the repository path the way git clone derives it.
func (u Upstream) Dir() string {
	name := path.Base(strings.TrimSuffix(u.Repo, "/"))
	return strings.TrimSuffix(name, ".git")
}

// Engine configures the encrypted-database engine compile.
type Engine struct {
	Upstream      `yaml:",inline"`
	ConfigureArgs []string `yaml:"configure_args"`
	CFlags        string   `yaml:"cflags"`
	LDFlags       string   `yaml:"ldflags"`
	// Env is set for every engine build command, e.g. TCLSH when the
	// engine's build scripts need a non-default Tcl interpreter.
	Env map[string]string `yaml:"env"`
	// Target is the make target producing the amalgamated source.
	Target string `yaml:"target"`
}

// Binding configures the language-binding build.
type Binding struct {
	Upstream `yaml:",inline"`
	Python   string `yaml:"python"`
	// Slots are the staging directories, relative to the binding tree,
	// that must each receive a copy of the amalgamated pair before the
	// binding builds. The binding's own tooling reads different slots
	// in different build modes, so all of them must be populated.
	Slots []string `yaml:"slots"`
	// OutputGlob matches the platform/version-tagged build output
	// directories, relative to the binding tree.
	OutputGlob string `yaml:"output_glob"`
	// Subpackage is the native-module subpackage name inside the
	// build output directories.
	Subpackage string `yaml:"subpackage"`
}

// Collect configures where build artifacts are vendored.
type Collect struct {
	Dest string `yaml:"dest"`
	// Extensions lists the artifact suffixes collected from each
	// build output directory.
	Extensions []string `yaml:"extensions"`
}

// Config is a full pipeline description.
type Config struct {
	WorkDir string  `yaml:"workdir"`
	Engine  Engine  `yaml:"engine"`
	Binding Binding `yaml:"binding"`
	Collect Collect `yaml:"collect"`
}

// Default returns the pipeline that vendors SQLCipher into
// pysqlcipher3, matching the sigexport build script.
func Default() *Config {
	return &Config{
		WorkDir: ".",
		Engine: Engine{
			Upstream:      Upstream{Repo: "https://github.com/sqlcipher/sqlcipher", Ref: "master"},
			ConfigureArgs: []string{"--enable-tempstore=yes"},
			CFlags:        "-DSQLITE_HAS_CODEC",
			LDFlags:       "-lcrypto -lsqlite3",
			Target:        "sqlite3.c",
		},
		Binding: Binding{
			Upstream:   Upstream{Repo: "https://github.com/rigglemania/pysqlcipher3", Ref: "master"},
			Python:     "python3",
			Slots:      []string{"amalgamation", "src/python3/sqlcipher"},
			OutputGlob: "build/lib.*",
			Subpackage: "pysqlcipher3",
		},
		Collect: Collect{
			Dest:       "src/pysqlcipher3",
			Extensions: []string{".py", ".so"},
		},
	}
}

// Parse reads a config from file, or from data when data is non-nil.
// Settings overlay the defaults, so a partial file is valid.
func Parse(file string, data []byte) (*Config, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewBuffer(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	cfg := Default()
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return cfg, nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first structural problem in the config.
func (c *Config) Validate() error {
	if c.Engine.Repo == "" {
		return fmt.Errorf("config: engine repo is required")
	}
	if c.Binding.Repo == "" {
		return fmt.Errorf("config: binding repo is required")
	}
	if c.Engine.Dir() == c.Binding.Dir() {
		return fmt.Errorf("config: engine and binding repos would sync into the same directory %q", c.Engine.Dir())
	}
	if c.Engine.Target == "" {
		return fmt.Errorf("config: engine target is required")
	}
	if len(c.Binding.Slots) == 0 {
		return fmt.Errorf("config: at least one staging slot is required")
	}
	for _, slot := range c.Binding.Slots {
		if path.IsAbs(slot) || slot == "" {
			return fmt.Errorf("config: staging slot %q must be a relative path", slot)
		}
	}
	if c.Binding.OutputGlob == "" {
		return fmt.Errorf("config: binding output_glob is required")
	}
	if c.Binding.Subpackage == "" {
		return fmt.Errorf("config: binding subpackage is required")
	}
	if c.Collect.Dest == "" {
		return fmt.Errorf("config: collect dest is required")
	}
	if len(c.Collect.Extensions) == 0 {
		return fmt.Errorf("config: at least one artifact extension is required")
	}
	return nil
}
